package seed

import (
	"context"
	"errors"

	"github.com/smallbiznis/mainservice/internal/notification/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Type and subtype ids are referenced by the listing config and by clients.
const (
	TypeAlert   int64 = 1
	TypeUtility int64 = 2
	TypeMachine int64 = 3

	SubtypeCommon        int64 = 1
	SubtypeSystem        int64 = 2
	SubtypeEnergy        int64 = 3
	SubtypeWater         int64 = 4
	SubtypeMachineHealth int64 = 5
)

var types = []domain.Type{
	{ID: TypeAlert, TypeName: "Alerta"},
	{ID: TypeUtility, TypeName: "Utilitário"},
	{ID: TypeMachine, TypeName: "Máquina"},
}

var subtypes = []domain.Subtype{
	{ID: SubtypeCommon, NotificationTypeID: TypeAlert, SubtypeName: "Comum"},
	{ID: SubtypeSystem, NotificationTypeID: TypeAlert, SubtypeName: "Sistema"},
	{ID: SubtypeEnergy, NotificationTypeID: TypeUtility, SubtypeName: "Energia"},
	{ID: SubtypeWater, NotificationTypeID: TypeUtility, SubtypeName: "Água"},
	{ID: SubtypeMachineHealth, NotificationTypeID: TypeMachine, SubtypeName: "Índice de Saúde"},
}

var healthIndexes = []domain.HealthIndex{
	{ID: 1, HealthIndexName: "Manutenção Urgente"},
	{ID: 2, HealthIndexName: "Risco Iminente"},
	{ID: 3, HealthIndexName: "Fora de Especificação"},
	{ID: 4, HealthIndexName: "Operando Corretamente"},
}

// Reference inserts the notification types, subtypes and machine health
// indexes. Existing rows are left untouched so reruns are no-ops.
func Reference(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx.Clauses(clause.OnConflict{DoNothing: true})
		if err := insert.Create(&types).Error; err != nil {
			return err
		}
		if err := insert.Create(&subtypes).Error; err != nil {
			return err
		}
		return insert.Create(&healthIndexes).Error
	})
}
