package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func preloadUnits(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *repo) FindActiveMatching(ctx context.Context, db *gorm.DB, clientID int64, triggerID, title string) ([]domain.Registration, error) {
	var rows []domain.Registration
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("client_id = ? OR trigger_id = ? OR title = ?", clientID, triggerID, title).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindActiveEnabledForClient(ctx context.Context, db *gorm.DB, clientID int64, isTest bool, excludeID snowflake.ID) (*domain.Registration, error) {
	var rows []domain.Registration
	err := db.WithContext(ctx).
		Where("is_active = ? AND status = ?", true, true).
		Where("client_id = ? AND is_test = ? AND id <> ?", clientID, isTest, excludeID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) FindActiveTriggerHolder(ctx context.Context, db *gorm.DB, triggerID string, clientID int64, excludeID snowflake.ID) (*domain.Registration, error) {
	var rows []domain.Registration
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("trigger_id = ? AND client_id <> ? AND id <> ?", triggerID, clientID, excludeID).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) FindActiveByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Registration, error) {
	var rows []domain.Registration
	err := db.WithContext(ctx).
		Preload("UnitRelations", preloadUnits).
		Where("id = ? AND is_active = ?", id, true).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, registration *domain.Registration) error {
	return db.WithContext(ctx).Create(registration).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, registration *domain.Registration) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Save(registration).Error
}

func (r *repo) ReplaceUnitRelations(ctx context.Context, db *gorm.DB, registrationID snowflake.ID, relations []domain.UnitRelation) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("api_registry_id = ?", registrationID).Delete(&domain.UnitRelation{}).Error; err != nil {
		return err
	}
	if len(relations) == 0 {
		return nil
	}
	return tx.Create(&relations).Error
}

func (r *repo) FindExistingIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error) {
	var existing []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Registration{}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *repo) Retire(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Registration{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":     false,
			"is_active":  false,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, query domain.Query) ([]domain.Registration, error) {
	var rows []domain.Registration
	stmt := applyPredicate(db.WithContext(ctx).Model(&domain.Registration{}), query.Where).
		Preload("UnitRelations", preloadUnits).
		Order(query.Order).
		Order("id DESC")
	if query.Limit > 0 {
		stmt = stmt.Offset(query.Offset).Limit(query.Limit)
	}
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, predicate domain.Predicate) (int64, error) {
	var total int64
	err := applyPredicate(db.WithContext(ctx).Model(&domain.Registration{}), predicate).
		Count(&total).Error
	return total, err
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Registration, error) {
	var rows []domain.Registration
	err := db.WithContext(ctx).
		Preload("UnitRelations", preloadUnits).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyPredicate renders clause columns verbatim; they only ever come from
// the fixed column set of domain.BuildPredicate.
func applyPredicate(stmt *gorm.DB, predicate domain.Predicate) *gorm.DB {
	for _, c := range predicate.Clauses {
		if len(c.Values) == 1 {
			stmt = stmt.Where(fmt.Sprintf("api_registries.%s = ?", c.Column), c.Values[0])
			continue
		}
		stmt = stmt.Where(fmt.Sprintf("api_registries.%s IN ?", c.Column), c.Values)
	}
	if u := predicate.Units; u != nil {
		stmt = stmt.Where(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM api_unit_relations r WHERE r.api_registry_id = api_registries.id AND r.%s IN ?)",
			u.Column,
		), u.Values)
	}
	return stmt
}
