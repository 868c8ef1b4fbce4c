package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Reference data. Ids are fixed and seeded.

type Type struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TypeName string `gorm:"not null" json:"typeName"`
}

func (Type) TableName() string { return "notification_types" }

type Subtype struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	NotificationTypeID int64  `gorm:"not null;index" json:"notificationTypeId"`
	SubtypeName        string `gorm:"not null" json:"subtypeName"`
	Type               *Type  `gorm:"foreignKey:NotificationTypeID" json:"type,omitempty"`
}

func (Subtype) TableName() string { return "notification_subtypes" }

type HealthIndex struct {
	ID              int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	HealthIndexName string `gorm:"not null" json:"healthIndexName"`
}

func (HealthIndex) TableName() string { return "notification_machine_health_indexes" }

// Notification carries exactly one condition payload, matching its subtype.
type Notification struct {
	ID            snowflake.ID             `gorm:"primaryKey" json:"id"`
	SubtypeID     int64                    `gorm:"column:notification_subtype_id;not null;index" json:"subtypeId"`
	DateSend      time.Time                `gorm:"not null;index" json:"dateSend"`
	Subtype       *Subtype                 `gorm:"foreignKey:SubtypeID" json:"-"`
	Destinataries []Destinatary            `gorm:"foreignKey:NotificationID" json:"destinataries"`
	Energy        []EnergyDetection        `gorm:"foreignKey:NotificationID" json:"energy,omitempty"`
	Water         []WaterDetection         `gorm:"foreignKey:NotificationID" json:"water,omitempty"`
	MachineHealth []MachineHealthDetection `gorm:"foreignKey:NotificationID" json:"machineHealth,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// Destinatary is one recipient of a notification and its viewed flag.
type Destinatary struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"-"`
	NotificationID snowflake.ID `gorm:"not null;uniqueIndex:ux_notification_destinataries_pair" json:"-"`
	DestinataryID  string       `gorm:"not null;uniqueIndex:ux_notification_destinataries_pair;index" json:"destinataryId"`
	IsViewed       bool         `gorm:"not null" json:"isViewed"`
}

func (Destinatary) TableName() string { return "notification_destinataries" }

type EnergyConditions struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"-"`
	Setpoint        float64      `gorm:"not null" json:"setpoint"`
	IsGreater       bool         `gorm:"not null" json:"isGreater"`
	IsInstantaneous bool         `gorm:"not null" json:"isInstantaneous"`
}

func (EnergyConditions) TableName() string { return "notification_energy_conditions" }

type EnergyDetection struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"-"`
	NotificationID snowflake.ID      `gorm:"not null;index" json:"-"`
	ConditionsID   snowflake.ID      `gorm:"column:notification_conditions_id;not null" json:"-"`
	UnitID         int64             `gorm:"not null;index" json:"unitId"`
	DateDetection  time.Time         `gorm:"not null" json:"dateDetection"`
	Consumption    float64           `gorm:"not null" json:"consumption"`
	Conditions     *EnergyConditions `gorm:"foreignKey:ConditionsID" json:"conditions,omitempty"`
}

func (EnergyDetection) TableName() string { return "notification_energy" }

type WaterConditions struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"-"`
	IsInstantaneous bool         `gorm:"not null" json:"isInstantaneous"`
}

func (WaterConditions) TableName() string { return "notification_water_conditions" }

type WaterDetection struct {
	ID             snowflake.ID     `gorm:"primaryKey" json:"-"`
	NotificationID snowflake.ID     `gorm:"not null;index" json:"-"`
	ConditionsID   snowflake.ID     `gorm:"column:notification_conditions_id;not null" json:"-"`
	UnitID         int64            `gorm:"not null;index" json:"unitId"`
	DateDetection  time.Time        `gorm:"not null" json:"dateDetection"`
	Consumption    float64          `gorm:"not null" json:"consumption"`
	Conditions     *WaterConditions `gorm:"foreignKey:ConditionsID" json:"conditions,omitempty"`
}

func (WaterDetection) TableName() string { return "notification_water" }

type MachineHealthConditions struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"-"`
	IsInstantaneous bool         `gorm:"not null" json:"isInstantaneous"`
	HealthIndexID   int64        `gorm:"not null" json:"healthIndex"`
	HealthIndex     *HealthIndex `gorm:"foreignKey:HealthIndexID" json:"-"`
}

func (MachineHealthConditions) TableName() string { return "notification_machine_health_conditions" }

type MachineHealthDetection struct {
	ID             snowflake.ID             `gorm:"primaryKey" json:"-"`
	NotificationID snowflake.ID             `gorm:"not null;index" json:"-"`
	ConditionsID   snowflake.ID             `gorm:"column:notification_conditions_id;not null" json:"-"`
	UnitID         int64                    `gorm:"not null;index" json:"unitId"`
	DateDetection  time.Time                `gorm:"not null" json:"dateDetection"`
	MachineName    string                   `gorm:"not null" json:"machineName"`
	MachineID      int64                    `gorm:"not null" json:"machineId"`
	AssetName      string                   `gorm:"not null" json:"assetName"`
	AssetID        int64                    `gorm:"not null" json:"assetId"`
	DeviceCode     string                   `gorm:"not null" json:"deviceCode"`
	Report         string                   `gorm:"not null" json:"report"`
	Conditions     *MachineHealthConditions `gorm:"foreignKey:ConditionsID" json:"conditions,omitempty"`
}

func (MachineHealthDetection) TableName() string { return "notification_machine_health" }

// Event is an outbox row written with the notification and published to the
// event bus after commit.
type Event struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	NotificationID snowflake.ID      `gorm:"not null;index"`
	EventType      string            `gorm:"not null"`
	Payload        datatypes.JSONMap
	PublishedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}

func (Event) TableName() string { return "notification_events" }
