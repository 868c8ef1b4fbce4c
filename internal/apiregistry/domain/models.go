package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type NotifyCondition string

const NotifyConditionHealthIndex NotifyCondition = "HEALTH_INDEX"

type HealthStatus string

const (
	HealthStatusRed         HealthStatus = "RED"
	HealthStatusRedOrOrange HealthStatus = "RED_OR_ORANGE"
	HealthStatusNotGreen    HealthStatus = "NOT_GREEN"
)

type IntegrationType string

const (
	IntegrationTypeGoogle  IntegrationType = "GOOGLE"
	IntegrationTypeCelsius IntegrationType = "CELSIUS"
)

func (c NotifyCondition) Valid() bool {
	return c == NotifyConditionHealthIndex
}

func (s HealthStatus) Valid() bool {
	switch s {
	case HealthStatusRed, HealthStatusRedOrOrange, HealthStatusNotGreen:
		return true
	}
	return false
}

func (t IntegrationType) Valid() bool {
	switch t {
	case IntegrationTypeGoogle, IntegrationTypeCelsius:
		return true
	}
	return false
}

// Registration is an external API integration bound to a client.
// IsActive=false marks a retired row; retired rows never become active again.
type Registration struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClientID        int64           `gorm:"not null;index" json:"clientId"`
	ClientName      string          `gorm:"not null" json:"clientName"`
	Title           string          `gorm:"not null" json:"title"`
	NotifyCondition NotifyCondition `gorm:"not null" json:"notifyCondition"`
	HealthStatus    HealthStatus    `gorm:"not null" json:"healthStatus"`
	IntegrationType IntegrationType `gorm:"not null" json:"integrationType"`
	TriggerID       string          `gorm:"not null;index" json:"triggerId"`
	IsTest          bool            `gorm:"not null" json:"isTest"`
	IsActive        bool            `gorm:"not null" json:"isActive"`
	Status          bool            `gorm:"not null" json:"status"`
	UnitRelations   []UnitRelation  `gorm:"foreignKey:RegistrationID" json:"unitRelations"`
	CreatedAt       time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updatedAt"`
}

func (Registration) TableName() string { return "api_registries" }

// UnitRelation scopes a test-mode registration to one unit.
type UnitRelation struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"-"`
	RegistrationID snowflake.ID `gorm:"column:api_registry_id;not null;index" json:"-"`
	UnitID         int64        `gorm:"not null" json:"unitId"`
	UnitName       string       `gorm:"not null" json:"unitName"`
	CreatedAt      time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updatedAt"`
}

func (UnitRelation) TableName() string { return "api_unit_relations" }
