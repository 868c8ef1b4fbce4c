package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/filter"
)

type UnitRelationInput struct {
	UnitID   int64
	UnitName string
}

type CreateRequest struct {
	ClientID        int64
	ClientName      string
	Title           string
	UnitRelations   []UnitRelationInput
	NotifyCondition NotifyCondition
	HealthStatus    HealthStatus
	IntegrationType IntegrationType
	TriggerID       string
	IsTest          bool
	// Status defaults to true when nil.
	Status *bool
}

// UpdateRequest is a partial update. Nil fields keep the stored value and a
// nil UnitRelations keeps the stored relations.
type UpdateRequest struct {
	ClientID        *int64
	ClientName      *string
	Title           *string
	UnitRelations   []UnitRelationInput
	NotifyCondition *NotifyCondition
	HealthStatus    *HealthStatus
	IntegrationType *IntegrationType
	TriggerID       *string
	IsTest          *bool
	IsActive        *bool
	Status          *bool
}

// ListRequest carries raw list parameters as received from the caller.
type ListRequest struct {
	ClientIDs       filter.Values
	ClientName      filter.Values
	Title           filter.Values
	UnitNames       filter.Values
	UnitIDs         filter.Values
	NotifyCondition filter.Values
	HealthStatus    filter.Values
	IntegrationType filter.Values
	TriggerID       filter.Values
	IsTest          filter.Value
	Status          filter.Value
	OrderBy         filter.Value
	OrderDirection  filter.Value
	Page            filter.Value
	Limit           filter.Value
}

type ListResponse struct {
	Items      []Registration `json:"items"`
	TotalItems int64          `json:"totalItems"`
}

type DeleteResponse struct {
	Message    string         `json:"message"`
	DeletedIDs []snowflake.ID `json:"deletedIds"`
}

type ClientOption struct {
	ClientID   int64  `json:"clientId"`
	ClientName string `json:"clientName"`
}

type UnitOption struct {
	UnitID   int64  `json:"unitId"`
	UnitName string `json:"unitName"`
}

type ComboOptions struct {
	Clients       []ClientOption `json:"clients"`
	UnitRelations []UnitOption   `json:"unitRelations"`
	Titles        []string       `json:"titles"`
	TriggerIDs    []string       `json:"triggerIds"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Registration, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, ids []snowflake.ID) (DeleteResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (Registration, error)
	ComboOptions(ctx context.Context) (ComboOptions, error)
}

var (
	ErrInvalidClientID        = errors.New("invalid_client_id")
	ErrInvalidClientName      = errors.New("invalid_client_name")
	ErrInvalidTitle           = errors.New("invalid_title")
	ErrInvalidTriggerID       = errors.New("invalid_trigger_id")
	ErrInvalidNotifyCondition = errors.New("invalid_notify_condition")
	ErrInvalidHealthStatus    = errors.New("invalid_health_status")
	ErrInvalidIntegrationType = errors.New("invalid_integration_type")
	ErrInvalidUnitRelation    = errors.New("invalid_unit_relation")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNoIDs                  = errors.New("no_ids")
	ErrNotFound               = errors.New("not_found")
)
