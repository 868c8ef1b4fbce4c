package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type State string

const (
	StateActiveEnabled  State = "active_enabled"
	StateActiveDisabled State = "active_disabled"
	StateRetired        State = "retired"
)

func (r Registration) State() State {
	switch {
	case !r.IsActive:
		return StateRetired
	case r.Status:
		return StateActiveEnabled
	default:
		return StateActiveDisabled
	}
}

// NewRegistration validates req and builds an active registration. Status
// defaults to enabled. Non-test registrations apply to every unit of the
// client, so their relations are dropped.
func NewRegistration(req CreateRequest, newID func() snowflake.ID, now time.Time) (Registration, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Title = strings.TrimSpace(req.Title)
	req.TriggerID = strings.TrimSpace(req.TriggerID)

	if err := validateFields(req.ClientID, req.ClientName, req.Title, req.TriggerID,
		req.NotifyCondition, req.HealthStatus, req.IntegrationType); err != nil {
		return Registration{}, err
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	reg := Registration{
		ID:              newID(),
		ClientID:        req.ClientID,
		ClientName:      req.ClientName,
		Title:           req.Title,
		NotifyCondition: req.NotifyCondition,
		HealthStatus:    req.HealthStatus,
		IntegrationType: req.IntegrationType,
		TriggerID:       req.TriggerID,
		IsTest:          req.IsTest,
		IsActive:        true,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if reg.IsTest {
		relations, err := buildRelations(reg.ID, req.UnitRelations, newID, now)
		if err != nil {
			return Registration{}, err
		}
		reg.UnitRelations = relations
	}
	return reg, nil
}

// UpdatePlan is the outcome of merging an UpdateRequest into a stored row.
type UpdatePlan struct {
	Registration Registration
	// ReplaceRelations is set when the stored relations must be replaced by
	// Registration.UnitRelations.
	ReplaceRelations bool
	// CheckClientMode is set when the update enables the registration and the
	// client-mode rule must be re-validated.
	CheckClientMode bool
	// CheckTrigger is set when the update changes the trigger or the client
	// of an active registration.
	CheckTrigger bool
}

// ApplyUpdate merges patch into existing. Setting isActive=false retires
// the row, which also disables it.
func ApplyUpdate(existing Registration, patch UpdateRequest, newID func() snowflake.ID, now time.Time) (UpdatePlan, error) {
	merged := existing
	merged.UnitRelations = nil

	if patch.ClientID != nil {
		merged.ClientID = *patch.ClientID
	}
	if patch.ClientName != nil {
		merged.ClientName = strings.TrimSpace(*patch.ClientName)
	}
	if patch.Title != nil {
		merged.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.NotifyCondition != nil {
		merged.NotifyCondition = *patch.NotifyCondition
	}
	if patch.HealthStatus != nil {
		merged.HealthStatus = *patch.HealthStatus
	}
	if patch.IntegrationType != nil {
		merged.IntegrationType = *patch.IntegrationType
	}
	if patch.TriggerID != nil {
		merged.TriggerID = strings.TrimSpace(*patch.TriggerID)
	}
	if patch.IsTest != nil {
		merged.IsTest = *patch.IsTest
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.IsActive != nil && !*patch.IsActive {
		merged.IsActive = false
		merged.Status = false
	}

	if err := validateFields(merged.ClientID, merged.ClientName, merged.Title, merged.TriggerID,
		merged.NotifyCondition, merged.HealthStatus, merged.IntegrationType); err != nil {
		return UpdatePlan{}, err
	}
	merged.UpdatedAt = now

	plan := UpdatePlan{
		CheckClientMode: patch.Status != nil && *patch.Status && merged.IsActive,
		CheckTrigger:    (patch.TriggerID != nil || patch.ClientID != nil) && merged.IsActive,
	}

	switch {
	case !merged.IsTest:
		plan.ReplaceRelations = len(existing.UnitRelations) > 0 || patch.UnitRelations != nil
		merged.UnitRelations = []UnitRelation{}
	case patch.UnitRelations != nil:
		relations, err := buildRelations(merged.ID, patch.UnitRelations, newID, now)
		if err != nil {
			return UpdatePlan{}, err
		}
		plan.ReplaceRelations = true
		merged.UnitRelations = relations
	default:
		merged.UnitRelations = existing.UnitRelations
	}

	plan.Registration = merged
	return plan, nil
}

func validateFields(
	clientID int64,
	clientName, title, triggerID string,
	condition NotifyCondition,
	health HealthStatus,
	integration IntegrationType,
) error {
	switch {
	case clientID <= 0:
		return ErrInvalidClientID
	case clientName == "":
		return ErrInvalidClientName
	case title == "":
		return ErrInvalidTitle
	case triggerID == "":
		return ErrInvalidTriggerID
	case !condition.Valid():
		return ErrInvalidNotifyCondition
	case !health.Valid():
		return ErrInvalidHealthStatus
	case !integration.Valid():
		return ErrInvalidIntegrationType
	}
	return nil
}

func buildRelations(registrationID snowflake.ID, inputs []UnitRelationInput, newID func() snowflake.ID, now time.Time) ([]UnitRelation, error) {
	relations := make([]UnitRelation, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.UnitName)
		if input.UnitID <= 0 || name == "" {
			return nil, ErrInvalidUnitRelation
		}
		relations = append(relations, UnitRelation{
			ID:             newID(),
			RegistrationID: registrationID,
			UnitID:         input.UnitID,
			UnitName:       name,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return relations, nil
}
