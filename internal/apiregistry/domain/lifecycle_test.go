package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(start int64) func() snowflake.ID {
	next := start
	return func() snowflake.ID {
		next++
		return snowflake.ID(next)
	}
}

func validCreate() CreateRequest {
	return CreateRequest{
		ClientID:        7,
		ClientName:      " Acme ",
		Title:           "Foo",
		NotifyCondition: NotifyConditionHealthIndex,
		HealthStatus:    HealthStatusRed,
		IntegrationType: IntegrationTypeGoogle,
		TriggerID:       "T1",
		IsTest:          true,
		UnitRelations:   []UnitRelationInput{{UnitID: 10, UnitName: "Loja 10"}},
	}
}

func TestNewRegistrationDefaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg, err := NewRegistration(validCreate(), sequence(100), now)
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(101), reg.ID)
	assert.Equal(t, "Acme", reg.ClientName)
	assert.True(t, reg.IsActive)
	assert.True(t, reg.Status)
	assert.Equal(t, StateActiveEnabled, reg.State())
	require.Len(t, reg.UnitRelations, 1)
	assert.Equal(t, reg.ID, reg.UnitRelations[0].RegistrationID)
	assert.Equal(t, now, reg.UnitRelations[0].CreatedAt)
}

func TestNewRegistrationDisabledProductionDropsRelations(t *testing.T) {
	req := validCreate()
	disabled := false
	req.Status = &disabled
	req.IsTest = false

	reg, err := NewRegistration(req, sequence(0), time.Now())
	require.NoError(t, err)
	assert.Equal(t, StateActiveDisabled, reg.State())
	assert.Empty(t, reg.UnitRelations)
}

func TestNewRegistrationValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		want   error
	}{
		{"client id", func(r *CreateRequest) { r.ClientID = 0 }, ErrInvalidClientID},
		{"title", func(r *CreateRequest) { r.Title = "  " }, ErrInvalidTitle},
		{"trigger", func(r *CreateRequest) { r.TriggerID = "" }, ErrInvalidTriggerID},
		{"health", func(r *CreateRequest) { r.HealthStatus = "BLUE" }, ErrInvalidHealthStatus},
		{"integration", func(r *CreateRequest) { r.IntegrationType = "" }, ErrInvalidIntegrationType},
		{"unit", func(r *CreateRequest) { r.UnitRelations = []UnitRelationInput{{UnitID: 0, UnitName: "x"}} }, ErrInvalidUnitRelation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate()
			tc.mutate(&req)
			_, err := NewRegistration(req, sequence(0), time.Now())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func storedRegistration() Registration {
	reg, _ := NewRegistration(validCreate(), sequence(100), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return reg
}

func TestApplyUpdateKeepsRelationsWhenOmitted(t *testing.T) {
	existing := storedRegistration()
	title := "Renamed"

	plan, err := ApplyUpdate(existing, UpdateRequest{Title: &title}, sequence(200), time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Renamed", plan.Registration.Title)
	assert.False(t, plan.ReplaceRelations)
	assert.False(t, plan.CheckClientMode)
	assert.False(t, plan.CheckTrigger)
	assert.Equal(t, existing.UnitRelations, plan.Registration.UnitRelations)
}

func TestApplyUpdateTriggerOrClientChangeRequiresTriggerCheck(t *testing.T) {
	trigger := "T9"
	plan, err := ApplyUpdate(storedRegistration(), UpdateRequest{TriggerID: &trigger}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.True(t, plan.CheckTrigger)

	client := int64(99)
	plan, err = ApplyUpdate(storedRegistration(), UpdateRequest{ClientID: &client}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.True(t, plan.CheckTrigger)

	inactive := false
	plan, err = ApplyUpdate(storedRegistration(), UpdateRequest{TriggerID: &trigger, IsActive: &inactive}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.False(t, plan.CheckTrigger)
}

func TestApplyUpdateReplacesRelations(t *testing.T) {
	existing := storedRegistration()

	plan, err := ApplyUpdate(existing, UpdateRequest{
		UnitRelations: []UnitRelationInput{{UnitID: 20, UnitName: "Loja 20"}, {UnitID: 21, UnitName: "Loja 21"}},
	}, sequence(200), time.Now())
	require.NoError(t, err)

	assert.True(t, plan.ReplaceRelations)
	require.Len(t, plan.Registration.UnitRelations, 2)
	assert.Equal(t, int64(20), plan.Registration.UnitRelations[0].UnitID)
}

func TestApplyUpdateToProductionClearsRelations(t *testing.T) {
	existing := storedRegistration()
	production := false

	plan, err := ApplyUpdate(existing, UpdateRequest{IsTest: &production}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.True(t, plan.ReplaceRelations)
	assert.Empty(t, plan.Registration.UnitRelations)
}

func TestApplyUpdateEnableRequiresClientModeCheck(t *testing.T) {
	existing := storedRegistration()
	existing.Status = false
	enabled := true

	plan, err := ApplyUpdate(existing, UpdateRequest{Status: &enabled}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.True(t, plan.CheckClientMode)
	assert.Equal(t, StateActiveEnabled, plan.Registration.State())
}

func TestApplyUpdateRetire(t *testing.T) {
	existing := storedRegistration()
	inactive := false
	enabled := true

	plan, err := ApplyUpdate(existing, UpdateRequest{IsActive: &inactive, Status: &enabled}, sequence(200), time.Now())
	require.NoError(t, err)
	assert.Equal(t, StateRetired, plan.Registration.State())
	assert.False(t, plan.Registration.Status)
	assert.False(t, plan.CheckClientMode)
}

func TestApplyUpdateRejectsBlankTitle(t *testing.T) {
	blank := " "
	_, err := ApplyUpdate(storedRegistration(), UpdateRequest{Title: &blank}, sequence(200), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTitle)
}
