package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeRow(id int64, clientID int64, trigger, title string, isTest, status bool) Registration {
	return Registration{
		ID:        idOf(id),
		ClientID:  clientID,
		TriggerID: trigger,
		Title:     title,
		IsTest:    isTest,
		Status:    status,
		IsActive:  true,
	}
}

func TestDetectConflictClientMode(t *testing.T) {
	existing := []Registration{activeRow(1, 7, "T1", "Foo", true, true)}

	got := DetectConflict(Registration{ClientID: 7, TriggerID: "T2", Title: "Bar", IsTest: true}, existing)
	require.NotNil(t, got)
	assert.Equal(t, RuleClientMode, got.Rule)
	assert.Equal(t, "an active API already exists for this client in test mode", got.Message)

	got = DetectConflict(Registration{ClientID: 7, TriggerID: "T2", Title: "Bar", IsTest: false},
		[]Registration{activeRow(1, 7, "T1", "Foo", false, true)})
	require.NotNil(t, got)
	assert.Equal(t, "an active API already exists for this client in production mode", got.Message)
}

func TestDetectConflictIgnoresDisabledSameMode(t *testing.T) {
	existing := []Registration{activeRow(1, 7, "T1", "Foo", true, false)}
	assert.Nil(t, DetectConflict(Registration{ClientID: 7, TriggerID: "T1", Title: "Bar", IsTest: true}, existing))
}

func TestDetectConflictTrigger(t *testing.T) {
	existing := []Registration{activeRow(1, 7, "T1", "Foo", true, true)}

	got := DetectConflict(Registration{ClientID: 8, TriggerID: "T1", Title: "Bar", IsTest: true}, existing)
	require.NotNil(t, got)
	assert.Equal(t, RuleTriggerID, got.Rule)
	assert.Equal(t, "trigger id already used by another client", got.Message)

	// Same client may reuse its own trigger in the other mode.
	assert.Nil(t, DetectConflict(Registration{ClientID: 7, TriggerID: "T1", Title: "Bar", IsTest: false}, existing))
}

func TestDetectConflictTitle(t *testing.T) {
	existing := []Registration{activeRow(1, 9, "T9", "Foo", true, true)}

	got := DetectConflict(Registration{ClientID: 7, TriggerID: "T1", Title: "Foo"}, existing)
	require.NotNil(t, got)
	assert.Equal(t, RuleTitle, got.Rule)
	assert.Equal(t, "API name already in use", got.Message)
}

func TestDetectConflictFirstRowWins(t *testing.T) {
	existing := []Registration{
		activeRow(1, 9, "T9", "Foo", false, true),
		activeRow(2, 7, "T7", "Other", true, true),
	}
	got := DetectConflict(Registration{ClientID: 7, TriggerID: "T1", Title: "Foo", IsTest: true}, existing)
	require.NotNil(t, got)
	assert.Equal(t, RuleTitle, got.Rule)
}

func TestDetectConflictSkipsSelf(t *testing.T) {
	row := activeRow(1, 7, "T1", "Foo", true, true)
	assert.Nil(t, DetectConflict(row, []Registration{row}))
}

func TestClientModeConflict(t *testing.T) {
	assert.Nil(t, ClientModeConflict(true, nil))

	other := activeRow(2, 7, "T2", "Bar", false, true)
	got := ClientModeConflict(false, &other)
	require.NotNil(t, got)
	assert.Equal(t, RuleClientMode, got.Rule)
	assert.Equal(t, "an active API already exists for this client in production mode", got.Error())
}

func TestTriggerConflict(t *testing.T) {
	assert.Nil(t, TriggerConflict(nil))

	holder := activeRow(3, 1, "X", "Alpha", false, true)
	got := TriggerConflict(&holder)
	require.NotNil(t, got)
	assert.Equal(t, RuleTriggerID, got.Rule)
	assert.Equal(t, "trigger id already used by another client", got.Error())
}
