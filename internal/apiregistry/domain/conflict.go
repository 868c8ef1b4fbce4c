package domain

import "fmt"

type ConflictRule string

const (
	RuleClientMode ConflictRule = "client_mode"
	RuleTriggerID  ConflictRule = "trigger_id"
	RuleTitle      ConflictRule = "title"
)

// ConflictError is a violated registration rule. Message is safe to show.
type ConflictError struct {
	Rule    ConflictRule
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func triggerConflict() *ConflictError {
	return &ConflictError{Rule: RuleTriggerID, Message: "trigger id already used by another client"}
}

func clientModeConflict(isTest bool) *ConflictError {
	mode := "production"
	if isTest {
		mode = "test"
	}
	return &ConflictError{
		Rule:    RuleClientMode,
		Message: fmt.Sprintf("an active API already exists for this client in %s mode", mode),
	}
}

// DetectConflict checks candidate against existing active rows. Rows are
// visited in order and each row is checked against the client-mode, trigger
// and title rules in that order; the first violation is returned.
func DetectConflict(candidate Registration, existing []Registration) *ConflictError {
	for _, row := range existing {
		if row.ID != 0 && row.ID == candidate.ID {
			continue
		}
		if row.ClientID == candidate.ClientID && row.Status && row.IsTest == candidate.IsTest {
			return clientModeConflict(candidate.IsTest)
		}
		if row.TriggerID == candidate.TriggerID && row.ClientID != candidate.ClientID {
			return triggerConflict()
		}
		if row.Title == candidate.Title {
			return &ConflictError{Rule: RuleTitle, Message: "API name already in use"}
		}
	}
	return nil
}

// ClientModeConflict reports the client-mode rule alone, for enabling an
// existing registration. other is the active+enabled row of the same client
// and mode, if any.
func ClientModeConflict(isTest bool, other *Registration) *ConflictError {
	if other == nil {
		return nil
	}
	return clientModeConflict(isTest)
}

// TriggerConflict reports the trigger rule alone, for updates that move a
// registration to another trigger or client. other is an active row of a
// different client holding the trigger, if any.
func TriggerConflict(other *Registration) *ConflictError {
	if other == nil {
		return nil
	}
	return triggerConflict()
}
