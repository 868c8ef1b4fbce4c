package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	ListByTarget(ctx context.Context, db *gorm.DB, targetType, targetID string) ([]AuditLog, error)
}

type Service interface {
	// AuditLog records action on a target. The actor is taken from the
	// request context.
	AuditLog(ctx context.Context, action string, targetType string, targetID string, metadata map[string]any) error
}

var ErrInvalidAction = errors.New("invalid_action")
