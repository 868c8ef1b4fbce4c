package authorization

import (
	"context"
	"errors"

	authdomain "github.com/smallbiznis/mainservice/internal/auth/domain"
)

const (
	ObjectAPIRegistry  = "api_registry"
	ObjectNotification = "notification"
)

const (
	ActionAPIRegistryCreate = "api_registry.create"
	ActionAPIRegistryView   = "api_registry.view"
	ActionAPIRegistryUpdate = "api_registry.update"
	ActionAPIRegistryDelete = "api_registry.delete"

	ActionNotificationView = "notification.view"
)

const (
	RoleAdmin = "role:admin"
	RoleUser  = "role:user"
)

type Service interface {
	// Authorize returns nil when the session may perform action on object.
	Authorize(ctx context.Context, session authdomain.Session, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
