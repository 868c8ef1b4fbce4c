package domain

import (
	"context"
	"errors"
	"strings"
)

// Session is the caller identity resolved by the session service.
type Session struct {
	// User is the recipient id used by notifications.
	User             string         `json:"user"`
	Permissions      Permissions    `json:"permissions"`
	ExtraSessionData map[string]any `json:"extraSessionData,omitempty"`
	RealUserSession  map[string]any `json:"realUserSession,omitempty"`
}

// Permissions holds global profile claims such as isAdminSistema.
type Permissions map[string]any

// Has reports whether the claim is present and true.
func (p Permissions) Has(name string) bool {
	switch v := p[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

const (
	PermissionAdminSistema      = "isAdminSistema"
	PermissionManageAPIRegistry = "manageApiRegistry"
)

// IsAdmin reports whether the session may manage api registries.
func (s Session) IsAdmin() bool {
	return s.Permissions.Has(PermissionAdminSistema) || s.Permissions.Has(PermissionManageAPIRegistry)
}

type Service interface {
	// Authenticate resolves a bearer token to a session.
	Authenticate(ctx context.Context, token string) (Session, error)
}

var (
	ErrMissingToken    = errors.New("missing_token")
	ErrSessionExpired  = errors.New("session_expired")
	ErrInvalidSession  = errors.New("invalid_session")
	ErrSessionRejected = errors.New("session_rejected")
)
