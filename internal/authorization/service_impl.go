package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/mainservice/internal/apperror"
	authdomain "github.com/smallbiznis/mainservice/internal/auth/domain"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and seeds the
// built-in role policies.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, session authdomain.Session, object string, action string) error {
	const op = "authorization.authorize"

	user := strings.TrimSpace(session.User)
	if user == "" {
		return forbidden(op, ErrInvalidActor)
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return forbidden(op, ErrInvalidObject)
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return forbidden(op, ErrInvalidAction)
	}

	subject := "user:" + user
	if err := s.ensureGrouping(subject, roleFor(session)); err != nil {
		return apperror.Upstream(op, "error resolving role", err)
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return apperror.Upstream(op, "error evaluating policy", err)
	}
	if !allowed {
		logger.WithContext(ctx, s.log).Info("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return forbidden(op, ErrForbidden)
	}
	return nil
}

func roleFor(session authdomain.Session) string {
	if session.IsAdmin() {
		return RoleAdmin
	}
	return RoleUser
}

// ensureGrouping keeps exactly one role link per subject. Session
// permissions can change between requests, so stale links are removed.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func forbidden(op string, err error) error {
	return &apperror.Error{Kind: apperror.ErrForbidden, Op: op, Message: "forbidden", Err: err}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{RoleAdmin, ObjectAPIRegistry, ActionAPIRegistryCreate},
		{RoleAdmin, ObjectAPIRegistry, ActionAPIRegistryView},
		{RoleAdmin, ObjectAPIRegistry, ActionAPIRegistryUpdate},
		{RoleAdmin, ObjectAPIRegistry, ActionAPIRegistryDelete},
		{RoleAdmin, ObjectNotification, ActionNotificationView},

		{RoleUser, ObjectAPIRegistry, ActionAPIRegistryView},
		{RoleUser, ObjectNotification, ActionNotificationView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
