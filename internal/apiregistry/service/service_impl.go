package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"github.com/smallbiznis/mainservice/internal/apperror"
	auditdomain "github.com/smallbiznis/mainservice/internal/audit/domain"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"github.com/smallbiznis/mainservice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Listing *config.ListingConfigHolder
	Metrics *metrics.Metrics    `optional:"true"`
	Audit   auditdomain.Service `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	listing *config.ListingConfigHolder
	metrics *metrics.Metrics
	audit   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("apiregistry.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		listing: p.Listing,
		metrics: p.Metrics,
		audit:   p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Registration, error) {
	const op = "apiregistry.create"

	registration, err := domain.NewRegistration(req, s.genID.Generate, s.clock.Now())
	if err != nil {
		return domain.Registration{}, validationError(op, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindActiveMatching(ctx, tx, registration.ClientID, registration.TriggerID, registration.Title)
		if err != nil {
			return err
		}
		if conflict := domain.DetectConflict(registration, existing); conflict != nil {
			return conflict
		}
		return s.repo.Insert(ctx, tx, &registration)
	})
	if err != nil {
		return domain.Registration{}, s.writeError(ctx, op, "error creating API registry", req, registration, err)
	}

	s.metrics.RecordRegistryChange(ctx, "create", 1)
	s.recordAudit(ctx, auditActionCreate, registration.ID, map[string]any{
		"client_id": registration.ClientID,
		"title":     registration.Title,
		"is_test":   registration.IsTest,
		"status":    registration.Status,
	})
	return registration, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	const op = "apiregistry.list"

	listing := s.listing.Get().Registry
	query := domain.BuildQuery(domain.NormalizeFilter(req, domain.ListDefaults{
		Page:     listing.DefaultPage,
		Limit:    listing.DefaultLimit,
		MaxLimit: listing.MaxLimit,
	}))

	rows, err := s.repo.List(ctx, s.db, query)
	if err != nil {
		return domain.ListResponse{}, s.readError(ctx, op, "error listing API registries", req, err)
	}
	total, err := s.repo.Count(ctx, s.db, query.Where)
	if err != nil {
		return domain.ListResponse{}, s.readError(ctx, op, "error counting API registries", req, err)
	}

	if query.UnitSort != nil {
		domain.SortByFirstUnit(rows, *query.UnitSort)
	}
	if rows == nil {
		rows = []domain.Registration{}
	}
	return domain.ListResponse{Items: rows, TotalItems: total}, nil
}

func (s *Service) Delete(ctx context.Context, ids []snowflake.ID) (domain.DeleteResponse, error) {
	const op = "apiregistry.delete"

	if len(ids) == 0 {
		return domain.DeleteResponse{}, apperror.Validation(op, "no IDs provided for deletion")
	}

	var (
		existing []snowflake.ID
		retired  int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		existing, err = s.repo.FindExistingIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return apperror.NotFound(op, "no APIs found for the provided IDs")
		}
		retired, err = s.repo.Retire(ctx, tx, existing, s.clock.Now())
		return err
	})
	if err != nil {
		return domain.DeleteResponse{}, s.writeError(ctx, op, "error deleting APIs", ids, domain.Registration{}, err)
	}

	s.metrics.RecordRegistryChange(ctx, "delete", retired)
	for _, id := range existing {
		s.recordAudit(ctx, auditActionDelete, id, nil)
	}
	return domain.DeleteResponse{
		Message:    fmt.Sprintf("%d APIs deleted successfully", retired),
		DeletedIDs: existing,
	}, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (domain.Registration, error) {
	const op = "apiregistry.update"

	if id <= 0 {
		return domain.Registration{}, validationError(op, domain.ErrInvalidID)
	}

	var updated domain.Registration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindActiveByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NotFound(op, fmt.Sprintf("API registry with ID %s not found", id))
		}

		plan, err := domain.ApplyUpdate(*existing, req, s.genID.Generate, s.clock.Now())
		if err != nil {
			return validationError(op, err)
		}

		if plan.CheckClientMode {
			other, err := s.repo.FindActiveEnabledForClient(ctx, tx, plan.Registration.ClientID, plan.Registration.IsTest, id)
			if err != nil {
				return err
			}
			if conflict := domain.ClientModeConflict(plan.Registration.IsTest, other); conflict != nil {
				return conflict
			}
		}
		if plan.CheckTrigger {
			holder, err := s.repo.FindActiveTriggerHolder(ctx, tx, plan.Registration.TriggerID, plan.Registration.ClientID, id)
			if err != nil {
				return err
			}
			if conflict := domain.TriggerConflict(holder); conflict != nil {
				return conflict
			}
		}

		updated = plan.Registration
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return err
		}
		if plan.ReplaceRelations {
			if err := s.repo.ReplaceUnitRelations(ctx, tx, id, updated.UnitRelations); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Registration{}, s.writeError(ctx, op, fmt.Sprintf("error updating API registry with ID %s", id), req, updated, err)
	}

	s.metrics.RecordRegistryChange(ctx, "update", 1)
	s.recordAudit(ctx, auditActionUpdate, updated.ID, map[string]any{
		"client_id": updated.ClientID,
		"title":     updated.Title,
		"is_test":   updated.IsTest,
		"is_active": updated.IsActive,
		"status":    updated.Status,
	})
	return updated, nil
}

func (s *Service) ComboOptions(ctx context.Context) (domain.ComboOptions, error) {
	rows, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return domain.ComboOptions{}, s.readError(ctx, "apiregistry.combo_options", "error getting API combo options", nil, err)
	}
	return domain.BuildComboOptions(rows), nil
}

const (
	auditTargetRegistration = "api_registry"
	auditActionCreate       = "api_registry.create"
	auditActionUpdate       = "api_registry.update"
	auditActionDelete       = "api_registry.delete"
)

// recordAudit writes the audit trail entry for a committed change. A failed
// write is logged by the audit service and does not fail the change.
func (s *Service) recordAudit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.AuditLog(ctx, action, auditTargetRegistration, id.String(), metadata)
}

// writeError maps a failed write. Already classified errors pass through,
// rule violations and storage uniqueness violations become conflicts, and
// anything else is logged and wrapped.
func (s *Service) writeError(ctx context.Context, op, message string, params any, candidate domain.Registration, err error) error {
	if apperror.KindOf(err) != nil {
		return err
	}

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) && db.IsDuplicateKeyErr(err) {
		conflict = conflictFromConstraint(err, candidate)
	}
	if conflict != nil {
		s.metrics.RecordRegistryConflict(ctx, string(conflict.Rule))
		return apperror.Conflict(op, conflict.Message)
	}

	return s.readError(ctx, op, message, params, err)
}

func (s *Service) readError(ctx context.Context, op, message string, params any, err error) error {
	logger.WithContext(ctx, s.log).Error(message,
		zap.String("op", op),
		zap.Any("params", params),
		zap.Error(err),
	)
	return apperror.Upstream(op, message, err)
}

func conflictFromConstraint(err error, candidate domain.Registration) *domain.ConflictError {
	name := db.ConstraintName(err)
	if name == "" {
		name = err.Error()
	}
	if strings.Contains(name, "title") {
		return &domain.ConflictError{Rule: domain.RuleTitle, Message: "API name already in use"}
	}
	return domain.ClientModeConflict(candidate.IsTest, &candidate)
}

var validationMessages = map[error]string{
	domain.ErrInvalidClientID:        "clientId must be a positive integer",
	domain.ErrInvalidClientName:      "clientName is required",
	domain.ErrInvalidTitle:           "title is required",
	domain.ErrInvalidTriggerID:       "triggerId is required",
	domain.ErrInvalidNotifyCondition: "notifyCondition must be HEALTH_INDEX",
	domain.ErrInvalidHealthStatus:    "healthStatus must be one of RED, RED_OR_ORANGE, NOT_GREEN",
	domain.ErrInvalidIntegrationType: "integrationType must be one of GOOGLE, CELSIUS",
	domain.ErrInvalidUnitRelation:    "unitRelations entries need a positive unitId and a unitName",
	domain.ErrInvalidID:              "invalid API registry id",
}

func validationError(op string, err error) error {
	for sentinel, message := range validationMessages {
		if errors.Is(err, sentinel) {
			return &apperror.Error{Kind: apperror.ErrValidation, Op: op, Message: message, Err: sentinel}
		}
	}
	return err
}
