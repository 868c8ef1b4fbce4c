package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/events"
	"github.com/smallbiznis/mainservice/internal/notification/domain"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"github.com/smallbiznis/mainservice/internal/units"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Clock     clock.Clock
	Listing   *config.ListingConfigHolder
	Units     units.Directory
	Publisher events.Publisher `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	clock     clock.Clock
	listing   *config.ListingConfigHolder
	units     units.Directory
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("notification.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		clock:     p.Clock,
		listing:   p.Listing,
		units:     p.Units,
		publisher: publisher,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreateEnergy(ctx context.Context, req domain.CreateEnergyRequest) (domain.Notification, error) {
	const op = "notification.create_energy"

	subtype := s.listing.Get().Notifications.Subtypes.Energy
	n, conditions, err := domain.NewEnergy(req, subtype, s.genID.Generate, s.clock.Now())
	if err != nil {
		return domain.Notification{}, validationError(op, err)
	}

	return s.create(ctx, op, domain.KindEnergy, req, n, func(tx *gorm.DB) error {
		return s.repo.InsertEnergyConditions(ctx, tx, &conditions)
	})
}

func (s *Service) CreateWater(ctx context.Context, req domain.CreateWaterRequest) (domain.Notification, error) {
	const op = "notification.create_water"

	subtype := s.listing.Get().Notifications.Subtypes.Water
	n, conditions, err := domain.NewWater(req, subtype, s.genID.Generate, s.clock.Now())
	if err != nil {
		return domain.Notification{}, validationError(op, err)
	}

	return s.create(ctx, op, domain.KindWater, req, n, func(tx *gorm.DB) error {
		return s.repo.InsertWaterConditions(ctx, tx, &conditions)
	})
}

func (s *Service) CreateMachineHealth(ctx context.Context, req domain.CreateMachineHealthRequest) (domain.Notification, error) {
	const op = "notification.create_machine_health"

	subtype := s.listing.Get().Notifications.Subtypes.MachineHealth
	n, conditions, err := domain.NewMachineHealth(req, subtype, s.genID.Generate, s.clock.Now())
	if err != nil {
		return domain.Notification{}, validationError(op, err)
	}

	return s.create(ctx, op, domain.KindMachineHealth, req, n, func(tx *gorm.DB) error {
		exists, err := s.repo.HealthIndexExists(ctx, tx, conditions.HealthIndexID)
		if err != nil {
			return err
		}
		if !exists {
			return validationError(op, domain.ErrInvalidHealthIndex)
		}
		return s.repo.InsertMachineHealthConditions(ctx, tx, &conditions)
	})
}

// create writes conditions, the notification and its outbox event in one
// transaction, then publishes the event. Publish failures leave the event
// unpublished and are only logged.
func (s *Service) create(
	ctx context.Context,
	op, kind string,
	params any,
	n domain.Notification,
	insertConditions func(tx *gorm.DB) error,
) (domain.Notification, error) {
	event := domain.NewCreatedEvent(n, kind, s.genID.Generate(), s.clock.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertConditions(tx); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &n); err != nil {
			return err
		}
		return s.repo.InsertEvent(ctx, tx, &event)
	})
	if err != nil {
		if apperror.KindOf(err) != nil {
			return domain.Notification{}, err
		}
		return domain.Notification{}, s.fail(ctx, op, fmt.Sprintf("error creating notification %s", kind), params, err)
	}

	s.metrics.RecordNotificationCreated(ctx, kind)
	s.publish(ctx, event)
	return n, nil
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	log := logger.WithContext(ctx, s.log)

	err := s.publisher.Publish(ctx, events.SubjectNotificationCreated, event.Payload)
	s.metrics.RecordEventPublished(ctx, event.EventType, err == nil)
	if err != nil {
		log.Warn("notification event publish failed",
			zap.String("event_id", event.ID.String()),
			zap.String("notification_id", event.NotificationID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.repo.MarkEventPublished(ctx, s.db, event.ID, s.clock.Now()); err != nil {
		log.Warn("mark notification event published failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) View(ctx context.Context, destinataryID string, notificationID snowflake.ID) (domain.MessageResponse, error) {
	const op = "notification.view"

	destinataryID = strings.TrimSpace(destinataryID)
	if destinataryID == "" {
		return domain.MessageResponse{}, validationError(op, domain.ErrInvalidDestinatary)
	}
	if notificationID <= 0 {
		return domain.MessageResponse{}, validationError(op, domain.ErrInvalidID)
	}

	row, err := s.repo.FindDestinatary(ctx, s.db, destinataryID, notificationID)
	if err != nil {
		return domain.MessageResponse{}, s.fail(ctx, op, "error finding notification", notificationID, err)
	}
	if row == nil {
		return domain.MessageResponse{}, apperror.NotFound(op, "Notification does not exist")
	}

	if err := s.repo.MarkViewed(ctx, s.db, row.ID); err != nil {
		return domain.MessageResponse{}, s.fail(ctx, op, "error viewing notification", notificationID, err)
	}
	if !row.IsViewed {
		s.metrics.RecordNotificationsViewed(ctx, "single", 1)
	}

	return domain.MessageResponse{
		Message: fmt.Sprintf("Notification %s viewed successfully by %s", notificationID, row.DestinataryID),
	}, nil
}

func (s *Service) ViewAll(ctx context.Context, destinataryID string) (domain.MessageResponse, error) {
	const op = "notification.view_all"

	destinataryID = strings.TrimSpace(destinataryID)
	if destinataryID == "" {
		return domain.MessageResponse{}, validationError(op, domain.ErrInvalidDestinatary)
	}

	updated, err := s.repo.MarkAllViewed(ctx, s.db, destinataryID)
	if err != nil {
		return domain.MessageResponse{}, s.fail(ctx, op, "error viewing notifications", nil, err)
	}
	s.metrics.RecordNotificationsViewed(ctx, "all", updated)

	return domain.MessageResponse{Message: "Notifications viewed successfully!"}, nil
}

func (s *Service) CountUnviewed(ctx context.Context, destinataryID string) (int64, error) {
	const op = "notification.count"

	destinataryID = strings.TrimSpace(destinataryID)
	if destinataryID == "" {
		return 0, validationError(op, domain.ErrInvalidDestinatary)
	}

	count, err := s.repo.CountUnviewed(ctx, s.db, destinataryID)
	if err != nil {
		return 0, s.fail(ctx, op, "error counting notifications", nil, err)
	}
	return count, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	const op = "notification.list"

	if strings.TrimSpace(req.Authorization) == "" {
		return domain.ListResponse{}, validationError(op, domain.ErrMissingAuthToken)
	}
	if strings.TrimSpace(req.DestinataryID) == "" {
		return domain.ListResponse{}, validationError(op, domain.ErrInvalidDestinatary)
	}

	listing := s.listing.Get().Notifications
	f, err := domain.NormalizeListFilter(req, listing.Location())
	if err != nil {
		return domain.ListResponse{}, validationError(op, err)
	}

	allowed, err := s.units.ListUnits(ctx, req.Authorization, f.Units)
	if err != nil {
		if apperror.KindOf(err) != nil {
			return domain.ListResponse{}, err
		}
		return domain.ListResponse{}, s.fail(ctx, op, "error getting units list", f.Units, err)
	}

	resp := domain.ListResponse{Notifications: []domain.ListItem{}}
	if len(allowed) == 0 {
		return resp, nil
	}

	query := f.Query(strings.TrimSpace(req.DestinataryID), units.IDs(allowed), listing.PageSize)
	rows, err := s.repo.List(ctx, s.db, query)
	if err != nil {
		return domain.ListResponse{}, s.fail(ctx, op, "error listing notifications", req, err)
	}
	total, err := s.repo.Count(ctx, s.db, query)
	if err != nil {
		return domain.ListResponse{}, s.fail(ctx, op, "error counting notifications", req, err)
	}

	resp.Notifications = domain.BuildListItems(rows, units.Index(allowed))
	resp.TotalItems = total
	return resp, nil
}

func (s *Service) fail(ctx context.Context, op, message string, params any, err error) error {
	logger.WithContext(ctx, s.log).Error(message,
		zap.String("op", op),
		zap.Any("params", redactParams(params)),
		zap.Error(err),
	)
	return apperror.Upstream(op, message, err)
}

// redactParams keeps the bearer token out of logs.
func redactParams(params any) any {
	if req, ok := params.(domain.ListRequest); ok {
		req.Authorization = ""
		return req
	}
	return params
}

var validationMessages = map[error]string{
	domain.ErrDetectionsEmpty:    "Detections is empty",
	domain.ErrInvalidDetection:   "detections need a positive unitId and a dateDetection",
	domain.ErrInvalidDestinatary: "at least one destinatary id is required and none may be blank",
	domain.ErrInvalidHealthIndex: "healthIndex must reference a known machine health index",
	domain.ErrInvalidDateRange:   "dateStart and dateEnd must be YYYY-MM-DD",
	domain.ErrMissingAuthToken:   "no authorization token",
	domain.ErrInvalidID:          "invalid notification id",
}

func validationError(op string, err error) error {
	for sentinel, message := range validationMessages {
		if errors.Is(err, sentinel) {
			return &apperror.Error{Kind: apperror.ErrValidation, Op: op, Message: message, Err: sentinel}
		}
	}
	return err
}
