// Package relay republishes notification events whose inline publish failed.
package relay

import (
	"context"
	"time"

	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/events"
	"github.com/smallbiznis/mainservice/internal/notification/domain"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"github.com/smallbiznis/mainservice/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const lockKey = "notifications:outbox:relay"

type Config struct {
	Interval time.Duration
	Batch    int
	// Grace skips events younger than this; their inline publish may still be running.
	Grace time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Batch <= 0 {
		c.Batch = 100
	}
	if c.Grace <= 0 {
		c.Grace = 30 * time.Second
	}
	return c
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Clock     clock.Clock
	Publisher events.Publisher  `optional:"true"`
	Locker    *ratelimit.Locker `optional:"true"`
	Metrics   *metrics.Metrics  `optional:"true"`
	Config    Config            `optional:"true"`
}

type Relay struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	clock     clock.Clock
	publisher events.Publisher
	locker    *ratelimit.Locker
	metrics   *metrics.Metrics
	cfg       Config
}

func New(p Params) *Relay {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Relay{
		db:        p.DB,
		log:       p.Log.Named("notification.relay"),
		repo:      p.Repo,
		clock:     p.Clock,
		publisher: publisher,
		locker:    p.Locker,
		metrics:   p.Metrics,
		cfg:       p.Config.withDefaults(),
	}
}

// RunOnce publishes one batch and returns how many events were published.
// With a locker configured only one replica relays at a time.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r.locker != nil {
		token, ok, err := r.locker.TryLock(ctx, lockKey, r.cfg.Interval)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
				r.log.Warn("release relay lock failed", zap.Error(err))
			}
		}()
	}

	pending, err := r.repo.ListUnpublishedEvents(ctx, r.db, r.clock.Now().Add(-r.cfg.Grace), r.cfg.Batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range pending {
		err := r.publisher.Publish(ctx, events.SubjectNotificationCreated, event.Payload)
		r.metrics.RecordEventPublished(ctx, event.EventType, err == nil)
		if err != nil {
			// Keep order: later events wait for the next run.
			return published, err
		}
		if err := r.repo.MarkEventPublished(ctx, r.db, event.ID, r.clock.Now()); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (r *Relay) RunForever(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		n, err := r.RunOnce(ctx)
		if err != nil {
			r.log.Warn("outbox relay run failed", zap.Int("published", n), zap.Error(err))
		} else if n > 0 {
			r.log.Info("outbox relay published events", zap.Int("published", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func Start(lc fx.Lifecycle, r *Relay) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				r.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("notification.relay",
	fx.Provide(New),
	fx.Invoke(Start),
)
