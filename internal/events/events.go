// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const SubjectNotificationCreated = "notifications.created"

var ErrPublisherClosed = errors.New("publisher_closed")

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NATSPublisher publishes JSON payloads on a core NATS connection.
type NATSPublisher struct {
	conn     *nats.Conn
	upstream *metrics.UpstreamMetrics
}

func NewNATSPublisher(url string, upstream *metrics.UpstreamMetrics) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("mainservice"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, upstream: upstream}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) (err error) {
	start := time.Now()
	defer func() {
		p.upstream.Observe(metrics.UpstreamEventBus, start, err)
	}()

	if p.conn == nil || p.conn.IsClosed() {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	p.conn.Close()
	return err
}

// Noop drops every event. It is used when NATS_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Upstream  *metrics.UpstreamMetrics `optional:"true"`
}

func NewPublisher(p Params) (Publisher, error) {
	url := strings.TrimSpace(p.Config.NATSURL)
	if url == "" {
		p.Log.Info("event publishing disabled: NATS_URL not set")
		return Noop{}, nil
	}

	pub, err := NewNATSPublisher(url, p.Upstream)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	p.Log.Info("event publisher connected", zap.String("url", url))
	return pub, nil
}

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)
