package metrics

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/mainservice/internal/apperror"
)

const (
	UpstreamSessionService = "session_service"
	UpstreamUnitDirectory  = "unit_directory"
	UpstreamEventBus       = "event_bus"
)

const (
	UpstreamReasonDeadlineExceeded = "deadline_exceeded"
	UpstreamReasonCanceled         = "canceled"
	UpstreamReasonUnauthorized     = "unauthorized"
	UpstreamReasonTransport        = "transport"
	UpstreamReasonBadResponse      = "bad_response"
	UpstreamReasonUnknown          = "unknown"
)

// UpstreamMetrics tracks calls to collaborators this service depends on.
// It is exported on /metrics through the default prometheus registry.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

var (
	upstreamMetricsOnce sync.Once
	upstreamMetrics     *UpstreamMetrics
)

// Upstream returns the process-wide upstream metrics registry.
func Upstream(cfg Config) *UpstreamMetrics {
	upstreamMetricsOnce.Do(func() {
		upstreamMetrics = newUpstreamMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return upstreamMetrics
}

func newUpstreamMetrics(registerer prometheus.Registerer, cfg Config) *UpstreamMetrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "mainservice"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "mainservice_upstream_duration_seconds",
		Help:        "Latency of calls to upstream collaborators.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"upstream"})
	errorsVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "mainservice_upstream_errors_total",
		Help:        "Failed upstream calls by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"upstream", "reason"})

	registerer.MustRegister(duration, errorsVec)

	return &UpstreamMetrics{
		duration: duration,
		errors:   errorsVec,
	}
}

// Observe records the outcome of one upstream call started at start.
func (m *UpstreamMetrics) Observe(upstream string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(upstream, ClassifyUpstreamError(err)).Inc()
	}
}

// ClassifyUpstreamError maps an upstream failure to a metric reason.
func ClassifyUpstreamError(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return UpstreamReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return UpstreamReasonCanceled
	case errors.Is(err, apperror.ErrUnauthorized):
		return UpstreamReasonUnauthorized
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return UpstreamReasonDeadlineExceeded
		}
		return UpstreamReasonTransport
	case errors.Is(err, apperror.ErrUpstream):
		return UpstreamReasonBadResponse
	default:
		return UpstreamReasonUnknown
	}
}
