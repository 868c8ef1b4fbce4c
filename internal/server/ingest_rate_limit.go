package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/mainservice/internal/observability/metrics"
	"go.uber.org/zap"
)

const rateLimitReasonIPRate = "ip-rate"

// NotificationIngestRateLimit throttles the unauthenticated notification
// producers per client IP. It is a no-op when no limiter is configured.
func (s *Server) NotificationIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.ingestLimiter == nil || !s.ingestLimiter.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		result, err := s.ingestLimiter.AllowIP(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("notification ingest rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result == nil || !result.Allowed {
			var retryAfter time.Duration
			if result != nil {
				retryAfter = result.RetryAfter
			}
			denyNotificationIngest(c, endpoint, rateLimitReasonIPRate, retryAfter, s.obsMetrics)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}

func denyNotificationIngest(c *gin.Context, endpoint, reason string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("notification ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)

	c.Header("Retry-After", retryAfterSeconds(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
