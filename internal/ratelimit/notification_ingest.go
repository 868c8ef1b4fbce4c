package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/mainservice/internal/config"
)

const keyNotificationIngestIP = "notifications:ingest:ip:%s"

// NotificationIngestLimiter throttles notification producers per client IP.
// A nil limiter allows everything.
type NotificationIngestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewNotificationIngestLimiter(cfg config.Config, client *redis.Client) (*NotificationIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.NotificationIngestRate <= 0 || limitCfg.NotificationIngestBurst <= 0 {
		return nil, errors.New("notification ingest rate limit must be positive")
	}

	return &NotificationIngestLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.NotificationIngestRate,
		burst:  limitCfg.NotificationIngestBurst,
	}, nil
}

func (l *NotificationIngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *NotificationIngestLimiter) AllowIP(ctx context.Context, ip string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyNotificationIngestIP, strings.TrimSpace(ip)), l.rate, l.burst)
}
