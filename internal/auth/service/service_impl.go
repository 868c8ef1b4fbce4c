package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/auth/domain"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"github.com/smallbiznis/mainservice/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sessionPath = "/diel-internal/auth/get-user-session"

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Upstream *metrics.UpstreamMetrics `optional:"true"`
}

// Service resolves bearer tokens through the session service.
type Service struct {
	baseURL  string
	http     *http.Client
	log      *zap.Logger
	clock    clock.Clock
	upstream *metrics.UpstreamMetrics
	parser   *jwt.Parser
}

func New(p Params) domain.Service {
	timeout := p.Config.UpstreamTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		baseURL:  strings.TrimRight(p.Config.APIGatewayURL, "/"),
		http:     &http.Client{Timeout: timeout},
		log:      p.Log.Named("auth.service"),
		clock:    p.Clock,
		upstream: p.Upstream,
		parser:   jwt.NewParser(),
	}
}

type sessionRequest struct {
	AuthHeader string `json:"authHeader"`
}

type sessionResponse struct {
	Session          json.RawMessage `json:"session"`
	ExtraSessionData map[string]any  `json:"extraSessionData"`
	RealUserSession  map[string]any  `json:"realUserSession"`
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	const op = "auth.authenticate"

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, unauthorized(op, domain.ErrMissingToken)
	}
	if s.expired(token) {
		return domain.Session{}, unauthorized(op, domain.ErrSessionExpired)
	}

	session, err := s.fetch(ctx, token)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("session lookup failed",
			zap.String("op", op),
			zap.Error(tracing.SafeError(err)),
		)
		return domain.Session{}, unauthorized(op, err)
	}
	return session, nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// Tokens that do not parse are left to the session service.
func (s *Service) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(s.clock.Now())
}

func (s *Service) fetch(ctx context.Context, token string) (session domain.Session, err error) {
	start := time.Now()
	defer func() {
		s.upstream.Observe(metrics.UpstreamSessionService, start, err)
	}()

	body, err := json.Marshal(sessionRequest{AuthHeader: "JWT " + token})
	if err != nil {
		return domain.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+sessionPath, bytes.NewReader(body))
	if err != nil {
		return domain.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := s.http.Do(req)
	if err != nil {
		return domain.Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Session{}, fmt.Errorf("%w: status %d: %s",
			domain.ErrSessionRejected, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if err := json.Unmarshal(payload.Session, &session); err != nil {
		return domain.Session{}, errors.Join(domain.ErrInvalidSession, err)
	}
	session.User = strings.TrimSpace(session.User)
	if session.User == "" {
		return domain.Session{}, domain.ErrInvalidSession
	}
	session.ExtraSessionData = payload.ExtraSessionData
	session.RealUserSession = payload.RealUserSession
	return session, nil
}

func unauthorized(op string, err error) error {
	return &apperror.Error{Kind: apperror.ErrUnauthorized, Op: op, Message: "unauthorized", Err: err}
}
