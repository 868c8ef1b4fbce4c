package units

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

	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/observability/logger"
	"github.com/smallbiznis/mainservice/internal/observability/metrics"
	"github.com/smallbiznis/mainservice/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const listUnitsPath = "mainservice/get-units-list"

const errListUnits = "error getting units list"

// ErrUnavailable marks failures of the directory itself, as opposed to
// local failures while calling it.
var ErrUnavailable = errors.New("unit_directory_unavailable")

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Upstream *metrics.UpstreamMetrics `optional:"true"`
}

// Client calls the unit directory over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	log      *zap.Logger
	upstream *metrics.UpstreamMetrics
}

func NewClient(p Params) Directory {
	return newClient(p.Config.APIServerURL, p.Config.UpstreamTimeout, p.Log, p.Upstream)
}

func newClient(baseURL string, timeout time.Duration, log *zap.Logger, upstream *metrics.UpstreamMetrics) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		log:      log.Named("units.client"),
		upstream: upstream,
	}
}

// ListUnits forwards authorization verbatim. The base URL is joined without
// a separator, matching how API_SERVER_URL is configured.
func (c *Client) ListUnits(ctx context.Context, authorization string, filter Filter) (list []Unit, err error) {
	const op = "units.list"

	start := time.Now()
	defer func() {
		c.upstream.Observe(metrics.UpstreamUnitDirectory, start, err)
	}()

	body, err := json.Marshal(filter)
	if err != nil {
		return nil, apperror.Upstream(op, errListUnits, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listUnitsPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.Upstream(op, errListUnits, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization)
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(ctx, op, filter, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, c.fail(ctx, op, filter, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, c.fail(ctx, op, filter, fmt.Errorf("decode units: %w", err))
	}
	return list, nil
}

func (c *Client) fail(ctx context.Context, op string, filter Filter, err error) error {
	logger.WithContext(ctx, c.log).Error(errListUnits,
		zap.String("op", op),
		zap.Any("params", filter),
		zap.Error(tracing.SafeError(err)),
	)
	return apperror.Upstream(op, errListUnits, errors.Join(ErrUnavailable, err))
}

var Module = fx.Module("units",
	fx.Provide(NewClient),
)
