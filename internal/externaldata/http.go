package externaldata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/logging"
)

// HTTPConfig configures the HTTP-backed Provider.
type HTTPConfig struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultHTTPConfig returns the provider's defaults: 10s timeout, up to 3
// retries after the first attempt, backoff from 500ms doubling up to 10s.
// These differ from matrix.DefaultAPIClientConfig, whose MaxBackoff is 8s
// and whose MaxRetries counts attempts in total.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// conditionsResponse is the wire shape returned by the external
// traffic/weather backend for a batch of location ids.
type conditionsResponse struct {
	Traffic    map[string]float64 `json:"traffic_factors"`
	Weather    map[string]float64 `json:"weather_impact"`
	Roadblocks [][2]string        `json:"roadblocks"`
}

// HTTP is a Provider backed by a remote traffic/weather/roadblock service.
// On persistent failure after retries it falls back to an internal Mock,
// the same resilience policy the matrix builder applies to its own API path.
type HTTP struct {
	httpClient *http.Client
	cfg        HTTPConfig
	fallback   *Mock
}

// NewHTTP builds an HTTP provider, falling back to an empty Mock on
// persistent failure.
func NewHTTP(cfg HTTPConfig) *HTTP {
	return &HTTP{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		fallback:   NewMock(),
	}
}

// TrafficFactors implements Provider.
func (h *HTTP) TrafficFactors(ctx context.Context, locationIDs []string) (map[string]float64, error) {
	resp, err := h.fetch(ctx, locationIDs)
	if err != nil {
		logging.Warn("external data traffic fetch failed, falling back to mock", "error", err)
		return h.fallback.Traffic, nil
	}
	return resp.Traffic, nil
}

// WeatherImpact implements Provider.
func (h *HTTP) WeatherImpact(ctx context.Context, locationIDs []string) (map[string]WeatherImpact, error) {
	resp, err := h.fetch(ctx, locationIDs)
	if err != nil {
		logging.Warn("external data weather fetch failed, falling back to mock", "error", err)
		return h.fallback.Weather, nil
	}
	return resp.Weather, nil
}

// Roadblocks implements Provider.
func (h *HTTP) Roadblocks(ctx context.Context, locationIDs []string) ([][2]string, error) {
	resp, err := h.fetch(ctx, locationIDs)
	if err != nil {
		logging.Warn("external data roadblock fetch failed, falling back to mock", "error", err)
		return h.fallback.Blocked, nil
	}
	return resp.Roadblocks, nil
}

func (h *HTTP) fetch(ctx context.Context, locationIDs []string) (*conditionsResponse, error) {
	var lastErr error
	delay := h.cfg.InitialBackoff

	for attempt := 0; attempt <= h.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(delay) + 1))
			select {
			case <-time.After(delay + jitter/2):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay = time.Duration(float64(delay) * h.cfg.BackoffMultiplier)
			if delay > h.cfg.MaxBackoff {
				delay = h.cfg.MaxBackoff
			}
		}

		resp, retryable, err := h.send(ctx, locationIDs)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logging.Warn("external data request failed, retrying", "attempt", attempt+1, "error", err)
	}

	return nil, apperror.Wrap(lastErr, apperror.CodeExternalDataFailed, "external data request failed")
}

func (h *HTTP) send(ctx context.Context, locationIDs []string) (*conditionsResponse, bool, error) {
	u := h.cfg.BaseURL + "/conditions?" + url.Values{"location_ids": []string{strings.Join(locationIDs, ",")}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}

	httpResp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("external data service returned status %d", httpResp.StatusCode)
	}
	if httpResp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("external data service returned status %d", httpResp.StatusCode)
	}

	var decoded conditionsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, false, err
	}
	return &decoded, false, nil
}

var _ Provider = (*HTTP)(nil)
