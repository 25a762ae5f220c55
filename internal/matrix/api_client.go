package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/domain"
	logger "github.com/routingcore/routingcore/internal/logging"
)

// maxElementsPerRequest caps origins*destinations per routing-API call, the
// same element budget the upstream Distance Matrix API enforces.
const maxElementsPerRequest = 100

// APIClientConfig configures the external routing/traffic API client.
type APIClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultAPIClientConfig returns sane defaults for a routing API client.
func DefaultAPIClientConfig() *APIClientConfig {
	return &APIClientConfig{
		BaseURL:           "https://maps.googleapis.com/maps/api/distancematrix/json",
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// APIClient is an HTTP/JSON client for a Google-Distance-Matrix-API-shaped
// routing service, with request batching and exponential backoff retry.
type APIClient struct {
	httpClient *http.Client
	cfg        APIClientConfig
}

// NewAPIClient creates an APIClient. A nil cfg falls back to
// DefaultAPIClientConfig.
func NewAPIClient(cfg *APIClientConfig) *APIClient {
	if cfg == nil {
		cfg = DefaultAPIClientConfig()
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        *cfg,
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// FetchMatrices queries the routing API for the full distance and time
// matrices across locations, batching origins so that each request stays
// within maxElementsPerRequest. With more than maxElementsPerRequest
// locations each request carries one origin against every destination and
// so exceeds that budget.
func (c *APIClient) FetchMatrices(ctx context.Context, locations []domain.Location) (distance, timeMat [][]float64, err error) {
	n := len(locations)
	distance = make([][]float64, n)
	timeMat = make([][]float64, n)
	for i := range distance {
		distance[i] = make([]float64, n)
		timeMat[i] = make([]float64, n)
	}

	addresses := make([]string, n)
	for i, loc := range locations {
		addresses[i] = formatLatLon(loc.Latitude, loc.Longitude)
	}

	originsPerBatch := maxElementsPerRequest / n
	if originsPerBatch < 1 {
		originsPerBatch = 1
	}

	for start := 0; start < n; start += originsPerBatch {
		end := start + originsPerBatch
		if end > n {
			end = n
		}

		resp, err := c.sendWithRetry(ctx, addresses[start:end], addresses)
		if err != nil {
			return nil, nil, apperror.Wrap(err, apperror.CodeExternalDataFailed, "routing API request failed")
		}

		if err := applyBatchResponse(resp, distance, timeMat, start); err != nil {
			return nil, nil, err
		}
	}

	return distance, timeMat, nil
}

func applyBatchResponse(resp *matrixResponse, distance, timeMat [][]float64, rowOffset int) error {
	if resp.Status != "" && resp.Status != "OK" {
		return apperror.New(apperror.CodeExternalDataFailed, "routing API returned non-OK status").
			WithDetails("status", resp.Status)
	}

	for i, row := range resp.Rows {
		for j, elem := range row.Elements {
			r := rowOffset + i
			if r >= len(distance) || j >= len(distance[r]) {
				continue
			}
			if elem.Status != "OK" {
				distance[r][j] = domain.MaxSafeDistance
				timeMat[r][j] = domain.MaxSafeTime
				continue
			}
			distance[r][j] = domain.SanitizeDistance(elem.Distance.Value / 1000.0)
			timeMat[r][j] = domain.SanitizeTime(elem.Duration.Value / 60.0)
		}
	}
	return nil
}

// sendWithRetry issues one batch request, retrying with exponential backoff
// after any failure (network errors, every non-200 status including 401/403,
// undecodable bodies, OVER_QUERY_LIMIT) until MaxRetries attempts are spent;
// no status ends the retries early.
func (c *APIClient) sendWithRetry(ctx context.Context, origins, destinations []string) (*matrixResponse, error) {
	backoff := c.cfg.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	multiplier := c.cfg.BackoffMultiplier
	if multiplier <= 1 {
		multiplier = 2.0
	}
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff
			for i := 0; i < attempt-1; i++ {
				delay = time.Duration(float64(delay) * multiplier)
			}
			if c.cfg.MaxBackoff > 0 && delay > c.cfg.MaxBackoff {
				delay = c.cfg.MaxBackoff
			}
			jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay + jitter):
			}
		}

		resp, err := c.send(ctx, origins, destinations)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Warn("routing API request failed, retrying", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *APIClient) send(ctx context.Context, origins, destinations []string) (*matrixResponse, error) {
	q := url.Values{}
	q.Set("origins", strings.Join(origins, "|"))
	q.Set("destinations", strings.Join(destinations, "|"))
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	reqURL := c.cfg.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("routing API returned status %d", httpResp.StatusCode)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing API returned status %d: %s", httpResp.StatusCode, string(body))
	}

	var parsed matrixResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding routing API response: %w", err)
	}

	if parsed.Status == "OVER_QUERY_LIMIT" {
		return nil, fmt.Errorf("routing API over query limit")
	}

	return &parsed, nil
}

func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}
