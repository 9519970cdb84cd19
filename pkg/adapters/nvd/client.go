package nvd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "vulnd/1.0"

// Config holds NVD client configuration
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	InitialBackoff time.Duration

	// RateLimitRequests per RateLimitPeriod, enforced client-side
	RateLimitRequests float64
	RateLimitPeriod   time.Duration
}

// Client queries the NVD CVE 2.0 API with client-side rate limiting and
// retry on transient upstream failures.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// NewClient creates a new NVD API client
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	limit := rate.Limit(cfg.RateLimitRequests / cfg.RateLimitPeriod.Seconds())

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		logger:         logger,
	}
}

// Search runs a keyword search against NVD and returns the parsed CVE
// records. An empty slice with a nil error means no records matched.
func (c *Client) Search(ctx context.Context, keyword string) ([]CVE, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	apiURL := fmt.Sprintf("%s?keywordSearch=%s", c.baseURL, url.QueryEscape(keyword))

	body, err := c.getWithRetry(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		// upstream 404, treated as no match
		return nil, nil
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal NVD response: %w", err)
	}

	records := make([]CVE, 0, len(resp.Vulnerabilities))
	for _, vuln := range resp.Vulnerabilities {
		score, severity, vector := vuln.CVE.bestMetric()

		record := CVE{
			ID:           vuln.CVE.ID,
			Description:  vuln.CVE.englishDescription(),
			Score:        score,
			Severity:     severity,
			Vector:       vector,
			Published:    vuln.CVE.Published,
			LastModified: vuln.CVE.LastModified,
		}
		if vuln.CVE.CisaExploitAdd != nil {
			record.CisaExploitAdd = *vuln.CVE.CisaExploitAdd
		}
		records = append(records, record)
	}

	c.logger.Debug("NVD search complete",
		zap.String("keyword", keyword),
		zap.Int("total_results", resp.TotalResults),
		zap.Int("records", len(records)))

	return records, nil
}

// getWithRetry performs the HTTP GET, retrying on 429/403/5xx and network
// errors with exponential backoff. A 404 returns (nil, nil); other 4xx
// statuses fail without retry.
func (c *Client) getWithRetry(ctx context.Context, apiURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if attempt > 0 {
			backoff := time.Duration(float64(c.initialBackoff) * math.Pow(2, float64(attempt-1)))
			c.logger.Warn("retrying NVD request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.doRequest(ctx, apiURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("retries exceeded after %d attempts: %w", c.maxRetries+1, lastErr)
}

var errNotFound = errors.New("not found")

func (c *Client) doRequest(ctx context.Context, apiURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Add("apiKey", c.apiKey)
	}
	req.Header.Add("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request execution: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to body read
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, true, fmt.Errorf("retryable NVD API error (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("NVD server error (status %d)", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("non-retryable NVD client error (status %d)", resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("read response body: %w", readErr)
	}

	return body, false, nil
}
