// Package epss queries the FIRST.org EPSS API for exploit prediction
// scores.
package epss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The EPSS API accepts comma-separated CVE lists; keep requests bounded.
const maxCVEsPerRequest = 100

// Score holds the EPSS probability and percentile for one CVE.
type Score struct {
	EPSS       float64
	Percentile float64
}

type apiResponse struct {
	Status string     `json:"status"`
	Data   []apiScore `json:"data"`
}

type apiScore struct {
	CVE        string `json:"cve"`
	EPSS       string `json:"epss"`
	Percentile string `json:"percentile"`
}

// Config holds EPSS client configuration
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client queries EPSS scores in batches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new EPSS API client
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

// Scores fetches EPSS scores for the given CVE IDs. CVEs unknown to EPSS
// are simply absent from the result map.
func (c *Client) Scores(ctx context.Context, cveIDs []string) (map[string]Score, error) {
	scores := make(map[string]Score, len(cveIDs))

	for start := 0; start < len(cveIDs); start += maxCVEsPerRequest {
		end := start + maxCVEsPerRequest
		if end > len(cveIDs) {
			end = len(cveIDs)
		}

		if err := c.fetchChunk(ctx, cveIDs[start:end], scores); err != nil {
			return nil, err
		}
	}

	return scores, nil
}

func (c *Client) fetchChunk(ctx context.Context, cveIDs []string, scores map[string]Score) error {
	apiURL := fmt.Sprintf("%s?cve=%s", c.baseURL, url.QueryEscape(strings.Join(cveIDs, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch EPSS scores: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch EPSS scores: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read EPSS response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshal EPSS response: %w", err)
	}

	for _, row := range parsed.Data {
		epssVal, err := strconv.ParseFloat(row.EPSS, 64)
		if err != nil {
			c.logger.Warn("unparseable EPSS score",
				zap.String("cve", row.CVE),
				zap.String("epss", row.EPSS))
			continue
		}
		percentile, err := strconv.ParseFloat(row.Percentile, 64)
		if err != nil {
			percentile = 0
		}
		scores[strings.ToUpper(row.CVE)] = Score{EPSS: epssVal, Percentile: percentile}
	}

	return nil
}
