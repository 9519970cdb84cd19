// Package kev downloads the CISA Known Exploited Vulnerabilities catalog
// and serves membership lookups from an in-memory index.
package kev

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one KEV catalog record.
type Entry struct {
	CVEID                      string `json:"cveID"`
	VendorProject              string `json:"vendorProject"`
	Product                    string `json:"product"`
	VulnerabilityName          string `json:"vulnerabilityName"`
	DateAdded                  string `json:"dateAdded"`
	ShortDescription           string `json:"shortDescription"`
	RequiredAction             string `json:"requiredAction"`
	DueDate                    string `json:"dueDate"`
	KnownRansomwareCampaignUse string `json:"knownRansomwareCampaignUse"`
}

type catalog struct {
	CatalogVersion  string  `json:"catalogVersion"`
	DateReleased    string  `json:"dateReleased"`
	Count           int     `json:"count"`
	Vulnerabilities []Entry `json:"vulnerabilities"`
}

// Config holds KEV client configuration
type Config struct {
	CatalogURL     string
	RequestTimeout time.Duration
}

// Client holds the downloaded KEV index. Refresh swaps the index
// atomically; lookups keep serving the previous catalog while a refresh
// is in flight.
type Client struct {
	catalogURL string
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.RWMutex
	index   map[string]Entry
	version string
}

// NewClient creates a new KEV catalog client. The index is empty until
// the first Refresh.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		catalogURL: cfg.CatalogURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
		index:      make(map[string]Entry),
	}
}

// Refresh downloads the catalog and rebuilds the index.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.catalogURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch KEV catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch KEV catalog: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read KEV catalog: %w", err)
	}

	var cat catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		return fmt.Errorf("unmarshal KEV catalog: %w", err)
	}

	index := make(map[string]Entry, len(cat.Vulnerabilities))
	for _, entry := range cat.Vulnerabilities {
		index[strings.ToUpper(entry.CVEID)] = entry
	}

	c.mu.Lock()
	c.index = index
	c.version = cat.CatalogVersion
	c.mu.Unlock()

	c.logger.Info("KEV catalog refreshed",
		zap.String("version", cat.CatalogVersion),
		zap.Int("entries", len(index)))

	return nil
}

// Lookup reports whether a CVE is in the catalog. Case-insensitive.
func (c *Client) Lookup(cveID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.index[strings.ToUpper(cveID)]
	return entry, ok
}

// Size returns the number of indexed catalog entries
func (c *Client) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.index)
}

// Version returns the catalog version of the current index
func (c *Client) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}
