package enrichment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/assetcanon/vulnd/pkg/adapters/epss"
	"github.com/assetcanon/vulnd/pkg/adapters/kev"
	"github.com/assetcanon/vulnd/pkg/adapters/nvd"
	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CVESearcher finds CVE records matching a vendor/model keyword.
type CVESearcher interface {
	Search(ctx context.Context, keyword string) ([]nvd.CVE, error)
}

// KEVIndex answers known-exploited membership queries.
type KEVIndex interface {
	Lookup(cveID string) (kev.Entry, bool)
}

// EPSSScorer fetches exploit prediction scores for a set of CVEs.
type EPSSScorer interface {
	Scores(ctx context.Context, cveIDs []string) (map[string]epss.Score, error)
}

// Engine correlates an asset's vendor/model against NVD, the CISA KEV
// catalog, and EPSS, producing one Enrichment per asset. Implements
// ports.Enricher.
type Engine struct {
	searcher CVESearcher
	kevIndex KEVIndex
	epss     EPSSScorer
	cache    ports.EnrichmentCache
	bus      ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	maxFindings int
}

// NewEngine creates a new enrichment engine
func NewEngine(
	searcher CVESearcher,
	kevIndex KEVIndex,
	scorer EPSSScorer,
	cache ports.EnrichmentCache,
	bus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	maxFindings int,
) *Engine {
	return &Engine{
		searcher:    searcher,
		kevIndex:    kevIndex,
		epss:        scorer,
		cache:       cache,
		bus:         bus,
		metrics:     metrics,
		logger:      logger,
		maxFindings: maxFindings,
	}
}

// CacheKey returns the normalized cache key for a vendor/model pair
func CacheKey(vendor, model string) string {
	return strings.ToLower(strings.TrimSpace(vendor)) + "|" + strings.ToLower(strings.TrimSpace(model))
}

// EnrichAsset looks up vulnerability data for one asset. Assets without a
// control-system vendor yield (nil, nil), as do vendor/model pairs with
// no matching CVE records.
func (e *Engine) EnrichAsset(ctx context.Context, asset domain.Asset) (*domain.Enrichment, error) {
	vendor := strings.TrimSpace(asset.Vendor())
	if vendor == "" {
		return nil, nil
	}
	model := strings.TrimSpace(asset.Model())

	key := CacheKey(vendor, model)
	if cached, ok, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Warn("enrichment cache read failed",
			zap.String("key", key),
			zap.Error(err))
	} else if ok {
		e.metrics.RecordCacheHit()
		result := *cached
		result.AssetID = asset.ID
		return &result, nil
	}
	e.metrics.RecordCacheMiss()

	keyword := vendor
	if model != "" {
		keyword = vendor + " " + model
	}

	start := time.Now()
	records, err := e.searcher.Search(ctx, keyword)
	if err != nil {
		e.metrics.RecordLookup("nvd", "error", time.Since(start))
		return nil, fmt.Errorf("NVD search for %q: %w", keyword, err)
	}
	e.metrics.RecordLookup("nvd", "ok", time.Since(start))

	if len(records) == 0 {
		return nil, nil
	}

	findings := e.buildFindings(records)
	e.applyEPSS(ctx, findings)

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].CVSSScore != findings[j].CVSSScore {
			return findings[i].CVSSScore > findings[j].CVSSScore
		}
		return findings[i].CVEID < findings[j].CVEID
	})
	if len(findings) > e.maxFindings {
		findings = findings[:e.maxFindings]
	}

	enrichment := &domain.Enrichment{
		AssetID:      asset.ID,
		Vendor:       vendor,
		Model:        model,
		Findings:     findings,
		FindingCount: len(findings),
		RetrievedAt:  time.Now().UTC(),
	}
	for _, f := range findings {
		if f.KnownExploited {
			enrichment.KnownExploitedCount++
		}
		if f.CVSSScore > enrichment.MaxCVSS {
			enrichment.MaxCVSS = f.CVSSScore
		}
	}

	if err := e.cache.Set(ctx, key, enrichment); err != nil {
		e.logger.Warn("enrichment cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}

	e.publishEnriched(ctx, enrichment)
	e.metrics.RecordEnrichment(len(findings))

	e.logger.Info("asset enriched",
		zap.String("asset_id", asset.ID),
		zap.String("vendor", vendor),
		zap.String("model", model),
		zap.Int("findings", len(findings)),
		zap.Int("known_exploited", enrichment.KnownExploitedCount))

	return enrichment, nil
}

// buildFindings converts CVE records to findings, deduplicated by CVE id
// and flagged against the KEV index.
func (e *Engine) buildFindings(records []nvd.CVE) []domain.Finding {
	findings := make([]domain.Finding, 0, len(records))
	seen := make(map[string]bool, len(records))

	for _, record := range records {
		id := strings.ToUpper(record.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		severity := domain.Severity(record.Severity)
		if severity == "" {
			severity = domain.SeverityFromScore(record.Score)
		}

		finding := domain.Finding{
			CVEID:        id,
			Description:  record.Description,
			CVSSScore:    record.Score,
			Severity:     severity,
			Vector:       record.Vector,
			Published:    record.Published,
			LastModified: record.LastModified,
			Source:       "nvd",
		}

		if entry, listed := e.kevIndex.Lookup(id); listed {
			finding.KnownExploited = true
			finding.KEVDateAdded = entry.DateAdded
		} else if record.CisaExploitAdd != "" {
			// NVD sometimes carries the KEV date before the catalog does
			finding.KnownExploited = true
			finding.KEVDateAdded = record.CisaExploitAdd
		}

		findings = append(findings, finding)
	}

	return findings
}

// applyEPSS attaches EPSS scores in place. EPSS failures degrade the
// result rather than fail the enrichment.
func (e *Engine) applyEPSS(ctx context.Context, findings []domain.Finding) {
	if len(findings) == 0 {
		return
	}

	cveIDs := make([]string, len(findings))
	for i, f := range findings {
		cveIDs[i] = f.CVEID
	}

	start := time.Now()
	scores, err := e.epss.Scores(ctx, cveIDs)
	if err != nil {
		e.metrics.RecordLookup("epss", "error", time.Since(start))
		e.logger.Warn("EPSS lookup failed, continuing without scores", zap.Error(err))
		return
	}
	e.metrics.RecordLookup("epss", "ok", time.Since(start))

	for i := range findings {
		if score, ok := scores[findings[i].CVEID]; ok {
			findings[i].EPSSScore = score.EPSS
			findings[i].EPSSPercentile = score.Percentile
		}
	}
}

func (e *Engine) publishEnriched(ctx context.Context, enrichment *domain.Enrichment) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeAssetEnriched,
		AssetID:   enrichment.AssetID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"vendor":         enrichment.Vendor,
			"model":          enrichment.Model,
			"findingCount":   enrichment.FindingCount,
			"knownExploited": enrichment.KnownExploitedCount,
		},
	}

	if err := e.bus.Publish(ctx, TopicEnrichmentEvents, event); err != nil {
		e.logger.Error("failed to publish enrichment event",
			zap.String("asset_id", enrichment.AssetID),
			zap.Error(err))
	}
}
