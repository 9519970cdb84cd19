package ports

import (
	"context"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
)

// Enricher looks up vulnerability data for a single asset. A nil result
// with a nil error means no data could be found for the asset's
// vendor/model; callers must not treat that as a failure.
type Enricher interface {
	EnrichAsset(ctx context.Context, asset domain.Asset) (*domain.Enrichment, error)
}

// Summarizer aggregates a set of per-asset enrichments. Pure, no I/O.
type Summarizer interface {
	Summarize(enrichments map[string]domain.Enrichment) domain.Summary
}

// EnrichmentCache stores computed enrichments keyed by normalized
// vendor/model so repeat lookups skip the upstream sources.
type EnrichmentCache interface {
	Get(ctx context.Context, key string) (*domain.Enrichment, bool, error)
	Set(ctx context.Context, key string, enrichment *domain.Enrichment) error
	Delete(ctx context.Context, key string) error
}

// EventHandler processes one activity event
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes and delivers enrichment activity events
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records service-level metrics
type MetricsCollector interface {
	RecordBatch(requested, enriched int, duration time.Duration)
	RecordEnrichment(findings int)
	RecordLookup(source, status string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	SetKEVCatalogSize(size int)
}
