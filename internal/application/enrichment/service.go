package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TopicEnrichmentEvents is the activity-stream topic for enrichment events
const TopicEnrichmentEvents = "enrichment.events"

// ErrNoAssets is returned when a batch request carries no assets
var ErrNoAssets = errors.New("no assets provided")

// Result is the outcome of one batch enrichment.
//
// RequestedCount is the post-truncation count of entries attempted, not
// the number originally submitted.
type Result struct {
	Enrichments    []domain.Enrichment
	Summary        domain.Summary
	EnrichedCount  int
	RequestedCount int
}

// Service runs batch enrichment: it truncates oversized batches, paces
// sequential enricher calls to respect the upstream rate limit, and
// aggregates results into a summary.
type Service struct {
	enricher   ports.Enricher
	summarizer ports.Summarizer
	bus        ports.EventBus
	metrics    ports.MetricsCollector
	logger     *zap.Logger

	batchLimit  int
	pacingDelay time.Duration
}

// NewService creates a new batch enrichment service
func NewService(
	enricher ports.Enricher,
	summarizer ports.Summarizer,
	bus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	batchLimit int,
	pacingDelay time.Duration,
) *Service {
	return &Service{
		enricher:    enricher,
		summarizer:  summarizer,
		bus:         bus,
		metrics:     metrics,
		logger:      logger,
		batchLimit:  batchLimit,
		pacingDelay: pacingDelay,
	}
}

// EnrichBatch enriches the assets strictly sequentially. Items without an
// id are skipped; a nil enricher result contributes no entry. A pacing
// pause follows every iteration, including the last. Any enricher error
// fails the whole batch and discards partial results.
func (s *Service) EnrichBatch(ctx context.Context, assets []domain.Asset) (*Result, error) {
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}

	if len(assets) > s.batchLimit {
		s.logger.Warn("batch truncated",
			zap.Int("submitted", len(assets)),
			zap.Int("limit", s.batchLimit))
		assets = assets[:s.batchLimit]
	}

	start := time.Now()
	byAsset := make(map[string]domain.Enrichment, len(assets))
	enrichments := make([]domain.Enrichment, 0, len(assets))

	for _, asset := range assets {
		if asset.ID == "" {
			s.logger.Debug("skipping asset without id")
		} else {
			enrichment, err := s.enricher.EnrichAsset(ctx, asset)
			if err != nil {
				return nil, fmt.Errorf("enrich asset %s: %w", asset.ID, err)
			}
			if enrichment != nil {
				byAsset[asset.ID] = *enrichment
				enrichments = append(enrichments, *enrichment)
			}
		}

		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	summary := s.summarizer.Summarize(byAsset)
	duration := time.Since(start)

	s.publishCompleted(ctx, len(assets), len(enrichments))
	s.metrics.RecordBatch(len(assets), len(enrichments), duration)

	s.logger.Info("batch enrichment complete",
		zap.Int("requested", len(assets)),
		zap.Int("enriched", len(enrichments)),
		zap.Duration("duration", duration))

	return &Result{
		Enrichments:    enrichments,
		Summary:        summary,
		EnrichedCount:  len(enrichments),
		RequestedCount: len(assets),
	}, nil
}

// pause sleeps for the pacing delay, honoring context cancellation
func (s *Service) pause(ctx context.Context) error {
	if s.pacingDelay <= 0 {
		return ctx.Err()
	}

	select {
	case <-time.After(s.pacingDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) publishCompleted(ctx context.Context, requested, enriched int) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeBatchCompleted,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"requestedCount": requested,
			"enrichedCount":  enriched,
		},
	}

	if err := s.bus.Publish(ctx, TopicEnrichmentEvents, event); err != nil {
		s.logger.Error("failed to publish batch completed event", zap.Error(err))
	}
}
