package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	batchesTotal   *prometheus.CounterVec
	batchSize      prometheus.Histogram
	batchDuration  prometheus.Histogram
	assetsEnriched prometheus.Counter

	findingsPerAsset prometheus.Histogram

	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	kevCatalogSize prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	return &Collector{
		batchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulnd_batches_total",
				Help: "Total number of batch enrichment requests processed",
			},
			[]string{"partial"},
		),
		batchSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulnd_batch_size",
				Help:    "Number of assets attempted per batch (post truncation)",
				Buckets: []float64{1, 2, 5, 10, 15, 20},
			},
		),
		batchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulnd_batch_duration_seconds",
				Help:    "Batch processing duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		assetsEnriched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vulnd_assets_enriched_total",
				Help: "Total number of assets successfully enriched",
			},
		),
		findingsPerAsset: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulnd_findings_per_asset",
				Help:    "Findings returned per enriched asset",
				Buckets: []float64{0, 1, 2, 5, 10, 25},
			},
		),
		lookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulnd_source_lookups_total",
				Help: "Total upstream source lookups by source and status",
			},
			[]string{"source", "status"},
		),
		lookupDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vulnd_source_lookup_duration_seconds",
				Help:    "Upstream source lookup duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		cacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vulnd_cache_hits_total",
				Help: "Total enrichment cache hits",
			},
		),
		cacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vulnd_cache_misses_total",
				Help: "Total enrichment cache misses",
			},
		),
		kevCatalogSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vulnd_kev_catalog_size",
				Help: "Number of entries in the loaded KEV catalog",
			},
		),
	}
}

// RecordBatch records one processed batch
func (c *Collector) RecordBatch(requested, enriched int, duration time.Duration) {
	c.batchesTotal.WithLabelValues(strconv.FormatBool(enriched < requested)).Inc()
	c.batchSize.Observe(float64(requested))
	c.batchDuration.Observe(duration.Seconds())
}

// RecordEnrichment records one successfully enriched asset
func (c *Collector) RecordEnrichment(findings int) {
	c.assetsEnriched.Inc()
	c.findingsPerAsset.Observe(float64(findings))
}

// RecordLookup records one upstream source lookup
func (c *Collector) RecordLookup(source, status string, duration time.Duration) {
	c.lookupsTotal.WithLabelValues(source, status).Inc()
	c.lookupDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCacheHit increments the cache hit counter
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// SetKEVCatalogSize sets the current KEV catalog size
func (c *Collector) SetKEVCatalogSize(size int) {
	c.kevCatalogSize.Set(float64(size))
}
