package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// refreshTimeout bounds a single catalog download
const refreshTimeout = 2 * time.Minute

// Source is a catalog that can be re-downloaded and reports its size.
type Source interface {
	Refresh(ctx context.Context) error
	Size() int
}

// Refresher keeps a vulnerability catalog fresh on a fixed interval. A
// failed refresh keeps the previous index in service and retries on the
// next tick.
type Refresher struct {
	source   Source
	interval time.Duration
	bus      ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefresher creates a new catalog refresher
func NewRefresher(source Source, interval time.Duration, bus ports.EventBus, metrics ports.MetricsCollector, logger *zap.Logger) *Refresher {
	return &Refresher{
		source:   source,
		interval: interval,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start performs an initial refresh and then refreshes on the interval
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.refresh()

	go r.run()
}

// Stop stops the refresh loop
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

func (r *Refresher) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := r.source.Refresh(ctx); err != nil {
		r.logger.Error("catalog refresh failed, keeping previous index", zap.Error(err))
		return
	}

	size := r.source.Size()
	r.metrics.SetKEVCatalogSize(size)

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeCatalogUpdated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"entries": size,
		},
	}
	if err := r.bus.Publish(ctx, "enrichment.events", event); err != nil {
		r.logger.Error("failed to publish catalog updated event", zap.Error(err))
	}
}
