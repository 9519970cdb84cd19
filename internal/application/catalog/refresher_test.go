package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	eventsmem "github.com/assetcanon/vulnd/pkg/adapters/events/memory"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu       sync.Mutex
	refreshs int
	err      error
	size     int
}

func (f *fakeSource) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs++
	return f.err
}

func (f *fakeSource) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

func (f *fakeSource) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshs
}

type recordingMetrics struct {
	mu      sync.Mutex
	kevSize int
}

func (m *recordingMetrics) RecordBatch(requested, enriched int, duration time.Duration) {}
func (m *recordingMetrics) RecordEnrichment(findings int)                               {}
func (m *recordingMetrics) RecordLookup(source, status string, duration time.Duration)  {}
func (m *recordingMetrics) RecordCacheHit()                                             {}
func (m *recordingMetrics) RecordCacheMiss()                                            {}

func (m *recordingMetrics) SetKEVCatalogSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kevSize = size
}

func (m *recordingMetrics) catalogSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kevSize
}

func TestRefresherRefreshesOnInterval(t *testing.T) {
	source := &fakeSource{size: 42}
	metrics := &recordingMetrics{}
	refresher := NewRefresher(source, 20*time.Millisecond, eventsmem.NewBus(), metrics, zap.NewNop())

	refresher.Start()
	defer refresher.Stop()

	// initial refresh is synchronous
	if source.refreshCount() != 1 {
		t.Fatalf("refresh count after Start = %d, want 1", source.refreshCount())
	}
	if metrics.catalogSize() != 42 {
		t.Errorf("catalog size metric = %d, want 42", metrics.catalogSize())
	}

	deadline := time.After(time.Second)
	for source.refreshCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("refresh count = %d after 1s, want >= 3", source.refreshCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRefresherKeepsRunningAfterFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("download failed")}
	refresher := NewRefresher(source, 10*time.Millisecond, eventsmem.NewBus(), &recordingMetrics{}, zap.NewNop())

	refresher.Start()
	defer refresher.Stop()

	deadline := time.After(time.Second)
	for source.refreshCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("refresh count = %d after 1s, want >= 2 (retry after failure)", source.refreshCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRefresherStopIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	refresher := NewRefresher(source, time.Hour, eventsmem.NewBus(), &recordingMetrics{}, zap.NewNop())

	refresher.Start()
	refresher.Stop()
	refresher.Stop()
}
