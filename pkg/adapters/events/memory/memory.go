package memory

import (
	"context"
	"sync"

	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
)

// Bus implements EventBus with in-process handlers. Handlers run
// asynchronously; delivery is best-effort.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]ports.EventHandler
}

// NewBus creates a new in-memory event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish delivers an event to all subscribers of a topic
func (b *Bus) Publish(ctx context.Context, topic string, event domain.Event) error {
	b.mu.RLock()
	handlers := make([]ports.EventHandler, len(b.subscribers[topic]))
	copy(handlers, b.subscribers[topic])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for a topic
func (b *Bus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[topic] = append(b.subscribers[topic], handler)
	return nil
}

// Unsubscribe removes all subscriptions from a topic
func (b *Bus) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, topic)
	return nil
}

// Close clears all subscriptions
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers = make(map[string][]ports.EventHandler)
	return nil
}
