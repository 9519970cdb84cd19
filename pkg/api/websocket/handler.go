package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/assetcanon/vulnd/internal/application/enrichment"
	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/assetcanon/vulnd/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleActivityStream streams enrichment activity events to the client.
// Optional ?assetId= narrows the stream to events for one asset.
func (h *Handler) HandleActivityStream(c *gin.Context) {
	assetID := c.Query("assetId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("asset_id", assetID),
		zap.String("client", c.ClientIP()))

	eventChan := make(chan domain.Event, 10)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.subscribeToEvents(ctx, eventChan)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			if assetID != "" && event.AssetID != assetID {
				continue
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// subscribeToEvents forwards activity events into the connection channel
func (h *Handler) subscribeToEvents(ctx context.Context, ch chan<- domain.Event) {
	handler := func(ctx context.Context, event domain.Event) error {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Channel full, skip event
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}

	if err := h.eventBus.Subscribe(ctx, enrichment.TopicEnrichmentEvents, handler); err != nil {
		h.logger.Error("failed to subscribe to events",
			zap.String("topic", enrichment.TopicEnrichmentEvents),
			zap.Error(err))
	}
}
