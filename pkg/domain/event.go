package domain

import "time"

// EventType identifies an enrichment activity event
type EventType string

const (
	EventTypeAssetEnriched  EventType = "asset.enriched"
	EventTypeBatchCompleted EventType = "batch.completed"
	EventTypeCatalogUpdated EventType = "catalog.updated"
)

// Event is published on the activity bus as enrichment work progresses
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	AssetID   string                 `json:"assetId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
