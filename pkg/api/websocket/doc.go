// Package websocket provides real-time streaming of enrichment activity
// events over WebSocket connections.
package websocket
