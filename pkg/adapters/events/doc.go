// Package events provides event bus implementations for the enrichment
// activity stream.
//
// Implementations:
//   - redis: Redis Streams with consumer groups
//   - memory: In-process handlers for testing and single-node deployments
package events
