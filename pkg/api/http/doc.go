// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Batch vulnerability enrichment
//   - Single vendor/model lookups
//   - Health checks
//   - Prometheus metrics
package http
