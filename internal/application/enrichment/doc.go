// Package enrichment implements the core application logic: the batch
// service (truncation, sequential pacing, result aggregation), the
// enrichment engine (NVD/KEV/EPSS correlation), and the summarizer.
package enrichment
