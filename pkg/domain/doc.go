// Package domain holds the core types exchanged between the API, the
// enrichment engine, and the adapters: canonical assets, per-asset
// enrichments, batch summaries, and activity events.
package domain
