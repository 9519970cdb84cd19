// Package catalog runs background refresh of vulnerability catalogs,
// currently the CISA KEV index consumed by the enrichment engine.
package catalog
