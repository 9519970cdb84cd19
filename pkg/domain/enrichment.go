package domain

import "time"

// Severity buckets follow the CVSS qualitative scale.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityNone     Severity = "NONE"
)

// SeverityFromScore maps a CVSS base score to its qualitative bucket.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	case score > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// Finding is one CVE correlated against an asset's vendor/model, merged
// with KEV membership and EPSS scoring.
type Finding struct {
	CVEID          string   `json:"cveId"`
	Description    string   `json:"description,omitempty"`
	CVSSScore      float64  `json:"cvssScore"`
	Severity       Severity `json:"severity"`
	Vector         string   `json:"vector,omitempty"`
	Published      string   `json:"published,omitempty"`
	LastModified   string   `json:"lastModified,omitempty"`
	KnownExploited bool     `json:"knownExploited"`
	KEVDateAdded   string   `json:"kevDateAdded,omitempty"`
	EPSSScore      float64  `json:"epssScore"`
	EPSSPercentile float64  `json:"epssPercentile"`
	Source         string   `json:"source"`
}

// Enrichment is the vulnerability intelligence computed for one asset.
type Enrichment struct {
	AssetID             string    `json:"assetId"`
	Vendor              string    `json:"vendor"`
	Model               string    `json:"model,omitempty"`
	Findings            []Finding `json:"findings"`
	FindingCount        int       `json:"findingCount"`
	KnownExploitedCount int       `json:"knownExploitedCount"`
	MaxCVSS             float64   `json:"maxCvss"`
	RetrievedAt         time.Time `json:"retrievedAt"`
}
