package domain

// RiskEntry identifies one of the highest-scoring findings across a batch.
type RiskEntry struct {
	CVEID     string   `json:"cveId"`
	AssetID   string   `json:"assetId"`
	CVSSScore float64  `json:"cvssScore"`
	Severity  Severity `json:"severity"`
}

// Summary aggregates a set of enrichments into batch-level counters.
type Summary struct {
	AssetsEnriched      int              `json:"assetsEnriched"`
	TotalFindings       int              `json:"totalFindings"`
	BySeverity          map[Severity]int `json:"bySeverity"`
	KnownExploitedCount int              `json:"knownExploitedCount"`
	AverageEPSS         float64          `json:"averageEpss"`
	TopRisks            []RiskEntry      `json:"topRisks"`
}
