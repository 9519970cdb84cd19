package enrichment

import (
	"sort"

	"github.com/assetcanon/vulnd/pkg/domain"
)

// topRiskLimit caps the number of entries in Summary.TopRisks
const topRiskLimit = 5

// Summarizer aggregates per-asset enrichments into a batch summary.
// Pure computation, no I/O. Implements ports.Summarizer.
type Summarizer struct{}

// NewSummarizer creates a new summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// Summarize computes batch-level counters over the enrichment mapping.
// Output ordering is deterministic regardless of map iteration order.
func (s *Summarizer) Summarize(enrichments map[string]domain.Enrichment) domain.Summary {
	summary := domain.Summary{
		AssetsEnriched: len(enrichments),
		BySeverity:     make(map[domain.Severity]int),
		TopRisks:       []domain.RiskEntry{},
	}

	var epssSum float64
	var epssCount int

	assetIDs := make([]string, 0, len(enrichments))
	for id := range enrichments {
		assetIDs = append(assetIDs, id)
	}
	sort.Strings(assetIDs)

	risks := make([]domain.RiskEntry, 0)
	for _, assetID := range assetIDs {
		enrichment := enrichments[assetID]
		summary.TotalFindings += enrichment.FindingCount
		summary.KnownExploitedCount += enrichment.KnownExploitedCount

		for _, finding := range enrichment.Findings {
			summary.BySeverity[finding.Severity]++
			if finding.EPSSScore > 0 {
				epssSum += finding.EPSSScore
				epssCount++
			}
			risks = append(risks, domain.RiskEntry{
				CVEID:     finding.CVEID,
				AssetID:   enrichment.AssetID,
				CVSSScore: finding.CVSSScore,
				Severity:  finding.Severity,
			})
		}
	}

	if epssCount > 0 {
		summary.AverageEPSS = epssSum / float64(epssCount)
	}

	sort.Slice(risks, func(i, j int) bool {
		if risks[i].CVSSScore != risks[j].CVSSScore {
			return risks[i].CVSSScore > risks[j].CVSSScore
		}
		if risks[i].CVEID != risks[j].CVEID {
			return risks[i].CVEID < risks[j].CVEID
		}
		return risks[i].AssetID < risks[j].AssetID
	})
	if len(risks) > topRiskLimit {
		risks = risks[:topRiskLimit]
	}
	summary.TopRisks = risks

	return summary
}
