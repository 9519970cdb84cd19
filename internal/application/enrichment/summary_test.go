package enrichment

import (
	"math"
	"testing"

	"github.com/assetcanon/vulnd/pkg/domain"
)

func TestSummarizeEmpty(t *testing.T) {
	summary := NewSummarizer().Summarize(nil)

	if summary.AssetsEnriched != 0 || summary.TotalFindings != 0 {
		t.Errorf("summary = %+v, want zero counts", summary)
	}
	if summary.TopRisks == nil || len(summary.TopRisks) != 0 {
		t.Errorf("TopRisks = %v, want empty non-nil slice", summary.TopRisks)
	}
	if summary.AverageEPSS != 0 {
		t.Errorf("AverageEPSS = %v, want 0", summary.AverageEPSS)
	}
}

func TestSummarizeCounts(t *testing.T) {
	enrichments := map[string]domain.Enrichment{
		"asset-1": {
			AssetID:      "asset-1",
			FindingCount: 2,
			Findings: []domain.Finding{
				{CVEID: "CVE-2021-38397", CVSSScore: 10, Severity: domain.SeverityCritical, KnownExploited: true, EPSSScore: 0.9},
				{CVEID: "CVE-2020-10045", CVSSScore: 5, Severity: domain.SeverityMedium, EPSSScore: 0.1},
			},
			KnownExploitedCount: 1,
		},
		"asset-2": {
			AssetID:      "asset-2",
			FindingCount: 1,
			Findings: []domain.Finding{
				{CVEID: "CVE-2019-6553", CVSSScore: 9.8, Severity: domain.SeverityCritical},
			},
		},
	}

	summary := NewSummarizer().Summarize(enrichments)

	if summary.AssetsEnriched != 2 {
		t.Errorf("AssetsEnriched = %d, want 2", summary.AssetsEnriched)
	}
	if summary.TotalFindings != 3 {
		t.Errorf("TotalFindings = %d, want 3", summary.TotalFindings)
	}
	if summary.KnownExploitedCount != 1 {
		t.Errorf("KnownExploitedCount = %d, want 1", summary.KnownExploitedCount)
	}
	if summary.BySeverity[domain.SeverityCritical] != 2 {
		t.Errorf("BySeverity[CRITICAL] = %d, want 2", summary.BySeverity[domain.SeverityCritical])
	}
	if summary.BySeverity[domain.SeverityMedium] != 1 {
		t.Errorf("BySeverity[MEDIUM] = %d, want 1", summary.BySeverity[domain.SeverityMedium])
	}
	// mean over findings with a non-zero EPSS score
	if math.Abs(summary.AverageEPSS-0.5) > 1e-9 {
		t.Errorf("AverageEPSS = %v, want 0.5", summary.AverageEPSS)
	}
}

func TestSummarizeTopRisksOrderedAndCapped(t *testing.T) {
	findings := make([]domain.Finding, 8)
	for i := range findings {
		findings[i] = domain.Finding{
			CVEID:     cveID(i),
			CVSSScore: float64(i),
			Severity:  domain.SeverityLow,
		}
	}
	enrichments := map[string]domain.Enrichment{
		"asset-1": {AssetID: "asset-1", FindingCount: len(findings), Findings: findings},
	}

	summary := NewSummarizer().Summarize(enrichments)

	if len(summary.TopRisks) != topRiskLimit {
		t.Fatalf("len(TopRisks) = %d, want %d", len(summary.TopRisks), topRiskLimit)
	}
	for i := 1; i < len(summary.TopRisks); i++ {
		if summary.TopRisks[i].CVSSScore > summary.TopRisks[i-1].CVSSScore {
			t.Fatalf("TopRisks not sorted by score descending: %+v", summary.TopRisks)
		}
	}
	if summary.TopRisks[0].CVSSScore != 7 {
		t.Errorf("TopRisks[0].CVSSScore = %v, want 7", summary.TopRisks[0].CVSSScore)
	}
}

func TestSummarizeDeterministicTieBreak(t *testing.T) {
	enrichments := map[string]domain.Enrichment{
		"asset-b": {AssetID: "asset-b", FindingCount: 1, Findings: []domain.Finding{
			{CVEID: "CVE-2020-0002", CVSSScore: 7, Severity: domain.SeverityHigh},
		}},
		"asset-a": {AssetID: "asset-a", FindingCount: 1, Findings: []domain.Finding{
			{CVEID: "CVE-2020-0001", CVSSScore: 7, Severity: domain.SeverityHigh},
		}},
	}

	summary := NewSummarizer().Summarize(enrichments)

	if summary.TopRisks[0].CVEID != "CVE-2020-0001" || summary.TopRisks[1].CVEID != "CVE-2020-0002" {
		t.Errorf("tie break by CVE id failed: %+v", summary.TopRisks)
	}
}
