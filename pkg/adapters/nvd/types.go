package nvd

// Wire types for the NVD CVE 2.0 API. Only the fields the enrichment
// engine consumes are mapped; the rest of the payload is ignored.

type apiResponse struct {
	ResultsPerPage  int                `json:"resultsPerPage"`
	TotalResults    int                `json:"totalResults"`
	Vulnerabilities []apiVulnerability `json:"vulnerabilities"`
}

type apiVulnerability struct {
	CVE apiCVE `json:"cve"`
}

type apiCVE struct {
	ID             string           `json:"id"`
	Published      string           `json:"published"`
	LastModified   string           `json:"lastModified"`
	VulnStatus     string           `json:"vulnStatus"`
	Descriptions   []apiDescription `json:"descriptions"`
	Metrics        *apiMetrics      `json:"metrics"`
	CisaExploitAdd *string          `json:"cisaExploitAdd"`
}

type apiDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type apiMetrics struct {
	CvssMetricV40 []apiCvssMetric `json:"cvssMetricV40,omitempty"`
	CvssMetricV31 []apiCvssMetric `json:"cvssMetricV31,omitempty"`
	CvssMetricV2  []apiCvssMetric `json:"cvssMetricV2,omitempty"`
}

type apiCvssMetric struct {
	Source       string      `json:"source"`
	Type         string      `json:"type"`
	CvssData     apiCvssData `json:"cvssData"`
	BaseSeverity string      `json:"baseSeverity"` // v2 keeps severity outside cvssData
}

type apiCvssData struct {
	Version      string  `json:"version"`
	VectorString string  `json:"vectorString"`
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity"`
}

// CVE is one parsed vulnerability record returned by Search.
type CVE struct {
	ID           string
	Description  string
	Score        float64
	Severity     string
	Vector       string
	Published    string
	LastModified string

	// CisaExploitAdd is set when NVD carries the CISA KEV date for the
	// record; the KEV catalog remains the authoritative source.
	CisaExploitAdd string
}

// bestMetric picks the most useful CVSS metric: v3.1 first, then v4.0,
// then v2.
func (c apiCVE) bestMetric() (score float64, severity, vector string) {
	if c.Metrics == nil {
		return 0, "", ""
	}
	for _, set := range [][]apiCvssMetric{
		c.Metrics.CvssMetricV31,
		c.Metrics.CvssMetricV40,
		c.Metrics.CvssMetricV2,
	} {
		if len(set) == 0 {
			continue
		}
		m := set[0]
		severity = m.CvssData.BaseSeverity
		if severity == "" {
			severity = m.BaseSeverity
		}
		return m.CvssData.BaseScore, severity, m.CvssData.VectorString
	}
	return 0, "", ""
}

// englishDescription returns the first English description, or "".
func (c apiCVE) englishDescription() string {
	for _, d := range c.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	return ""
}
