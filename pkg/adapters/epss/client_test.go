package epss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestScores(t *testing.T) {
	var gotCVEs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCVEs = r.URL.Query().Get("cve")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"data": [
				{"cve": "CVE-2021-38397", "epss": "0.974500000", "percentile": "0.999100000"},
				{"cve": "CVE-2020-10045", "epss": "0.001230000", "percentile": "0.456700000"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, RequestTimeout: 5 * time.Second}, zap.NewNop())

	scores, err := client.Scores(context.Background(), []string{"CVE-2021-38397", "CVE-2020-10045", "CVE-1999-0001"})
	if err != nil {
		t.Fatalf("Scores() error: %v", err)
	}

	if gotCVEs != "CVE-2021-38397,CVE-2020-10045,CVE-1999-0001" {
		t.Errorf("cve query = %q", gotCVEs)
	}

	if len(scores) != 2 {
		t.Fatalf("len(scores) = %d, want 2 (unknown CVEs absent)", len(scores))
	}
	if s := scores["CVE-2021-38397"]; s.EPSS != 0.9745 {
		t.Errorf("EPSS = %v, want 0.9745", s.EPSS)
	}
	if s := scores["CVE-2020-10045"]; s.Percentile != 0.4567 {
		t.Errorf("Percentile = %v, want 0.4567", s.Percentile)
	}
}

func TestScoresEmptyInput(t *testing.T) {
	client := NewClient(&Config{BaseURL: "http://invalid.test", RequestTimeout: time.Second}, zap.NewNop())

	scores, err := client.Scores(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scores(nil) error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("len(scores) = %d, want 0", len(scores))
	}
}

func TestScoresBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, RequestTimeout: time.Second}, zap.NewNop())

	if _, err := client.Scores(context.Background(), []string{"CVE-2021-38397"}); err == nil {
		t.Fatal("Scores() = nil error, want status error")
	}
}
