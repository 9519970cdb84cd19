package nvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sampleResponse = `{
  "resultsPerPage": 2,
  "totalResults": 2,
  "vulnerabilities": [
    {
      "cve": {
        "id": "CVE-2021-38397",
        "published": "2021-10-22T12:15:00.000",
        "lastModified": "2022-04-25T17:22:00.000",
        "vulnStatus": "Analyzed",
        "descriptions": [
          {"lang": "es", "value": "descripcion"},
          {"lang": "en", "value": "Honeywell Experion PKS C200 unrestricted upload"}
        ],
        "metrics": {
          "cvssMetricV31": [
            {
              "source": "nvd@nist.gov",
              "type": "Primary",
              "cvssData": {
                "version": "3.1",
                "vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
                "baseScore": 10.0,
                "baseSeverity": "CRITICAL"
              }
            }
          ]
        },
        "cisaExploitAdd": "2022-03-03"
      }
    },
    {
      "cve": {
        "id": "CVE-2020-10045",
        "published": "2020-03-24T18:15:00.000",
        "lastModified": "2020-03-26T17:21:00.000",
        "vulnStatus": "Analyzed",
        "descriptions": [
          {"lang": "en", "value": "Authentication bypass"}
        ],
        "metrics": {
          "cvssMetricV2": [
            {
              "source": "nvd@nist.gov",
              "type": "Primary",
              "cvssData": {
                "version": "2.0",
                "vectorString": "AV:N/AC:L/Au:N/C:P/I:N/A:N",
                "baseScore": 5.0
              },
              "baseSeverity": "MEDIUM"
            }
          ]
        }
      }
    }
  ]
}`

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(&Config{
		BaseURL:           baseURL,
		RequestTimeout:    5 * time.Second,
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		RateLimitRequests: 1000,
		RateLimitPeriod:   time.Second,
	}, zap.NewNop())
}

func TestSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("keywordSearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	records, err := testClient(t, srv.URL).Search(context.Background(), "honeywell c300")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if gotQuery != "honeywell c300" {
		t.Errorf("keywordSearch = %q, want %q", gotQuery, "honeywell c300")
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	first := records[0]
	if first.ID != "CVE-2021-38397" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Score != 10.0 || first.Severity != "CRITICAL" {
		t.Errorf("metric = (%v, %q), want (10, CRITICAL)", first.Score, first.Severity)
	}
	if first.Description != "Honeywell Experion PKS C200 unrestricted upload" {
		t.Errorf("Description = %q, want english description", first.Description)
	}
	if first.CisaExploitAdd != "2022-03-03" {
		t.Errorf("CisaExploitAdd = %q, want 2022-03-03", first.CisaExploitAdd)
	}

	// v2 metric keeps severity outside cvssData
	second := records[1]
	if second.Score != 5.0 || second.Severity != "MEDIUM" {
		t.Errorf("v2 metric = (%v, %q), want (5, MEDIUM)", second.Score, second.Severity)
	}
}

func TestSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultsPerPage":0,"totalResults":0,"vulnerabilities":[]}`))
	}))
	defer srv.Close()

	records, err := testClient(t, srv.URL).Search(context.Background(), "nosuchvendor")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestSearchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	records, err := testClient(t, srv.URL).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"vulnerabilities":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search() error after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestSearchGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Search(context.Background(), "x")
	if err == nil {
		t.Fatal("Search() = nil error, want retries-exceeded error")
	}
}

func TestSearchNonRetryableClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Search(context.Background(), "x")
	if err == nil {
		t.Fatal("Search() = nil error, want client error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on 400)", got)
	}
}
