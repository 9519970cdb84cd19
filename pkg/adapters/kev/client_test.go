package kev

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sampleCatalog = `{
  "catalogVersion": "2026.08.27",
  "dateReleased": "2026-08-27T12:00:00.000Z",
  "count": 2,
  "vulnerabilities": [
    {
      "cveID": "CVE-2021-38397",
      "vendorProject": "Honeywell",
      "product": "Experion PKS",
      "vulnerabilityName": "Honeywell Experion PKS Unrestricted File Upload",
      "dateAdded": "2022-03-03",
      "shortDescription": "Unrestricted upload of files with dangerous types.",
      "requiredAction": "Apply updates per vendor instructions.",
      "dueDate": "2022-03-17",
      "knownRansomwareCampaignUse": "Unknown"
    },
    {
      "cveID": "CVE-2020-10045",
      "vendorProject": "Siemens",
      "product": "SIPORT MP",
      "vulnerabilityName": "Siemens SIPORT MP Authentication Bypass",
      "dateAdded": "2022-05-23",
      "shortDescription": "Authentication bypass.",
      "requiredAction": "Apply updates per vendor instructions.",
      "dueDate": "2022-06-13",
      "knownRansomwareCampaignUse": "Unknown"
    }
  ]
}`

func TestRefreshAndLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	client := NewClient(&Config{CatalogURL: srv.URL, RequestTimeout: 5 * time.Second}, zap.NewNop())

	if client.Size() != 0 {
		t.Fatalf("Size() before refresh = %d, want 0", client.Size())
	}
	if _, ok := client.Lookup("CVE-2021-38397"); ok {
		t.Fatal("Lookup before refresh should miss")
	}

	if err := client.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	if client.Size() != 2 {
		t.Errorf("Size() = %d, want 2", client.Size())
	}
	if client.Version() != "2026.08.27" {
		t.Errorf("Version() = %q, want 2026.08.27", client.Version())
	}

	entry, ok := client.Lookup("cve-2021-38397")
	if !ok {
		t.Fatal("Lookup(cve-2021-38397) missed, lookups should be case-insensitive")
	}
	if entry.DateAdded != "2022-03-03" {
		t.Errorf("DateAdded = %q, want 2022-03-03", entry.DateAdded)
	}

	if _, ok := client.Lookup("CVE-1999-0001"); ok {
		t.Error("Lookup(CVE-1999-0001) hit, want miss")
	}
}

func TestRefreshBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(&Config{CatalogURL: srv.URL, RequestTimeout: 5 * time.Second}, zap.NewNop())

	if err := client.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() = nil error, want status error")
	}
	if client.Size() != 0 {
		t.Errorf("Size() = %d after failed refresh, want 0", client.Size())
	}
}
