package firmdata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestIssueActivityAcceptsBothShapes(t *testing.T) {
	var e Enrichment
	blob := []byte(`{"issues": ["TAX", {"code": "HCR", "count": 12}]}`)
	if err := json.Unmarshal(blob, &e); err != nil {
		t.Fatal(err)
	}
	if len(e.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(e.Issues))
	}
	if e.Issues[0].Code != "TAX" || e.Issues[0].Count != 0 {
		t.Fatalf("unexpected bare-string issue: %+v", e.Issues[0])
	}
	if e.Issues[1].Code != "HCR" || e.Issues[1].Count != 12 {
		t.Fatalf("unexpected object issue: %+v", e.Issues[1])
	}
}

func TestClientAcceptsBothShapes(t *testing.T) {
	var e Enrichment
	blob := []byte(`{"clients": ["Acme Corp", {"name": "Beta LLC", "description": "trade group"}]}`)
	if err := json.Unmarshal(blob, &e); err != nil {
		t.Fatal(err)
	}
	if e.Clients[0].Name != "Acme Corp" {
		t.Fatalf("unexpected client: %+v", e.Clients[0])
	}
	if e.Clients[1].Name != "Beta LLC" || e.Clients[1].Description != "trade group" {
		t.Fatalf("unexpected client: %+v", e.Clients[1])
	}
}

func TestLoadReadsResultsOrFirmsKey(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		blob string
	}{
		{"results", `{"results": [{"name": "Firm A"}]}`},
		{"firms", `{"firms": [{"name": "Firm A"}]}`},
	} {
		path := filepath.Join(dir, tc.name+".json")
		if err := os.WriteFile(path, []byte(tc.blob), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := Load(path, "")
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if s.Len() != 1 || s.Firms()[0].Name != "Firm A" {
			t.Fatalf("%s: unexpected snapshot", tc.name)
		}
	}
}

func TestRelevantCommitteesDedupes(t *testing.T) {
	s := NewSnapshot(nil, map[string][]Committee{
		"TAX": {{Name: "Ways and Means", Chamber: "House"}, {Name: "Finance", Chamber: "Senate"}},
		"BUD": {{Name: "Ways and Means", Chamber: "House"}, {Name: "Budget", Chamber: "House"}},
	})
	got := s.RelevantCommittees("TAX", []string{"BUD", ""})
	if len(got) != 3 {
		t.Fatalf("expected 3 deduped committees, got %d: %+v", len(got), got)
	}
	if got[0].FullName() != "House Ways and Means" {
		t.Fatalf("expected first-seen order, got %+v", got)
	}
}

func TestFirmByIDFallsBackToName(t *testing.T) {
	s := NewSnapshot([]Firm{
		{Name: "Firm A", RegistrantID: "R100"},
		{Name: "Firm B"},
	}, nil)
	if f, ok := s.FirmByID("R100"); !ok || f.Name != "Firm A" {
		t.Fatal("expected lookup by registrant ID")
	}
	if f, ok := s.FirmByID("Firm B"); !ok || f.Name != "Firm B" {
		t.Fatal("expected lookup by name")
	}
	if _, ok := s.FirmByID("nope"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestCoveredCountFallsBackToRoster(t *testing.T) {
	f := Firm{Lobbyists: []Lobbyist{
		{Name: "A", HasCoveredPosition: true},
		{Name: "B"},
		{Name: "C", HasCoveredPosition: true},
	}}
	if got := f.CoveredCount(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	f.CoveredOfficialCount = 7
	if got := f.CoveredCount(); got != 7 {
		t.Fatalf("expected precomputed 7, got %d", got)
	}
}
