package ranking

import (
	"reflect"
	"testing"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
)

func fixtureFirms() []firmdata.Firm {
	mk := func(name string, filings int, position int, covered int, clients int) firmdata.Firm {
		issues := []firmdata.IssueActivity{}
		for i := 0; i < position; i++ {
			issues = append(issues, firmdata.IssueActivity{Code: "GOV", Count: filings + 10})
		}
		issues = append(issues, firmdata.IssueActivity{Code: "BAN", Count: filings})
		var lobbyists []firmdata.Lobbyist
		for i := 0; i < covered; i++ {
			lobbyists = append(lobbyists, firmdata.Lobbyist{
				Name:               name + " lobbyist",
				HasCoveredPosition: true,
				CoveredPositions:   []firmdata.CoveredPosition{{Raw: "Former Senate staffer"}},
			})
		}
		return firmdata.Firm{
			Name:      name,
			Lobbyists: lobbyists,
			Enrichment: &firmdata.Enrichment{
				Issues:      issues,
				ClientCount: clients,
			},
		}
	}
	return []firmdata.Firm{
		mk("Alpha Strategies", 500, 0, 5, 30),
		mk("Beta Group", 10, 3, 1, 4),
		mk("Gamma Partners", 120, 1, 3, 15),
		mk("Delta Advocacy", 40, 2, 2, 8),
		mk("Epsilon Affairs", 5, 5, 0, 2),
	}
}

func TestRankEmptyPopulation(t *testing.T) {
	e := NewEngine(ModePercentile, 3)
	if _, err := e.Rank(nil, Query{IssueArea: "BAN"}, nil); err != ErrNoFirmData {
		t.Fatalf("expected ErrNoFirmData, got %v", err)
	}
}

func TestRankDominantFirmFirstUnderBothModes(t *testing.T) {
	firms := fixtureFirms()
	for _, mode := range []Mode{ModePercentile, ModeRubric} {
		r, err := NewEngine(mode, 3).Rank(firms, Query{IssueArea: "BAN"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if r.TopFirms[0].Name != "Alpha Strategies" {
			t.Fatalf("mode %s: expected Alpha Strategies first, got %s", mode, r.TopFirms[0].Name)
		}
		if r.TotalAnalyzed != len(firms) {
			t.Fatalf("mode %s: expected totalAnalyzed %d, got %d", mode, len(firms), r.TotalAnalyzed)
		}
	}
}

func TestRankIsIdempotent(t *testing.T) {
	firms := fixtureFirms()
	q := Query{IssueArea: "BAN", AdditionalIssues: []string{"FIN"}}
	e := NewEngine(ModePercentile, 3)
	first, err := e.Rank(firms, q, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Rank(firms, q, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input must produce identical rankings")
	}
}

func TestRankTopKIsPrefixStable(t *testing.T) {
	firms := fixtureFirms()
	q := Query{IssueArea: "BAN"}
	full, err := NewEngine(ModePercentile, 5).Rank(firms, q, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k := 1; k < 5; k++ {
		r, err := NewEngine(ModePercentile, k).Rank(firms, q, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(r.TopFirms) != k {
			t.Fatalf("k=%d: got %d firms", k, len(r.TopFirms))
		}
		for i := 0; i < k; i++ {
			if r.TopFirms[i].Name != full.TopFirms[i].Name {
				t.Fatalf("k=%d: rank %d diverged: %s vs %s", k, i+1, r.TopFirms[i].Name, full.TopFirms[i].Name)
			}
		}
	}
}

func TestRankTiesKeepDatasetOrder(t *testing.T) {
	twin := func(name string) firmdata.Firm {
		return firmdata.Firm{
			Name: name,
			Enrichment: &firmdata.Enrichment{
				Issues: []firmdata.IssueActivity{{Code: "BAN", Count: 10}},
			},
		}
	}
	firms := []firmdata.Firm{twin("First Twin"), twin("Second Twin")}
	r, err := NewEngine(ModePercentile, 2).Rank(firms, Query{IssueArea: "BAN"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.TopFirms[0].Scores != r.TopFirms[1].Scores {
		t.Fatalf("twins must tie: %+v vs %+v", r.TopFirms[0].Scores, r.TopFirms[1].Scores)
	}
	if r.TopFirms[0].Name != "First Twin" || r.TopFirms[1].Name != "Second Twin" {
		t.Fatalf("tie broke dataset order: %s, %s", r.TopFirms[0].Name, r.TopFirms[1].Name)
	}
}

func TestRankExcerptCaps(t *testing.T) {
	firm := firmdata.Firm{Name: "Big Firm", Enrichment: &firmdata.Enrichment{
		Issues: []firmdata.IssueActivity{{Code: "BAN", Count: 10}},
	}}
	for i := 0; i < 6; i++ {
		firm.Lobbyists = append(firm.Lobbyists, firmdata.Lobbyist{
			Name:               "L",
			HasCoveredPosition: true,
			CoveredPositions:   []firmdata.CoveredPosition{{Raw: "Former official"}},
		})
	}
	for i := 0; i < 12; i++ {
		firm.Enrichment.Clients = append(firm.Enrichment.Clients, firmdata.Client{Name: "C"})
	}
	firm.CommitteeRelationships = &firmdata.CommitteeRelationships{}
	for i := 0; i < 9; i++ {
		firm.CommitteeRelationships.TopCommittees = append(firm.CommitteeRelationships.TopCommittees,
			firmdata.CommitteeSignal{Name: "Committee"})
	}
	r, err := NewEngine(ModePercentile, 1).Rank([]firmdata.Firm{firm}, Query{IssueArea: "BAN"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	top := r.TopFirms[0]
	if len(top.Lobbyists) != 4 {
		t.Fatalf("personnel excerpt must cap at 4, got %d", len(top.Lobbyists))
	}
	if len(top.Clients) != 8 {
		t.Fatalf("client excerpt must cap at 8, got %d", len(top.Clients))
	}
	if len(top.Committees) != 5 {
		t.Fatalf("committee excerpt must cap at 5, got %d", len(top.Committees))
	}
}

func TestRankDistributionCoversWholePopulation(t *testing.T) {
	firms := fixtureFirms()
	r, err := NewEngine(ModePercentile, 2).Rank(firms, Query{IssueArea: "BAN"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := r.ScoreDistribution
	if d.Top < d.Median || d.Median < d.Bottom {
		t.Fatalf("distribution must be ordered: %+v", d)
	}
	if d.Top != r.TopFirms[0].Scores.OverallMatch {
		t.Fatalf("distribution top %d must match rank 1 composite %d", d.Top, r.TopFirms[0].Scores.OverallMatch)
	}
}
