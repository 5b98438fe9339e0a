package match

import (
	"testing"

	"github.com/mikeburns/lobbyscope/internal/ranking"
)

func sampleRanking() *ranking.Ranking {
	return &ranking.Ranking{
		TopFirms: []ranking.RankedFirm{
			{Rank: 1, Name: "Alpha Strategies", Website: "https://alpha.example", Scores: ranking.Scores{IssueAlignment: 80, ExperienceDepth: 70, CostFit: 60, OverallMatch: 73}},
			{Rank: 2, Name: "Beta Group", Website: "https://beta.example", Scores: ranking.Scores{IssueAlignment: 50, ExperienceDepth: 40, CostFit: 50, OverallMatch: 47}},
		},
		TotalAnalyzed:     40,
		ScoreDistribution: ranking.Distribution{Top: 73, Median: 35, Bottom: 4},
	}
}

func TestMergeReplacesForgedScores(t *testing.T) {
	text := `{"executiveSummary": "s", "matches": [
		{"rank": 5, "firmName": "Alpha Strategies", "scores": {"issueAlignment": 1, "experienceDepth": 1, "costFit": 1, "overallMatch": 999}},
		{"rank": 9, "firmName": "Beta Group", "firmWebsite": "https://model-made-this-up.example"}
	], "methodology": "` + longMethodology() + `"}`

	got := MergeAuthoritative(text, sampleRanking(), "fallback")
	if got.Raw != "" {
		t.Fatal("valid JSON must not fall back to raw")
	}
	if got.Matches[0].Scores == nil || got.Matches[0].Scores.OverallMatch != 73 {
		t.Fatalf("engine scores must win: %+v", got.Matches[0].Scores)
	}
	if got.Matches[0].Rank != 1 || got.Matches[1].Rank != 2 {
		t.Fatalf("ranks must be reassigned by position: %d, %d", got.Matches[0].Rank, got.Matches[1].Rank)
	}
	if got.Matches[1].Scores.OverallMatch != 47 {
		t.Fatalf("second match scores wrong: %+v", got.Matches[1].Scores)
	}
}

func TestMergeBackfillsWebsite(t *testing.T) {
	text := `{"matches": [{"firmName": "Alpha Strategies"}], "methodology": "` + longMethodology() + `"}`
	got := MergeAuthoritative(text, sampleRanking(), "fallback")
	if got.Matches[0].FirmWebsite != "https://alpha.example" {
		t.Fatalf("expected backfilled website, got %q", got.Matches[0].FirmWebsite)
	}

	text = `{"matches": [{"firmName": "Alpha Strategies", "firmWebsite": "https://model.example"}], "methodology": "` + longMethodology() + `"}`
	got = MergeAuthoritative(text, sampleRanking(), "fallback")
	if got.Matches[0].FirmWebsite != "https://model.example" {
		t.Fatal("model-provided website must be kept")
	}
}

func TestMergeParseFailureFallsBackToRaw(t *testing.T) {
	got := MergeAuthoritative("this is not json at all", sampleRanking(), "fallback methodology")
	if got.Raw != "this is not json at all" {
		t.Fatalf("expected raw fallback, got %+v", got)
	}
	if got.Methodology != "fallback methodology" {
		t.Fatalf("raw fallback must still carry the methodology, got %q", got.Methodology)
	}
}

func TestMergeReplacesShortMethodology(t *testing.T) {
	text := `{"matches": [], "methodology": "too short"}`
	got := MergeAuthoritative(text, sampleRanking(), "engine methodology")
	if got.Methodology != "engine methodology" {
		t.Fatalf("short methodology must be replaced, got %q", got.Methodology)
	}

	long := longMethodology()
	text = `{"matches": [], "methodology": "` + long + `"}`
	got = MergeAuthoritative(text, sampleRanking(), "engine methodology")
	if got.Methodology != long {
		t.Fatal("long methodology must be kept")
	}
}

func TestMergeExtraMatchesGetNoScores(t *testing.T) {
	text := `{"matches": [
		{"firmName": "Alpha Strategies"},
		{"firmName": "Beta Group"},
		{"firmName": "Invented Firm"}
	], "methodology": "` + longMethodology() + `"}`
	got := MergeAuthoritative(text, sampleRanking(), "fallback")
	if got.Matches[2].Scores != nil {
		t.Fatalf("hallucinated extra match must not get scores: %+v", got.Matches[2].Scores)
	}
}

func longMethodology() string {
	s := ""
	for len(s) < minMethodologyLen {
		s += "percentile ranking across the dataset "
	}
	return s
}
