package ranking

import "testing"

// Two-firm population where every percentile is either 0, 50, or 100, so
// the component and composite scores can be checked by hand.
func twoFirmMetrics() []RawMetrics {
	strong := RawMetrics{
		FilingCount:        10,
		IssuePosition:      0,
		SecondaryMatchRate: 1,
		IssueCount:         5,
		CoveredCount:       3,
		CommitteeSignal:    5,
		CommitteeOverlap:   2,
		ClientCount:        10,
		TeamSize:           8,
		CostDistance:       0.2,
	}
	weak := RawMetrics{
		FilingCount:        0,
		IssuePosition:      positionNotFound,
		SecondaryMatchRate: 0,
		IssueCount:         20,
		CoveredCount:       0,
		CommitteeSignal:    0,
		CommitteeOverlap:   0,
		ClientCount:        0,
		TeamSize:           2,
		CostDistance:       50,
	}
	return []RawMetrics{strong, weak}
}

func TestScorePercentileHandComputed(t *testing.T) {
	got := ScoreAll(twoFirmMetrics(), ModePercentile)

	// strong: issue = 50*.45 + 100*.30 + 50*.15 + 100*.10 = 70
	//         experience = 50 across all five components = 50
	//         cost = 100; overall = round(31.5 + 17.5 + 20) = 69
	want := Scores{IssueAlignment: 70, ExperienceDepth: 50, CostFit: 100, OverallMatch: 69}
	if got[0] != want {
		t.Fatalf("strong firm scores = %+v, want %+v", got[0], want)
	}

	// weak: issue = 0 + 50*.30 + 0 + 50*.10 = 20; experience = 0
	//       cost = 50; overall = round(9 + 0 + 10) = 19
	want = Scores{IssueAlignment: 20, ExperienceDepth: 0, CostFit: 50, OverallMatch: 19}
	if got[1] != want {
		t.Fatalf("weak firm scores = %+v, want %+v", got[1], want)
	}
}

func TestScoreRubricBuckets(t *testing.T) {
	m := RawMetrics{
		IssuePosition:      0,
		HasSecondary:       true,
		SecondaryMatchRate: 0.5,
		CoveredCount:       6,
		CommitteeOverlap:   3,
		CommitteeCount:     5,
		ClientCount:        25,
		BudgetMonthly:      10000,
		BillingMin:         5000,
		BillingMax:         20000,
	}
	got := scoreRubric(m)
	// issue: 60 + round(0.5*40) = 80
	// experience: min(60,40) + 40 + 20 = 100
	// cost: budget inside window = 90
	want := Scores{IssueAlignment: 80, ExperienceDepth: 100, CostFit: 90, OverallMatch: composite(80, 100, 90)}
	if got != want {
		t.Fatalf("rubric scores = %+v, want %+v", got, want)
	}
}

func TestScoreRubricNeutralPaths(t *testing.T) {
	got := scoreRubric(RawMetrics{IssuePosition: positionNotFound})
	if got.IssueAlignment != rubricSecondaryNone {
		t.Fatalf("expected neutral secondary credit only, got %d", got.IssueAlignment)
	}
	if got.CostFit != rubricCostNeutral {
		t.Fatalf("expected neutral cost without billing data, got %d", got.CostFit)
	}
	if got.ExperienceDepth != rubricClientsFew {
		t.Fatalf("expected minimum client credit only, got %d", got.ExperienceDepth)
	}
}

func TestScoreRubricCostWindows(t *testing.T) {
	base := RawMetrics{BillingMin: 10000, BillingMax: 20000}
	cases := []struct {
		budget float64
		want   int
	}{
		{15000, rubricCostInWindow},
		{5000, rubricCostNear},
		{2500, rubricCostStretch},
		{1000, rubricCostFar},
		{0, rubricCostNeutral},
	}
	for _, tc := range cases {
		m := base
		m.BudgetMonthly = tc.budget
		if got := rubricCostFromWindow(m); got != tc.want {
			t.Fatalf("budget %f: got %d, want %d", tc.budget, got, tc.want)
		}
	}
}

// A dominant specialist must outrank a marginal generalist in both modes.
func TestDominantFirmWinsUnderBothModes(t *testing.T) {
	specialist := RawMetrics{FilingCount: 500, IssuePosition: 0, IssueCount: 3, CoveredCount: 5, ClientCount: 30, TeamSize: 12, CostDistance: 0.1}
	generalist := RawMetrics{FilingCount: 10, IssuePosition: 3, IssueCount: 25, CoveredCount: 1, ClientCount: 4, TeamSize: 3, CostDistance: 2}
	for _, mode := range []Mode{ModePercentile, ModeRubric} {
		got := ScoreAll([]RawMetrics{specialist, generalist}, mode)
		if got[0].OverallMatch <= got[1].OverallMatch {
			t.Fatalf("mode %s: specialist %d did not beat generalist %d", mode, got[0].OverallMatch, got[1].OverallMatch)
		}
	}
}
