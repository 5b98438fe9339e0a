package ranking

import (
	"math"
	"strings"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
)

// ExtractRawMetrics measures one firm against the query. It never scores;
// it only observes, so the same vector feeds both scoring modes.
func ExtractRawMetrics(firm *firmdata.Firm, q Query, relevant []firmdata.Committee) RawMetrics {
	issues := firm.Issues()
	topIssues := firm.TopIssueCodes()

	filingCount := 0
	position := positionNotFound
	for i, ia := range issues {
		if ia.Code == q.IssueArea {
			filingCount = ia.Count
			position = i
			break
		}
	}
	if position == positionNotFound {
		// Fallback tier: the coarse top-issue list, which has order but no
		// filing counts.
		for i, code := range topIssues {
			if code == q.IssueArea {
				position = i
				break
			}
		}
	}

	matches := 0
	for _, want := range q.AdditionalIssues {
		if firmHasIssue(issues, topIssues, want) {
			matches++
		}
	}
	total := len(q.AdditionalIssues)
	if total == 0 {
		total = 1
	}

	issueCount := len(issues)
	if issueCount == 0 {
		issueCount = defaultIssueCount
	}

	signal := 0.0
	overlap := 0
	committeeCount := 0
	var matched []string
	if cr := firm.CommitteeRelationships; cr != nil {
		committeeCount = len(cr.TopCommittees)
		for _, tc := range cr.TopCommittees {
			if committeeNameOverlaps(tc.Name, relevant) {
				overlap++
				signal += tc.SignalStrength
				matched = append(matched, tc.Name)
			}
		}
	}

	avgBilling := firm.AvgBillingPerFiling()
	budgetMonthly := BudgetToMonthly(q.Budget)
	costDistance := float64(neutralCostDistance)
	if budgetMonthly > 0 && avgBilling > 0 {
		avgMonthly := avgBilling / 3
		costDistance = math.Abs(budgetMonthly-avgMonthly) / avgMonthly
	}

	var billingMin, billingMax float64
	if firm.Enrichment != nil && firm.Enrichment.Billing != nil {
		billingMin = firm.Enrichment.Billing.MinMonthly
		billingMax = firm.Enrichment.Billing.MaxMonthly
	}

	return RawMetrics{
		FilingCount:        filingCount,
		IssuePosition:      position,
		SecondaryMatchRate: float64(matches) / float64(total),
		IssueCount:         issueCount,

		CoveredCount:     firm.CoveredCount(),
		CommitteeSignal:  signal,
		CommitteeOverlap: overlap,
		CommitteeCount:   committeeCount,
		ClientCount:      firm.ClientCount(),
		TeamSize:         firm.TeamSize(),

		AvgBilling:    avgBilling,
		CostDistance:  costDistance,
		BudgetMonthly: budgetMonthly,
		BillingMin:    billingMin,
		BillingMax:    billingMax,

		HasSecondary:      len(q.AdditionalIssues) > 0,
		MatchedCommittees: matched,
	}
}

func firmHasIssue(issues []firmdata.IssueActivity, topIssues []string, code string) bool {
	for _, ia := range issues {
		if ia.Code == code {
			return true
		}
	}
	for _, c := range topIssues {
		if c == code {
			return true
		}
	}
	return false
}

// committeeNameOverlaps matches committee names loosely: disclosure text
// and the jurisdiction map abbreviate differently, so either side may
// contain the other.
func committeeNameOverlaps(name string, relevant []firmdata.Committee) bool {
	fc := strings.ToLower(name)
	if fc == "" {
		return false
	}
	for _, rc := range relevant {
		rn := strings.ToLower(rc.Name)
		if rn == "" {
			continue
		}
		if strings.Contains(fc, rn) || strings.Contains(rn, fc) {
			return true
		}
	}
	return false
}
