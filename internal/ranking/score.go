package ranking

// Rubric point tables. The buckets mirror the original hand-tuned scoring
// sheet; they are constants, not derived values.
const (
	rubricPrimaryFirst  = 60
	rubricPrimaryTop3   = 50
	rubricPrimaryTop6   = 40
	rubricPrimaryTail   = 30
	rubricSecondaryMax  = 40
	rubricSecondaryNone = 20

	rubricPerCovered  = 10
	rubricCoveredCap  = 40
	rubricOverlap3    = 40
	rubricOverlap2    = 30
	rubricOverlap1    = 20
	rubricOverlapSome = 10
	rubricClients20   = 20
	rubricClients10   = 15
	rubricClients5    = 10
	rubricClientsFew  = 5

	rubricCostInWindow = 90
	rubricCostNear     = 70
	rubricCostStretch  = 50
	rubricCostFar      = 30
	rubricCostNeutral  = 50
)

// ScoreAll converts raw metric vectors into component scores. Percentile
// mode needs the whole population at once; rubric mode scores each firm in
// isolation but keeps the same signature so callers switch modes freely.
func ScoreAll(all []RawMetrics, mode Mode) []Scores {
	if mode == ModeRubric {
		out := make([]Scores, len(all))
		for i := range all {
			out[i] = scoreRubric(all[i])
		}
		return out
	}
	return scorePercentile(all)
}

func scorePercentile(all []RawMetrics) []Scores {
	n := len(all)
	filingCounts := make([]float64, n)
	positions := make([]float64, n)
	secondaryRates := make([]float64, n)
	issueCounts := make([]float64, n)
	coveredCounts := make([]float64, n)
	signals := make([]float64, n)
	overlaps := make([]float64, n)
	clientCounts := make([]float64, n)
	teamSizes := make([]float64, n)
	costDistances := make([]float64, n)
	for i, m := range all {
		filingCounts[i] = float64(m.FilingCount)
		positions[i] = float64(m.IssuePosition)
		secondaryRates[i] = m.SecondaryMatchRate
		issueCounts[i] = float64(m.IssueCount)
		coveredCounts[i] = float64(m.CoveredCount)
		signals[i] = m.CommitteeSignal
		overlaps[i] = float64(m.CommitteeOverlap)
		clientCounts[i] = float64(m.ClientCount)
		teamSizes[i] = float64(m.TeamSize)
		costDistances[i] = m.CostDistance
	}

	out := make([]Scores, n)
	for i, m := range all {
		issue := roundHalfUp(
			Percentile(float64(m.FilingCount), filingCounts, true)*weightFiling +
				Percentile(float64(m.IssuePosition), positions, false)*weightPosition +
				Percentile(m.SecondaryMatchRate, secondaryRates, true)*weightSecondary +
				Percentile(float64(m.IssueCount), issueCounts, false)*weightSpecialization)

		experience := roundHalfUp(
			Percentile(float64(m.CoveredCount), coveredCounts, true)*weightCovered +
				Percentile(m.CommitteeSignal, signals, true)*weightSignal +
				Percentile(float64(m.CommitteeOverlap), overlaps, true)*weightOverlap +
				Percentile(float64(m.ClientCount), clientCounts, true)*weightClients +
				Percentile(float64(m.TeamSize), teamSizes, true)*weightTeamSize)

		cost := roundHalfUp(Percentile(m.CostDistance, costDistances, false))

		out[i] = Scores{
			IssueAlignment:  issue,
			ExperienceDepth: experience,
			CostFit:         cost,
			OverallMatch:    composite(issue, experience, cost),
		}
	}
	return out
}

func composite(issue, experience, cost int) int {
	return roundHalfUp(float64(issue)*weightIssueAlignment +
		float64(experience)*weightExperienceDepth +
		float64(cost)*weightCostFit)
}

func scoreRubric(m RawMetrics) Scores {
	issue := 0
	if m.IssuePosition != positionNotFound {
		switch {
		case m.IssuePosition == 0:
			issue += rubricPrimaryFirst
		case m.IssuePosition <= 2:
			issue += rubricPrimaryTop3
		case m.IssuePosition <= 5:
			issue += rubricPrimaryTop6
		default:
			issue += rubricPrimaryTail
		}
	}
	if m.HasSecondary {
		issue += roundHalfUp(m.SecondaryMatchRate * rubricSecondaryMax)
	} else {
		issue += rubricSecondaryNone
	}
	issue = min(100, issue)

	experience := min(m.CoveredCount*rubricPerCovered, rubricCoveredCap)
	switch {
	case m.CommitteeOverlap >= 3:
		experience += rubricOverlap3
	case m.CommitteeOverlap >= 2:
		experience += rubricOverlap2
	case m.CommitteeOverlap >= 1:
		experience += rubricOverlap1
	case m.CommitteeCount > 0:
		experience += rubricOverlapSome
	}
	switch {
	case m.ClientCount >= 20:
		experience += rubricClients20
	case m.ClientCount >= 10:
		experience += rubricClients10
	case m.ClientCount >= 5:
		experience += rubricClients5
	default:
		experience += rubricClientsFew
	}
	experience = min(100, experience)

	cost := rubricCostFromWindow(m)

	return Scores{
		IssueAlignment:  issue,
		ExperienceDepth: experience,
		CostFit:         cost,
		OverallMatch:    composite(issue, experience, cost),
	}
}

func rubricCostFromWindow(m RawMetrics) int {
	if m.BudgetMonthly == 0 || (m.BillingMin == 0 && m.BillingMax == 0) {
		return rubricCostNeutral
	}
	lo := m.BillingMin
	hi := m.BillingMax
	if hi == 0 {
		// Open-ended upper bound.
		hi = m.BudgetMonthly * 2
	}
	b := m.BudgetMonthly
	switch {
	case b >= lo && b <= hi:
		return rubricCostInWindow
	case b >= lo*0.5 && b <= hi*1.5:
		return rubricCostNear
	case b >= lo*0.25 && b <= hi*2:
		return rubricCostStretch
	default:
		return rubricCostFar
	}
}
