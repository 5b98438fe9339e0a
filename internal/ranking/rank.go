package ranking

import (
	"sort"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
)

const (
	maxPersonnelExcerpt = 4
	maxClientExcerpt    = 8
	maxCommitteeExcerpt = 5
)

// Engine scores and ranks the full firm population for one query.
type Engine struct {
	mode Mode
	topK int
}

// NewEngine builds an engine. topK values below 1 fall back to 3, the
// report depth the narrative prompt is tuned for.
func NewEngine(mode Mode, topK int) *Engine {
	if topK < 1 {
		topK = 3
	}
	if mode == "" {
		mode = ModePercentile
	}
	return &Engine{mode: mode, topK: topK}
}

// Rank runs the whole engine: metric extraction over every firm, scoring in
// the configured mode, stable descending sort by composite, and top-K
// selection with excerpts. Ties keep dataset order.
func (e *Engine) Rank(firms []firmdata.Firm, q Query, relevant []firmdata.Committee) (*Ranking, error) {
	if len(firms) == 0 {
		return nil, ErrNoFirmData
	}

	metrics := make([]RawMetrics, len(firms))
	for i := range firms {
		metrics[i] = ExtractRawMetrics(&firms[i], q, relevant)
	}
	scores := ScoreAll(metrics, e.mode)

	order := make([]int, len(firms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]].OverallMatch > scores[order[b]].OverallMatch
	})

	k := e.topK
	if k > len(order) {
		k = len(order)
	}
	top := make([]RankedFirm, 0, k)
	for rank, idx := range order[:k] {
		top = append(top, buildRankedFirm(rank+1, &firms[idx], metrics[idx], scores[idx]))
	}

	names := make([]string, 0, len(relevant))
	for _, c := range relevant {
		names = append(names, c.FullName())
	}

	return &Ranking{
		TopFirms:           top,
		RelevantCommittees: names,
		TotalAnalyzed:      len(firms),
		ScoreDistribution: Distribution{
			Top:    scores[order[0]].OverallMatch,
			Median: scores[order[len(order)/2]].OverallMatch,
			Bottom: scores[order[len(order)-1]].OverallMatch,
		},
		Committees: relevant,
	}, nil
}

func buildRankedFirm(rank int, firm *firmdata.Firm, m RawMetrics, s Scores) RankedFirm {
	var personnel []PersonnelExcerpt
	for _, l := range firm.Lobbyists {
		if !l.HasCoveredPosition || len(l.CoveredPositions) == 0 {
			continue
		}
		position := l.CoveredPositions[0].Raw
		if position == "" {
			position = "Former government official"
		}
		personnel = append(personnel, PersonnelExcerpt{Name: l.Name, Position: position})
		if len(personnel) == maxPersonnelExcerpt {
			break
		}
	}

	var clients []string
	if firm.Enrichment != nil {
		for _, c := range firm.Enrichment.Clients {
			clients = append(clients, c.Name)
			if len(clients) == maxClientExcerpt {
				break
			}
		}
	}

	committees := m.MatchedCommittees
	if len(committees) == 0 && firm.CommitteeRelationships != nil {
		for _, tc := range firm.CommitteeRelationships.TopCommittees {
			committees = append(committees, tc.Name)
		}
	}
	if len(committees) > maxCommitteeExcerpt {
		committees = committees[:maxCommitteeExcerpt]
	}

	clientCount := firm.ClientCount()
	if clientCount == 0 {
		clientCount = len(clients)
	}
	covered := firm.CoveredOfficialCount
	if covered == 0 {
		covered = len(personnel)
	}

	return RankedFirm{
		Rank:                 rank,
		Name:                 firm.Name,
		Website:              firm.Website,
		Scores:               s,
		IssueFilingCount:     m.FilingCount,
		Lobbyists:            personnel,
		Clients:              clients,
		Committees:           committees,
		ClientCount:          clientCount,
		CoveredOfficialCount: covered,
		BillingAvg:           m.AvgBilling,
		Raw: RawSummary{
			FilingCount:      m.FilingCount,
			CoveredOfficials: m.CoveredCount,
			CommitteeSignal:  roundHalfUp(m.CommitteeSignal),
			CommitteeOverlap: m.CommitteeOverlap,
		},
	}
}
