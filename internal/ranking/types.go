// Package ranking scores every firm in the dataset against a client query
// and selects the strongest matches. Scores are deterministic and computed
// before any language model is involved; downstream narrative generation
// never changes them.
package ranking

import (
	"errors"
	"strings"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
)

// ErrNoFirmData reports an empty candidate population. Callers must surface
// it as a data-availability failure, never as request validation.
var ErrNoFirmData = errors.New("no firm data available")

// Mode selects the scoring strategy.
type Mode string

const (
	// ModePercentile ranks each raw metric against the whole population.
	ModePercentile Mode = "percentile"
	// ModeRubric applies fixed point buckets to each firm in isolation.
	ModeRubric Mode = "rubric"
)

const (
	// positionNotFound marks a firm whose issue list never mentions the
	// primary issue. Large so lower-is-better percentiles bury it.
	positionNotFound = 99

	// defaultIssueCount stands in for firms with no enriched issue list so
	// the specialization metric stays neutral rather than flagging them as
	// hyper-specialized.
	defaultIssueCount = 20

	// neutralCostDistance is used when either side of the budget
	// comparison is unknown.
	neutralCostDistance = 50
)

// Composite and component weights. Tuned against the enriched dataset;
// change them in one place only.
const (
	weightFiling         = 0.45
	weightPosition       = 0.30
	weightSecondary      = 0.15
	weightSpecialization = 0.10

	weightCovered  = 0.30
	weightSignal   = 0.30
	weightOverlap  = 0.15
	weightClients  = 0.15
	weightTeamSize = 0.10

	weightIssueAlignment  = 0.45
	weightExperienceDepth = 0.35
	weightCostFit         = 0.20
)

// Query is the client profile the engine scores against.
type Query struct {
	IssueArea        string
	AdditionalIssues []string
	Budget           string
}

// BudgetToMonthly maps the intake budget bracket to a representative
// monthly dollar figure, 0 when no bracket was selected.
func BudgetToMonthly(budget string) float64 {
	switch {
	case strings.Contains(budget, "2,500-5,000"):
		return 3750
	case strings.Contains(budget, "5,000-15,000"):
		return 10000
	case strings.Contains(budget, "15,000-30,000"):
		return 22500
	case strings.Contains(budget, "30,000+"):
		return 50000
	default:
		return 0
	}
}

// RawMetrics is the per-firm measurement vector extracted before scoring.
type RawMetrics struct {
	FilingCount        int
	IssuePosition      int
	SecondaryMatchRate float64
	IssueCount         int

	CoveredCount     int
	CommitteeSignal  float64
	CommitteeOverlap int
	CommitteeCount   int
	ClientCount      int
	TeamSize         int

	AvgBilling    float64
	CostDistance  float64
	BudgetMonthly float64
	BillingMin    float64
	BillingMax    float64

	HasSecondary      bool
	MatchedCommittees []string
}

// Scores are the three component scores plus the weighted composite, each
// 0-100.
type Scores struct {
	IssueAlignment  int `json:"issueAlignment"`
	ExperienceDepth int `json:"experienceDepth"`
	CostFit         int `json:"costFit"`
	OverallMatch    int `json:"overallMatch"`
}

// PersonnelExcerpt is one covered-position lobbyist surfaced in the
// ranking output.
type PersonnelExcerpt struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// RawSummary exposes the headline raw metrics behind a ranked firm so the
// methodology text can cite them.
type RawSummary struct {
	FilingCount      int `json:"filingCount"`
	CoveredOfficials int `json:"coveredOfficials"`
	CommitteeSignal  int `json:"committeeSignal"`
	CommitteeOverlap int `json:"committeeOverlap"`
}

// RankedFirm is one survivor of top-K selection with its excerpt.
type RankedFirm struct {
	Rank                 int                `json:"rank"`
	Name                 string             `json:"name"`
	Website              string             `json:"website,omitempty"`
	Scores               Scores             `json:"scores"`
	IssueFilingCount     int                `json:"issueFilingCount"`
	Lobbyists            []PersonnelExcerpt `json:"lobbyists"`
	Clients              []string           `json:"clients"`
	Committees           []string           `json:"committees"`
	ClientCount          int                `json:"clientCount"`
	CoveredOfficialCount int                `json:"coveredOfficialCount"`
	BillingAvg           float64            `json:"billingAvg,omitempty"`
	Raw                  RawSummary         `json:"-"`
}

// Distribution summarizes composite scores across the whole population.
type Distribution struct {
	Top    int `json:"top"`
	Median int `json:"median"`
	Bottom int `json:"bottom"`
}

// Ranking is the engine's full output for one query.
type Ranking struct {
	TopFirms           []RankedFirm        `json:"topFirms"`
	RelevantCommittees []string            `json:"relevantCommittees"`
	TotalAnalyzed      int                 `json:"totalAnalyzed"`
	ScoreDistribution  Distribution        `json:"scoreDistribution"`
	Committees         []firmdata.Committee `json:"-"`
}
