package firmdata

import (
	"encoding/json"
	"strings"
)

// Firm is one registrant record from the enriched disclosure dataset.
// The upstream enrichment pipeline emits several historical shapes; all
// normalization happens in UnmarshalJSON hooks so the rest of the code
// only ever sees this form.
type Firm struct {
	Name                 string                  `json:"name"`
	Website              string                  `json:"website,omitempty"`
	RegistrantID         string                  `json:"registrantId,omitempty"`
	LobbyistCount        int                     `json:"lobbyistCount,omitempty"`
	CoveredOfficialCount int                     `json:"coveredOfficialCount,omitempty"`
	SeniorLobbyistCount  int                     `json:"seniorLobbyistCount,omitempty"`
	BillingRange         string                  `json:"billingRange,omitempty"`
	FirmIntro            string                  `json:"firmIntro,omitempty"`
	VoiceProfile         *VoiceProfile           `json:"voiceProfile,omitempty"`
	Lobbyists            []Lobbyist              `json:"lobbyists,omitempty"`
	Enrichment           *Enrichment             `json:"enrichment,omitempty"`
	CommitteeRelationships *CommitteeRelationships `json:"committeeRelationships,omitempty"`
}

// Enrichment carries quarterly-filing aggregates attached to a firm.
type Enrichment struct {
	Issues      []IssueActivity `json:"issues,omitempty"`
	TopIssues   []string        `json:"topIssues,omitempty"`
	Clients     []Client        `json:"clients,omitempty"`
	ClientCount int             `json:"clientCount,omitempty"`
	Billing     *Billing        `json:"billing,omitempty"`
}

// IssueActivity is one general-issue code with its filing count, ordered
// most-active first in Enrichment.Issues. Older dataset builds stored bare
// code strings; the count is zero for those.
type IssueActivity struct {
	Code  string `json:"code"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count,omitempty"`
}

func (ia *IssueActivity) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		ia.Code = code
		return nil
	}
	type plain IssueActivity
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*ia = IssueActivity(p)
	return nil
}

// Client is a represented client. Accepts either a bare name string or an
// object with a description.
type Client struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *Client) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c.Name = name
		return nil
	}
	type plain Client
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Client(p)
	return nil
}

// Billing aggregates LD-2 income amounts for a firm. MinMonthly and
// MaxMonthly bound the firm's typical monthly retainer when the enrichment
// pipeline could derive one.
type Billing struct {
	AveragePerFiling float64 `json:"averagePerFiling,omitempty"`
	FilingCount      int     `json:"filingCount,omitempty"`
	TotalBilled      float64 `json:"totalBilled,omitempty"`
	MinMonthly       float64 `json:"minMonthly,omitempty"`
	MaxMonthly       float64 `json:"maxMonthly,omitempty"`
}

// CommitteeRelationships holds inferred committee affinity for a firm.
type CommitteeRelationships struct {
	TopCommittees []CommitteeSignal `json:"topCommittees,omitempty"`
}

// CommitteeSignal is a committee the firm's filings cluster around, with a
// relative strength score from the enrichment pipeline.
type CommitteeSignal struct {
	Name           string  `json:"committee"`
	Chamber        string  `json:"chamber,omitempty"`
	SignalStrength float64 `json:"signalStrength,omitempty"`
}

// Lobbyist is one verified individual on a firm's LD-2 filings.
type Lobbyist struct {
	Name               string             `json:"name"`
	HasCoveredPosition bool               `json:"hasCoveredPosition,omitempty"`
	CoveredPositions   []CoveredPosition  `json:"coveredPositions,omitempty"`
	IsSenior           bool               `json:"isSenior,omitempty"`
	Branch             string             `json:"branch,omitempty"`
	EntitySummary      string             `json:"entitySummary,omitempty"`
	ClientExperience   []ClientExperience `json:"clientExperience,omitempty"`
	IssueExperience    []string           `json:"issueExperience,omitempty"`
}

// CoveredPosition is a prior government role exactly as disclosed.
type CoveredPosition struct {
	Raw string `json:"raw"`
}

// ClientExperience links a lobbyist to a client they have represented.
type ClientExperience struct {
	Client string   `json:"client"`
	Issues []string `json:"issues,omitempty"`
}

// VoiceProfile captures how a firm writes about itself, used to steer
// generated prose toward the firm's own register.
type VoiceProfile struct {
	Tone            []string `json:"tone,omitempty"`
	KeyPhrases      []string `json:"keyPhrases,omitempty"`
	Positioning     string   `json:"positioning,omitempty"`
	Differentiators []string `json:"differentiators,omitempty"`
	Avoid           []string `json:"avoid,omitempty"`
}

// Committee is a congressional committee with jurisdiction over an issue
// area, from the issue-committee map.
type Committee struct {
	Name    string `json:"committee"`
	Chamber string `json:"chamber"`
}

// FullName joins chamber and committee name, the dedupe key for committee
// lists.
func (c Committee) FullName() string {
	return c.Chamber + " " + c.Name
}

// Issues returns the enriched issue list, or nil when enrichment is absent.
func (f *Firm) Issues() []IssueActivity {
	if f.Enrichment == nil {
		return nil
	}
	return f.Enrichment.Issues
}

// TopIssueCodes returns the fallback top-issue code list.
func (f *Firm) TopIssueCodes() []string {
	if f.Enrichment == nil {
		return nil
	}
	return f.Enrichment.TopIssues
}

// CoveredCount prefers the precomputed covered-official count and falls back
// to counting flagged lobbyists.
func (f *Firm) CoveredCount() int {
	if f.CoveredOfficialCount > 0 {
		return f.CoveredOfficialCount
	}
	n := 0
	for _, l := range f.Lobbyists {
		if l.HasCoveredPosition {
			n++
		}
	}
	return n
}

// TeamSize prefers the precomputed lobbyist count and falls back to the
// roster length.
func (f *Firm) TeamSize() int {
	if f.LobbyistCount > 0 {
		return f.LobbyistCount
	}
	return len(f.Lobbyists)
}

// ClientCount prefers the enrichment count and falls back to the client
// list length.
func (f *Firm) ClientCount() int {
	if f.Enrichment == nil {
		return 0
	}
	if f.Enrichment.ClientCount > 0 {
		return f.Enrichment.ClientCount
	}
	return len(f.Enrichment.Clients)
}

// AvgBillingPerFiling returns the average LD-2 income per quarterly filing,
// 0 when billing data is absent.
func (f *Firm) AvgBillingPerFiling() float64 {
	if f.Enrichment == nil || f.Enrichment.Billing == nil {
		return 0
	}
	return f.Enrichment.Billing.AveragePerFiling
}

// MatchesName reports whether id identifies this firm by registrant ID or
// exact name.
func (f *Firm) MatchesName(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && (f.RegistrantID == id || f.Name == id)
}
