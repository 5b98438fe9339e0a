package firmdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Snapshot is an immutable view of the firm dataset plus the
// issue-committee map, loaded once at process start. Ranking and prompt
// assembly read from it concurrently; nothing mutates it after Load.
type Snapshot struct {
	firms  []Firm
	byID   map[string]int
	issues map[string][]Committee
}

type firmFile struct {
	// Newer dataset builds use "results", older ones "firms".
	Results []Firm `json:"results"`
	Firms   []Firm `json:"firms"`
}

type issueMapFile struct {
	Mappings map[string]struct {
		Committees []Committee `json:"committees"`
	} `json:"mappings"`
}

// Load reads the enriched firm dataset and the issue-committee map from
// disk. mapPath may be empty, in which case committee matching degrades to
// the neutral path.
func Load(firmPath, mapPath string) (*Snapshot, error) {
	blob, err := os.ReadFile(firmPath)
	if err != nil {
		return nil, fmt.Errorf("read firm data: %w", err)
	}
	var ff firmFile
	if err := json.Unmarshal(blob, &ff); err != nil {
		return nil, fmt.Errorf("parse firm data: %w", err)
	}
	firms := ff.Results
	if len(firms) == 0 {
		firms = ff.Firms
	}

	s := &Snapshot{
		firms:  firms,
		byID:   make(map[string]int, len(firms)),
		issues: map[string][]Committee{},
	}
	for i := range firms {
		if id := firms[i].RegistrantID; id != "" {
			s.byID[id] = i
		}
	}

	if mapPath != "" {
		blob, err := os.ReadFile(mapPath)
		if err != nil {
			return nil, fmt.Errorf("read issue map: %w", err)
		}
		var mf issueMapFile
		if err := json.Unmarshal(blob, &mf); err != nil {
			return nil, fmt.Errorf("parse issue map: %w", err)
		}
		for code, m := range mf.Mappings {
			s.issues[code] = m.Committees
		}
	}
	return s, nil
}

// NewSnapshot builds a snapshot from in-memory data, used by tests and
// embedded fixtures.
func NewSnapshot(firms []Firm, issueMap map[string][]Committee) *Snapshot {
	s := &Snapshot{
		firms:  firms,
		byID:   make(map[string]int, len(firms)),
		issues: issueMap,
	}
	if s.issues == nil {
		s.issues = map[string][]Committee{}
	}
	for i := range firms {
		if id := firms[i].RegistrantID; id != "" {
			s.byID[id] = i
		}
	}
	return s
}

// Firms returns the full firm list in dataset order. Callers must not
// mutate it.
func (s *Snapshot) Firms() []Firm {
	return s.firms
}

// Len returns the number of firms in the dataset.
func (s *Snapshot) Len() int {
	return len(s.firms)
}

// FirmByID looks a firm up by registrant ID or exact name.
func (s *Snapshot) FirmByID(id string) (*Firm, bool) {
	if i, ok := s.byID[id]; ok {
		return &s.firms[i], true
	}
	for i := range s.firms {
		if s.firms[i].MatchesName(id) {
			return &s.firms[i], true
		}
	}
	return nil, false
}

// FirmSummary is the catalog row served by the firm-list endpoint.
type FirmSummary struct {
	Name                 string   `json:"name"`
	RegistrantID         string   `json:"registrantId,omitempty"`
	CoveredOfficialCount int      `json:"coveredOfficialCount"`
	SeniorLobbyistCount  int      `json:"seniorLobbyistCount"`
	TotalClients         int      `json:"totalClients"`
	TopIssues            []string `json:"topIssues"`
}

// Summaries returns one catalog row per firm, sorted by name.
func (s *Snapshot) Summaries() []FirmSummary {
	out := make([]FirmSummary, 0, len(s.firms))
	for i := range s.firms {
		f := &s.firms[i]
		top := []string{}
		for _, code := range f.TopIssueCodes() {
			top = append(top, IssueLabel(code))
			if len(top) == 3 {
				break
			}
		}
		out = append(out, FirmSummary{
			Name:                 f.Name,
			RegistrantID:         f.RegistrantID,
			CoveredOfficialCount: f.CoveredCount(),
			SeniorLobbyistCount:  f.SeniorLobbyistCount,
			TotalClients:         f.ClientCount(),
			TopIssues:            top,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RelevantCommittees collects the committees with jurisdiction over the
// primary issue and any additional issues, deduplicated by chamber+name in
// first-seen order.
func (s *Snapshot) RelevantCommittees(primary string, additional []string) []Committee {
	all := append([]string{primary}, additional...)
	seen := map[string]bool{}
	var out []Committee
	for _, code := range all {
		if code == "" {
			continue
		}
		for _, c := range s.issues[code] {
			if seen[c.FullName()] {
				continue
			}
			seen[c.FullName()] = true
			out = append(out, c)
		}
	}
	return out
}
