package match

import (
	"encoding/json"

	"github.com/mikeburns/lobbyscope/internal/llm"
	"github.com/mikeburns/lobbyscope/internal/ranking"
)

// minMethodologyLen is the threshold below which the narrative's own
// methodology text is considered truncated and replaced.
const minMethodologyLen = 100

// Personnel is one named lobbyist cited in the narrative.
type Personnel struct {
	Name       string `json:"name"`
	Background string `json:"background"`
}

// Match is one firm recommendation in the narrative. Scores are always the
// engine's; whatever the model emitted is discarded in MergeAuthoritative.
type Match struct {
	Rank                  int             `json:"rank"`
	FirmName              string          `json:"firmName"`
	FirmWebsite           string          `json:"firmWebsite,omitempty"`
	Rationale             string          `json:"rationale"`
	KeyPersonnel          []Personnel     `json:"keyPersonnel,omitempty"`
	RepresentativeClients []string        `json:"representativeClients,omitempty"`
	KeyStrengths          []string        `json:"keyStrengths,omitempty"`
	Considerations        []string        `json:"considerations,omitempty"`
	Scores                *ranking.Scores `json:"scores,omitempty"`
}

// Analysis is the merged narrative served to clients. Raw is only set when
// the model response could not be parsed.
type Analysis struct {
	ExecutiveSummary string  `json:"executiveSummary,omitempty"`
	Matches          []Match `json:"matches,omitempty"`
	Methodology      string  `json:"methodology,omitempty"`
	Raw              string  `json:"raw,omitempty"`
}

// MergeAuthoritative parses the model output and overwrites everything the
// engine owns: scores by rank position, rank numbers themselves, and the
// website when the model dropped it. A parse failure degrades to a raw-text
// analysis rather than an error; the caller already has valid scores.
func MergeAuthoritative(text string, r *ranking.Ranking, methodology string) Analysis {
	var analysis Analysis
	if err := json.Unmarshal([]byte(llm.StripFences(text)), &analysis); err != nil {
		return Analysis{Raw: text, Methodology: methodology}
	}

	for i := range analysis.Matches {
		m := &analysis.Matches[i]
		m.Rank = i + 1
		if i < len(r.TopFirms) {
			scores := r.TopFirms[i].Scores
			m.Scores = &scores
			if m.FirmWebsite == "" {
				m.FirmWebsite = r.TopFirms[i].Website
			}
		} else {
			m.Scores = nil
		}
	}

	if len(analysis.Methodology) < minMethodologyLen {
		analysis.Methodology = methodology
	}
	return analysis
}
