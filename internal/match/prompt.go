package match

import (
	"fmt"
	"strings"

	"github.com/mikeburns/lobbyscope/internal/ranking"
)

const systemPrompt = "You are a DC lobbying expert. Write compelling recommendations explaining percentile-based match scores. Warm, collegial tone. Valid JSON only."

// BuildMethodology renders the scoring explanation from the engine output.
// It is the server's fallback when the narrative omits or truncates its own
// methodology section.
func BuildMethodology(r *ranking.Ranking) string {
	scores := make([]string, 0, len(r.TopFirms))
	for _, f := range r.TopFirms {
		scores = append(scores, fmt.Sprintf("%d", f.Scores.OverallMatch))
	}
	top := r.TopFirms[0]
	return fmt.Sprintf("Matches determined by **percentile ranking** across %d firms—scores reflect how each firm compares to all others in the dataset, not absolute thresholds. "+
		"**Issue Alignment (45%%)** ranks filing frequency (%d filings for #1), issue position prominence, and practice specialization. "+
		"**Experience Depth (35%%)** ranks former government officials (%d at #1), committee relationship signal strength, and client portfolio breadth. "+
		"**Cost Fit (20%%)** ranks budget alignment using billing data. "+
		"Score distribution: Top %d, Median %d, Bottom %d. Top %d scores: %s. "+
		"Lobbyist credentials verified against quarterly LD-2 filings.",
		r.TotalAnalyzed,
		top.Raw.FilingCount,
		top.Raw.CoveredOfficials,
		r.ScoreDistribution.Top, r.ScoreDistribution.Median, r.ScoreDistribution.Bottom,
		len(r.TopFirms), strings.Join(scores, ", "))
}

func firmBlock(i int, f ranking.RankedFirm, issueArea string) string {
	filings := "Active in this area"
	if f.IssueFilingCount > 0 {
		filings = fmt.Sprintf("%d filings in %s", f.IssueFilingCount, issueArea)
	}
	lobbyists := make([]string, 0, len(f.Lobbyists))
	for _, l := range f.Lobbyists {
		lobbyists = append(lobbyists, fmt.Sprintf("%s (%s)", l.Name, l.Position))
	}
	return fmt.Sprintf(`FIRM %d: %s (Score: %d/100 | Issue: %d | Experience: %d | Cost: %d)
Website: %s
Issue Filing Count: %s
Key Lobbyists: %s
Representative Clients: %s
Committee Relationships: %s
Stats: %d former officials, %d total clients`,
		i+1, f.Name, f.Scores.OverallMatch, f.Scores.IssueAlignment, f.Scores.ExperienceDepth, f.Scores.CostFit,
		orDefault(f.Website, "N/A"),
		filings,
		orDefault(strings.Join(lobbyists, "; "), "Team available"),
		orDefault(strings.Join(f.Clients, ", "), "Various clients"),
		orDefault(strings.Join(f.Committees, "; "), "General government affairs"),
		f.CoveredOfficialCount, f.ClientCount)
}

// BuildPrompt assembles the narrative prompt over the top-K ranking.
func BuildPrompt(req *Request, r *ranking.Ranking, methodology string) string {
	blocks := make([]string, 0, len(r.TopFirms))
	for i, f := range r.TopFirms {
		blocks = append(blocks, firmBlock(i, f, req.IssueArea))
	}

	additional := "None"
	if len(req.AdditionalIssues) > 0 {
		additional = strings.Join(req.AdditionalIssues, ", ")
	}
	committees := r.RelevantCommittees
	if len(committees) > 4 {
		committees = committees[:4]
	}

	return fmt.Sprintf(`Analyze these TOP %d lobbying firm matches for a %s client. Scores are percentile-based—explain why each firm ranks where they do RELATIVE to the %d other firms.

## CLIENT PROFILE
**Organization:** %s
**Primary Issue:** %s
**Additional Issues:** %s
**Policy Goals:** %s
**Budget:** %s

## RELEVANT COMMITTEES
%s

## TOP %d MATCHES
%s

## SCORE CONTEXT
These are percentile scores: %d is top of %d firms, median is %d.

## OUTPUT FORMAT

{
  "executiveSummary": "3-4 sentences. Lead with #1 firm and their percentile score. Name a specific lobbyist with their government background. Explain what differentiates #1 from the rest using specific metrics. Warm, collegial tone.",

  "matches": [
    {
      "rank": 1,
      "firmName": "Exact name",
      "firmWebsite": "URL or null",
      "rationale": "TWO PARAGRAPHS with **bold** on 2-3 phrases each. P1: Why their issue alignment percentile is high—cite filing count, client types, how they compare to other firms. P2: Highlight 1-2 lobbyists BY NAME with government background, address experience depth and cost fit percentiles.",
      "keyPersonnel": [
        {"name": "Real name from data", "background": "Their position from data—write out fully"}
      ],
      "representativeClients": ["From data only"],
      "keyStrengths": ["Strength 1", "Strength 2", "Strength 3"],
      "considerations": ["One honest consideration"]
    }
  ],

  "methodology": %q
}

RULES:
- Scores are PERCENTILES (0-100 relative rank), not absolute ratings
- Never say "access"—use "relationships with"
- Fuzzy numbers: "more than 1,000 filings" not "1,171 filings"
- keyPersonnel: ONLY names from data, minimum 2 per firm
- keyStrengths: EXACTLY 3 per firm
- JSON only, no markdown fences`,
		len(r.TopFirms), req.OrganizationType, r.TotalAnalyzed,
		req.OrgDescription, req.IssueArea, additional,
		orDefault(req.PolicyGoals, "Not specified"),
		orDefault(req.Budget, "Not specified"),
		strings.Join(committees, ", "),
		len(r.TopFirms), strings.Join(blocks, "\n\n"),
		r.ScoreDistribution.Top, r.TotalAnalyzed, r.ScoreDistribution.Median,
		methodology)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
