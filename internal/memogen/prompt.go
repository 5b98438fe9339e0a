package memogen

import (
	"fmt"
	"strings"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
)

const systemPrompt = `You are an expert at writing business development pitch memos for lobbying firms. Generate a strategic, compelling pitch memo that demonstrates why a specific firm is well-positioned to win a prospect's business.

## MEMO STRUCTURE

1. EXECUTIVE SUMMARY: 2-3 sentences on why this firm is positioned to win. Only mention committees, agencies, or government experience directly relevant to the prospect's stated issues. No formal memo header ("MEMORANDUM", "To:", "From:").
2. INTRODUCING [FIRM NAME]: if a FIRM INTRO is provided, use it verbatim as the first paragraph. Otherwise write 3-4 factual sentences from the voice profile.
3. ISSUE ALIGNMENT ANALYSIS: map practice areas to the prospect's needs. Never mention "LDA filings," "disclosure data," or where the information comes from; write as if the firm naturally knows its own expertise. Only make claims grounded in the provided data.
4. RELEVANT CLIENT EXPERIENCE: 2-3 sentences per similar client, explaining why that experience matters for this prospect.
5. TEAM HIGHLIGHTS: choose the 3-4 team members most relevant to this prospect. Government experience and sector experience are equally valuable. Bold each name. Frame government service as institutional knowledge, never as access.
6. STRATEGIC APPROACH: 3-4 substantive paragraphs tailored to the prospect's situation (offensive vs defensive, legislative vs regulatory, timeline).
7. FEE CONTEXT: only if budget information is provided; reference the firm's typical billing range and frame the value.
8. CONCLUSION: 3-5 sentences reinforcing fit, ending forward-looking. No generic closings.

Aim for roughly 1,200-1,500 words.

## LIBEL-SAFE LANGUAGE

SAFE: "established relationships with committee members", "institutional knowledge from government service", "track record on [issue]".
NEVER: "access to" or "connections to" officials, campaign contributions, guaranteed outcomes, quid pro quo implications.

## VOICE

Echo the firm's VOICE PROFILE phrases naturally. Professional, confident, strategic; write as the firm's senior partner. Do not use em-dashes anywhere; use colons, semicolons, commas, or separate sentences instead.`

const maxProfileLobbyists = 12

func buildFirmProfile(firm *firmdata.Firm) string {
	var b strings.Builder

	if firm.VoiceProfile != nil {
		vp := firm.VoiceProfile
		fmt.Fprintf(&b, "**VOICE PROFILE**\nTone: %s\nKey Phrases to Echo: %s\nPositioning: %s\nDifferentiators: %s\nAvoid: %s\n\n",
			orText(strings.Join(vp.Tone, ", "), "Professional, strategic"),
			orText(strings.Join(vp.KeyPhrases, "; "), "None specified"),
			orText(vp.Positioning, "Not specified"),
			orText(strings.Join(vp.Differentiators, "; "), "None specified"),
			orText(strings.Join(vp.Avoid, ", "), "None specified"))
	}
	if firm.FirmIntro != "" {
		fmt.Fprintf(&b, "**FIRM INTRO (use verbatim)**\n%s\n\n", firm.FirmIntro)
	}

	fmt.Fprintf(&b, "**FIRM:** %s\n", firm.Name)
	if firm.BillingRange != "" {
		fmt.Fprintf(&b, "**Billing Range:** %s\n", firm.BillingRange)
	}
	fmt.Fprintf(&b, "**Team:** %d verified lobbyists (%d with covered positions, %d senior)\n\n",
		firm.TeamSize(), firm.CoveredCount(), firm.SeniorLobbyistCount)

	if len(firm.Lobbyists) > 0 {
		b.WriteString("**Team Members:**\n")
		n := 0
		for _, l := range firm.Lobbyists {
			if n == maxProfileLobbyists {
				break
			}
			if !lobbyistWorthProfiling(l) {
				continue
			}
			n++
			tags := ""
			if l.IsSenior {
				tags += " [SENIOR]"
			}
			if l.Branch != "" {
				tags += fmt.Sprintf(" [%s]", l.Branch)
			}
			fmt.Fprintf(&b, "- %s%s\n", l.Name, tags)
			if l.EntitySummary != "" {
				fmt.Fprintf(&b, "    Entities: %s\n", l.EntitySummary)
			} else if len(l.CoveredPositions) > 0 {
				fmt.Fprintf(&b, "    Covered position: %s\n", l.CoveredPositions[0].Raw)
			}
			if len(l.ClientExperience) > 0 {
				names := make([]string, 0, 5)
				for _, ce := range l.ClientExperience {
					names = append(names, ce.Client)
					if len(names) == 5 {
						break
					}
				}
				fmt.Fprintf(&b, "    Client experience: %s\n", strings.Join(names, "; "))
			}
			if len(l.IssueExperience) > 0 {
				labels := make([]string, 0, 8)
				for _, code := range l.IssueExperience {
					labels = append(labels, firmdata.IssueLabel(code))
					if len(labels) == 8 {
						break
					}
				}
				fmt.Fprintf(&b, "    Issue areas lobbied: %s\n", strings.Join(labels, ", "))
			}
		}
		b.WriteString("\n")
	}

	if cr := firm.CommitteeRelationships; cr != nil && len(cr.TopCommittees) > 0 {
		parts := make([]string, 0, len(cr.TopCommittees))
		for _, c := range cr.TopCommittees {
			parts = append(parts, fmt.Sprintf("%s (signal %.1f)", c.Name, c.SignalStrength))
		}
		fmt.Fprintf(&b, "**Committee Relationships:** %s\n\n", strings.Join(parts, "; "))
	}

	if firm.Enrichment != nil && len(firm.Enrichment.Clients) > 0 {
		names := make([]string, 0, 15)
		for _, c := range firm.Enrichment.Clients {
			names = append(names, c.Name)
			if len(names) == 15 {
				break
			}
		}
		fmt.Fprintf(&b, "**Recent Clients:** %s\n", strings.Join(names, ", "))
	}

	return b.String()
}

func lobbyistWorthProfiling(l firmdata.Lobbyist) bool {
	return l.HasCoveredPosition || len(l.CoveredPositions) > 0 ||
		len(l.ClientExperience) > 0 || l.EntitySummary != ""
}

func buildProspectProfile(req *Request) string {
	labels := make([]string, 0, len(req.ProspectIssues))
	for _, code := range req.ProspectIssues {
		labels = append(labels, firmdata.IssueLabel(code))
	}
	return fmt.Sprintf(`**PROSPECT:** %s
**Industry:** %s
**Issue Areas:** %s
**Advocacy Goal:** %s
**Goal Type:** %s
**Venue:** %s
**Timeline:** %s
**Budget:** %s
**Current Representation:** %s
**Additional Context:** %s`,
		req.ProspectName,
		orText(req.ProspectIndustry, "Not specified"),
		strings.Join(labels, ", "),
		req.AdvocacyGoal,
		orText(req.GoalType, "Not specified"),
		orText(req.Venue, "Not specified"),
		orText(req.Timeline, "Not specified"),
		orText(req.BudgetRange, "Not specified"),
		orText(req.CurrentRepresentation, "None"),
		req.AdditionalContext)
}

func buildDraftPrompt(firm *firmdata.Firm, req *Request) string {
	return fmt.Sprintf(`Write a pitch memo from %s to the prospect below.

## FIRM PROFILE
%s

## PROSPECT PROFILE
%s`, firm.Name, buildFirmProfile(firm), buildProspectProfile(req))
}

func buildCritiquePrompt(req *Request, draft string) string {
	return fmt.Sprintf(`You are now the decision-maker at %s, the prospect receiving the pitch memo below. Read it skeptically, as someone who receives many such pitches.

Critique the memo from the prospect's perspective: where does it fail to address your stated goal (%s)? Which claims feel generic, unsupported, or interchangeable with any other firm? What would make you stop reading? What is missing that you would need before taking a meeting?

Be specific and blunt. Respond with a numbered list of concrete criticisms, strongest first.

## MEMO UNDER REVIEW
%s`, req.ProspectName, req.AdvocacyGoal, draft)
}

func buildPlanPrompt(draft, critique string) string {
	return fmt.Sprintf(`Given the draft memo and the prospect's critique below, produce a revision plan: a numbered list of specific, actionable edits that address each substantive criticism while keeping everything that already works. For each item name the memo section it applies to and what changes. Do not rewrite the memo yet.

## DRAFT
%s

## CRITIQUE
%s`, draft, critique)
}

func buildFinalPrompt(draft, critique, plan string) string {
	return fmt.Sprintf(`Apply the revision plan below to the draft memo and produce the final memo.

Respond with JSON only, no markdown fences, in this shape:
{"subjectLine": "email subject line for sending this memo", "memo": "the complete revised memo in markdown"}

## DRAFT
%s

## CRITIQUE
%s

## REVISION PLAN
%s`, draft, critique, plan)
}

func orText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
