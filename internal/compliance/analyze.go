package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/llm"
)

// Finding categories, in severity order.
const (
	CategoryCritical = "critical"
	CategoryGap      = "gap"
	CategoryMet      = "met"
)

// Finding is one requirement-level result of the gap analysis.
type Finding struct {
	Category       string `json:"category"`
	Requirement    string `json:"requirement"`
	Finding        string `json:"finding"`
	Citation       string `json:"citation,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Evidence       string `json:"evidence,omitempty"`
}

// Summary counts findings per category.
type Summary struct {
	Met      int `json:"met"`
	Gaps     int `json:"gaps"`
	Critical int `json:"critical"`
}

// Analysis is the full gap-analysis result. Findings are ordered
// critical, then gap, then met; within a category the model's order is
// kept.
type Analysis struct {
	Framework string    `json:"framework"`
	Summary   Summary   `json:"summary"`
	Findings  []Finding `json:"findings"`
}

// Analyzer runs gap analysis through the generation client.
type Analyzer struct {
	llm    llm.Client
	log    *zap.Logger
	tracer trace.Tracer
}

func NewAnalyzer(client llm.Client, log *zap.Logger) *Analyzer {
	return &Analyzer{
		llm:    client,
		log:    log,
		tracer: otel.Tracer("lobbyscope/compliance"),
	}
}

func buildAnalysisPrompt(policyText, framework string) string {
	return fmt.Sprintf(`You are a compliance expert analyzing a %s policy document.

REGULATORY REQUIREMENTS:
%s

POLICY DOCUMENT:
%s

TASK:
Perform a comprehensive gap analysis. Identify:
1. Requirements that are adequately addressed
2. Requirements with gaps or weaknesses
3. Critical deficiencies that pose compliance risk

For each finding, provide:
- Category: "met", "gap", or "critical"
- Requirement: Which requirement this addresses
- Finding: Description of what you found
- Citation: Relevant regulatory citation
- Recommendation: Specific actionable fix (only for gaps/critical)
- Evidence: Brief quote from policy (only for met items)

Return ONLY valid JSON in this exact format:
{
  "summary": {"met": number, "gaps": number, "critical": number},
  "findings": [
    {
      "category": "met|gap|critical",
      "requirement": "string",
      "finding": "string",
      "citation": "string",
      "recommendation": "string (optional)",
      "evidence": "string (optional)"
    }
  ]
}`, framework, requirementList(framework), policyText)
}

// Analyze runs the gap analysis for one policy document. The summary
// counts are recomputed from the findings rather than trusted from the
// model.
func (a *Analyzer) Analyze(ctx context.Context, policyText, framework string) (*Analysis, error) {
	if !KnownFramework(framework) {
		return nil, fmt.Errorf("unknown framework %q", framework)
	}
	if strings.TrimSpace(policyText) == "" {
		return nil, fmt.Errorf("empty policy document")
	}

	ctx, span := a.tracer.Start(ctx, "compliance.analyze",
		trace.WithAttributes(attribute.String("framework", framework)))
	defer span.End()

	gen, err := a.llm.Generate(ctx, llm.Request{
		Prompt: buildAnalysisPrompt(policyText, framework),
	})
	if err != nil {
		return nil, fmt.Errorf("gap analysis: %w", err)
	}

	var parsed struct {
		Findings []Finding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(gen.Text)), &parsed); err != nil {
		a.log.Error("analysis response unparseable", zap.Error(err))
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	analysis := &Analysis{Framework: framework, Findings: parsed.Findings}
	for i := range analysis.Findings {
		analysis.Findings[i].Category = normalizeCategory(analysis.Findings[i].Category)
		switch analysis.Findings[i].Category {
		case CategoryMet:
			analysis.Summary.Met++
		case CategoryGap:
			analysis.Summary.Gaps++
		case CategoryCritical:
			analysis.Summary.Critical++
		}
	}
	sortFindings(analysis.Findings)
	return analysis, nil
}

func normalizeCategory(c string) string {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case CategoryCritical:
		return CategoryCritical
	case CategoryMet:
		return CategoryMet
	default:
		return CategoryGap
	}
}

var categoryOrder = map[string]int{
	CategoryCritical: 0,
	CategoryGap:      1,
	CategoryMet:      2,
}

// sortFindings orders findings most severe first, keeping the model's
// order within each category.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return categoryOrder[findings[i].Category] < categoryOrder[findings[j].Category]
	})
}

// Markdown renders the analysis as a report document for export.
func (a *Analysis) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Compliance Gap Analysis: %s\n\n", a.Framework)
	fmt.Fprintf(&b, "**Met:** %d &nbsp; **Gaps:** %d &nbsp; **Critical:** %d\n\n",
		a.Summary.Met, a.Summary.Gaps, a.Summary.Critical)
	for _, f := range a.Findings {
		fmt.Fprintf(&b, "## [%s] %s\n\n", strings.ToUpper(f.Category), f.Requirement)
		if f.Citation != "" {
			fmt.Fprintf(&b, "*%s*\n\n", f.Citation)
		}
		fmt.Fprintf(&b, "%s\n\n", f.Finding)
		if f.Recommendation != "" {
			fmt.Fprintf(&b, "**Recommendation:** %s\n\n", f.Recommendation)
		}
		if f.Evidence != "" {
			fmt.Fprintf(&b, "> %s\n\n", f.Evidence)
		}
	}
	return b.String()
}
