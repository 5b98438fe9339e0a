// Package compliance runs regulatory gap analysis over policy documents:
// a framework's requirement catalog plus the policy text go to the model,
// findings come back categorized met, gap, or critical.
package compliance

import (
	"fmt"
	"sort"
	"strings"
)

// Requirement is one item in a framework's catalog.
type Requirement struct {
	Text     string
	Citation string
}

// frameworks holds the supported regulatory frameworks and their
// requirement catalogs.
var frameworks = map[string][]Requirement{
	"BSA/AML": {
		{Text: "Customer Identification Program (CIP)", Citation: "31 CFR 1020.220"},
		{Text: "Customer Due Diligence (CDD)", Citation: "31 CFR 1010.230"},
		{Text: "Suspicious Activity Reporting (SAR)", Citation: "31 CFR 1020.320"},
		{Text: "Currency Transaction Reporting (CTR)", Citation: "31 CFR 1010.311"},
		{Text: "Transaction Monitoring Systems"},
		{Text: "Risk-Based Approach to customer relationships"},
		{Text: "Politically Exposed Persons (PEP) screening"},
		{Text: "Enhanced Due Diligence for high-risk customers"},
		{Text: "Training Requirements, annual AML training"},
		{Text: "Independent Testing, annual audit requirement"},
	},
	"FCPA": {
		{Text: "Written anti-corruption policy"},
		{Text: "Prohibitions on bribes to foreign officials"},
		{Text: "Third-party due diligence procedures"},
		{Text: "Gifts and entertainment limits and tracking"},
		{Text: "Books and records accuracy requirements"},
		{Text: "Internal controls for payments"},
		{Text: "Training requirements for employees"},
		{Text: "Reporting and whistleblower mechanisms"},
		{Text: "Disciplinary procedures for violations"},
		{Text: "Periodic risk assessments"},
	},
}

// KnownFramework reports whether the framework has a requirement catalog.
func KnownFramework(name string) bool {
	_, ok := frameworks[name]
	return ok
}

// FrameworkNames lists the supported frameworks, sorted.
func FrameworkNames() []string {
	names := make([]string, 0, len(frameworks))
	for name := range frameworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// requirementList formats a framework's catalog as the numbered list the
// analysis prompt embeds.
func requirementList(framework string) string {
	reqs, ok := frameworks[framework]
	if !ok {
		return "No requirements defined for this framework"
	}
	var b strings.Builder
	for i, r := range reqs {
		if r.Citation != "" {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Text, r.Citation)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
