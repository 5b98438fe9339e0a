package firmdata

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is a prefilled example request served to the intake form.
type Scenario struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	OrganizationType string   `json:"organizationType"`
	IssueArea        string   `json:"issueArea"`
	AdditionalIssues []string `json:"additionalIssues,omitempty"`
	Budget           string   `json:"budget,omitempty"`
	OrgDescription   string   `json:"orgDescription"`
	PolicyGoals      string   `json:"policyGoals,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
}

// LoadScenarios reads the example-scenario file. A missing path returns an
// empty list rather than an error so the endpoint degrades quietly.
func LoadScenarios(path string) ([]Scenario, error) {
	if path == "" {
		return nil, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var out struct {
		Scenarios []Scenario `json:"scenarios"`
	}
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	return out.Scenarios, nil
}
