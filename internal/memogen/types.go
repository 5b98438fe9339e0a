// Package memogen drives staged pitch-memo generation: draft, critique
// from the prospect's perspective, revision plan, final revision. Stages
// run strictly in sequence and stream to the client over SSE as they
// arrive.
package memogen

import "fmt"

// GenerationMode selects how many stages run and how results are
// delivered.
type GenerationMode string

const (
	// ModeDraft runs stage 1 only and streams it.
	ModeDraft GenerationMode = "draft"
	// ModeStandard runs all four stages without streaming; the caller
	// gets one JSON payload at the end.
	ModeStandard GenerationMode = "standard"
	// ModeDetailed runs all four stages streamed, with the review
	// checkpoint after the revision plan.
	ModeDetailed GenerationMode = "detailed"
)

// Valid reports whether the mode is one of the three known values.
func (m GenerationMode) Valid() bool {
	switch m {
	case ModeDraft, ModeStandard, ModeDetailed:
		return true
	}
	return false
}

// Stages returns how many pipeline stages the mode runs.
func (m GenerationMode) Stages() int {
	if m == ModeDraft {
		return 1
	}
	return stageCount
}

// Stage numbers. The sequence is fixed; there is no branching except the
// reject outcome at the checkpoint after StagePlan.
const (
	StageDraft    = 1
	StageCritique = 2
	StagePlan     = 3
	StageFinal    = 4

	stageCount = 4
)

// StageName returns the human-readable stage label used in logs and
// errors.
func StageName(n int) string {
	switch n {
	case StageDraft:
		return "draft"
	case StageCritique:
		return "critique"
	case StagePlan:
		return "revision-plan"
	case StageFinal:
		return "final-revision"
	}
	return fmt.Sprintf("stage-%d", n)
}

// StageError reports which stage failed. The pipeline never retries; the
// client decides whether to re-run the whole request.
type StageError struct {
	Stage int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Stage, StageName(e.Stage), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Ref names a party in the meta event.
type Ref struct {
	Name string `json:"name"`
}

// Event is one framed SSE message. Exactly one of the type-specific field
// groups is populated per event:
//
//	meta   -> Firm, Prospect, Model
//	stage  -> Stage, Status ("start" or "complete")
//	text   -> Stage, Content
//	done   -> MemosRemaining
//	error  -> Message
type Event struct {
	Type           string `json:"type"`
	Stage          int    `json:"stage,omitempty"`
	Status         string `json:"status,omitempty"`
	Content        string `json:"content,omitempty"`
	Message        string `json:"message,omitempty"`
	Firm           *Ref   `json:"firm,omitempty"`
	Prospect       *Ref   `json:"prospect,omitempty"`
	Model          string `json:"model,omitempty"`
	MemosRemaining *int   `json:"memosRemaining,omitempty"`
}

// Event type tags.
const (
	EventMeta  = "meta"
	EventStage = "stage"
	EventText  = "text"
	EventDone  = "done"
	EventError = "error"

	StatusStart    = "start"
	StatusComplete = "complete"
)

// Sink receives pipeline events in emission order.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(e Event) error { return f(e) }

// Request is the generation target.
type Request struct {
	FirmName              string         `json:"firmName"`
	ProspectName          string         `json:"prospectName"`
	ProspectIndustry      string         `json:"prospectIndustry,omitempty"`
	ProspectIssues        []string       `json:"prospectIssues"`
	AdvocacyGoal          string         `json:"advocacyGoal"`
	GoalType              string         `json:"goalType,omitempty"`
	Venue                 string         `json:"venue,omitempty"`
	Timeline              string         `json:"timeline,omitempty"`
	BudgetRange           string         `json:"budgetRange,omitempty"`
	CurrentRepresentation string         `json:"currentRepresentation,omitempty"`
	AdditionalContext     string         `json:"additionalContext,omitempty"`
	GenerationMode        GenerationMode `json:"generationMode,omitempty"`
}

// MissingFields reports which required fields are absent.
func (r *Request) MissingFields() []string {
	var missing []string
	if r.FirmName == "" {
		missing = append(missing, "firmName")
	}
	if r.ProspectName == "" {
		missing = append(missing, "prospectName")
	}
	if len(r.ProspectIssues) == 0 {
		missing = append(missing, "prospectIssues")
	}
	if r.AdvocacyGoal == "" {
		missing = append(missing, "advocacyGoal")
	}
	return missing
}
