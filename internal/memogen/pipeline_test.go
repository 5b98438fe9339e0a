package memogen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
	"github.com/mikeburns/lobbyscope/internal/llm"
)

// scriptLLM returns canned responses in call order. failAt makes the n-th
// call fail (1-based, 0 disables).
type scriptLLM struct {
	responses []string
	failAt    int
	calls     int
}

func (s *scriptLLM) next() (string, error) {
	s.calls++
	if s.failAt == s.calls {
		return "", errors.New("upstream unavailable")
	}
	if s.calls > len(s.responses) {
		return "", errors.New("script exhausted")
	}
	return s.responses[s.calls-1], nil
}

func (s *scriptLLM) Generate(ctx context.Context, req llm.Request) (llm.Result, error) {
	text, err := s.next()
	if err != nil {
		return llm.Result{}, err
	}
	return llm.Result{Text: text, Model: "fake-model", InputTokens: 10, OutputTokens: 20}, nil
}

func (s *scriptLLM) Stream(ctx context.Context, req llm.Request, onChunk func(string)) (llm.Result, error) {
	text, err := s.next()
	if err != nil {
		return llm.Result{}, err
	}
	half := len(text) / 2
	onChunk(text[:half])
	onChunk(text[half:])
	return llm.Result{Text: text, Model: "fake-model", InputTokens: 10, OutputTokens: 20}, nil
}

// collector records emitted events in order.
type collector struct {
	events []Event
}

func (c *collector) Emit(e Event) error {
	c.events = append(c.events, e)
	return nil
}

func fourStageScript() []string {
	return []string{
		"DRAFT-A",
		"CRITIQUE-B",
		"PLAN-C",
		`{"subjectLine": "Representing your interests", "memo": "FINAL-D"}`,
	}
}

func testFirm() *firmdata.Firm {
	return &firmdata.Firm{Name: "Alpha Strategies"}
}

func testRequest(mode GenerationMode) *Request {
	return &Request{
		FirmName:       "Alpha Strategies",
		ProspectName:   "Acme Corp",
		ProspectIssues: []string{"BAN"},
		AdvocacyGoal:   "pass the widget act",
		GenerationMode: mode,
	}
}

func newTestPipeline(client llm.Client, checkpoint CheckpointFn) *Pipeline {
	return NewPipeline(client, "fake-model", time.Second, checkpoint, nil, nil)
}

func TestPipelineStandardRunsAllStages(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript()}
	p := newTestPipeline(script, nil)

	res, err := p.Run(context.Background(), testRequest(ModeStandard), testFirm(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if script.calls != 4 {
		t.Fatalf("expected 4 stage calls, got %d", script.calls)
	}
	if res.Final != "FINAL-D" || res.Subject != "Representing your interests" || !res.Structured {
		t.Fatalf("unexpected final: %+v", res)
	}
	if res.StageOutputs[StageCritique] != "CRITIQUE-B" {
		t.Fatalf("missing intermediate output: %v", res.StageOutputs)
	}
	if res.InputTokens != 40 || res.OutputTokens != 80 {
		t.Fatalf("tokens must accumulate across stages: in=%d out=%d", res.InputTokens, res.OutputTokens)
	}
}

func TestPipelineDraftRunsOneStage(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript()}
	p := newTestPipeline(script, nil)
	sink := &collector{}

	res, err := p.Run(context.Background(), testRequest(ModeDraft), testFirm(), sink)
	if err != nil {
		t.Fatal(err)
	}
	if script.calls != 1 {
		t.Fatalf("draft mode must stop after stage 1, got %d calls", script.calls)
	}
	if res.Final != "DRAFT-A" {
		t.Fatalf("unexpected final %q", res.Final)
	}
	for _, e := range sink.events {
		if e.Stage > StageDraft {
			t.Fatalf("no events past stage 1 in draft mode: %+v", e)
		}
	}
}

func TestPipelineDetailedEventOrder(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript()}
	p := newTestPipeline(script, nil)
	sink := &collector{}

	if _, err := p.Run(context.Background(), testRequest(ModeDetailed), testFirm(), sink); err != nil {
		t.Fatal(err)
	}

	// Per stage: start, two text chunks, complete.
	wantPerStage := []struct {
		typ    string
		status string
	}{
		{EventStage, StatusStart},
		{EventText, ""},
		{EventText, ""},
		{EventStage, StatusComplete},
	}
	if len(sink.events) != 4*len(wantPerStage) {
		t.Fatalf("unexpected event count %d: %+v", len(sink.events), sink.events)
	}
	for stage := StageDraft; stage <= StageFinal; stage++ {
		base := (stage - 1) * len(wantPerStage)
		for i, want := range wantPerStage {
			got := sink.events[base+i]
			if got.Type != want.typ || got.Status != want.status || got.Stage != stage {
				t.Fatalf("event %d = %+v, want type=%s status=%s stage=%d", base+i, got, want.typ, want.status, stage)
			}
		}
	}
}

func TestPipelineRejectAtCheckpoint(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript()}
	reject := func(ctx context.Context, req *Request, outputs map[int]string) (bool, error) {
		if outputs[StagePlan] != "PLAN-C" {
			t.Fatalf("checkpoint must see the revision plan: %v", outputs)
		}
		return false, nil
	}
	p := newTestPipeline(script, reject)
	sink := &collector{}

	res, err := p.Run(context.Background(), testRequest(ModeDetailed), testFirm(), sink)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Fatal("expected rejected result")
	}
	if res.Final != "DRAFT-A" {
		t.Fatalf("rejected run must fall back to the draft, got %q", res.Final)
	}
	if script.calls != 3 {
		t.Fatalf("stage 4 must not run after rejection, got %d calls", script.calls)
	}
	for _, e := range sink.events {
		if e.Stage == StageFinal {
			t.Fatalf("no stage 4 events after rejection: %+v", e)
		}
	}
}

func TestPipelineCheckpointIgnoredInStandardMode(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript()}
	reject := func(ctx context.Context, req *Request, outputs map[int]string) (bool, error) {
		return false, nil
	}
	p := newTestPipeline(script, reject)

	res, err := p.Run(context.Background(), testRequest(ModeStandard), testFirm(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected || res.Final != "FINAL-D" {
		t.Fatalf("standard mode must not consult the checkpoint: %+v", res)
	}
}

func TestPipelineStageErrorSurfaced(t *testing.T) {
	script := &scriptLLM{responses: fourStageScript(), failAt: 2}
	p := newTestPipeline(script, nil)
	sink := &collector{}

	_, err := p.Run(context.Background(), testRequest(ModeDetailed), testFirm(), sink)
	if err == nil {
		t.Fatal("expected error")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageCritique {
		t.Fatalf("expected critique stage error, got %v", err)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventError || last.Message == "" {
		t.Fatalf("expected trailing error event, got %+v", last)
	}
}

func TestPipelineUnstructuredFinalFallsBackToRawText(t *testing.T) {
	script := &scriptLLM{responses: []string{"DRAFT-A", "CRITIQUE-B", "PLAN-C", "just prose, no json"}}
	p := newTestPipeline(script, nil)

	res, err := p.Run(context.Background(), testRequest(ModeStandard), testFirm(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Structured {
		t.Fatal("non-JSON final must not be marked structured")
	}
	if res.Final != "just prose, no json" || res.Subject != "" {
		t.Fatalf("unexpected fallback: %+v", res)
	}
}
