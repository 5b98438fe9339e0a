package memogen

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
	"github.com/mikeburns/lobbyscope/internal/llm"
	"github.com/mikeburns/lobbyscope/internal/metrics"
)

// CheckpointFn is consulted after the revision plan in detailed mode.
// Returning false rejects the plan: the stage 1 draft becomes the final
// memo and the final revision never runs.
type CheckpointFn func(ctx context.Context, req *Request, stageOutputs map[int]string) (bool, error)

// Pipeline runs the memo stages in order against a single generation
// client. A stage failure aborts the run; there are no retries.
type Pipeline struct {
	llm          llm.Client
	model        string
	stageTimeout time.Duration
	checkpoint   CheckpointFn
	log          *zap.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// NewPipeline builds a pipeline. A nil checkpoint auto-accepts the
// revision plan.
func NewPipeline(client llm.Client, model string, stageTimeout time.Duration, checkpoint CheckpointFn, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	if stageTimeout <= 0 {
		stageTimeout = 60 * time.Second
	}
	return &Pipeline{
		llm:          client,
		model:        model,
		stageTimeout: stageTimeout,
		checkpoint:   checkpoint,
		log:          log,
		metrics:      m,
		tracer:       otel.Tracer("lobbyscope/memogen"),
	}
}

// Result is the outcome of a pipeline run.
type Result struct {
	StageOutputs map[int]string
	Final        string
	Subject      string
	Structured   bool
	Rejected     bool
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Run executes the stages the request's mode calls for. With a non-nil
// sink every stage streams text events as it generates; with a nil sink
// stages run as single blocking calls. Errors are emitted to the sink as
// an error event before being returned.
func (p *Pipeline) Run(ctx context.Context, req *Request, firm *firmdata.Firm, sink Sink) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "memogen.run",
		trace.WithAttributes(
			attribute.String("firm", firm.Name),
			attribute.String("mode", string(req.GenerationMode)),
		))
	defer span.End()

	res := &Result{StageOutputs: make(map[int]string), Model: p.model}
	err := p.run(ctx, req, firm, sink, res)
	if err != nil {
		if sink != nil {
			_ = sink.Emit(Event{Type: EventError, Message: err.Error()})
		}
		return res, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req *Request, firm *firmdata.Firm, sink Sink, res *Result) error {
	draft, err := p.runStage(ctx, StageDraft, buildDraftPrompt(firm, req), sink, res)
	if err != nil {
		return err
	}
	res.Final = draft

	if req.GenerationMode.Stages() == 1 {
		return nil
	}

	critique, err := p.runStage(ctx, StageCritique, buildCritiquePrompt(req, draft), sink, res)
	if err != nil {
		return err
	}

	plan, err := p.runStage(ctx, StagePlan, buildPlanPrompt(draft, critique), sink, res)
	if err != nil {
		return err
	}

	if req.GenerationMode == ModeDetailed && p.checkpoint != nil {
		accepted, err := p.checkpoint(ctx, req, res.StageOutputs)
		if err != nil {
			return &StageError{Stage: StagePlan, Err: err}
		}
		if !accepted {
			// Plan rejected: the draft stands as the final memo.
			res.Rejected = true
			res.Final = draft
			return nil
		}
	}

	final, err := p.runStage(ctx, StageFinal, buildFinalPrompt(draft, critique, plan), sink, res)
	if err != nil {
		return err
	}

	subject, memo, structured := parseFinal(final)
	res.Final = memo
	res.Subject = subject
	res.Structured = structured
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage int, prompt string, sink Sink, res *Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	start := time.Now()
	if sink != nil {
		if err := sink.Emit(Event{Type: EventStage, Stage: stage, Status: StatusStart}); err != nil {
			return "", &StageError{Stage: stage, Err: err}
		}
	}

	lreq := llm.Request{System: systemPrompt, Prompt: prompt}
	var (
		gen llm.Result
		err error
	)
	if sink != nil {
		gen, err = p.llm.Stream(ctx, lreq, func(text string) {
			_ = sink.Emit(Event{Type: EventText, Stage: stage, Content: text})
		})
	} else {
		gen, err = p.llm.Generate(ctx, lreq)
	}
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}

	res.StageOutputs[stage] = gen.Text
	res.InputTokens += gen.InputTokens
	res.OutputTokens += gen.OutputTokens
	if gen.Model != "" {
		res.Model = gen.Model
	}
	if p.metrics != nil {
		p.metrics.StageDuration.WithLabelValues(StageName(stage)).Observe(time.Since(start).Seconds())
		p.metrics.ObserveTokens(gen.InputTokens, gen.OutputTokens)
	}
	if p.log != nil {
		p.log.Info("stage complete",
			zap.String("stage", StageName(stage)),
			zap.Int("chars", len(gen.Text)),
			zap.Int64("ms", time.Since(start).Milliseconds()))
	}

	if sink != nil {
		if err := sink.Emit(Event{Type: EventStage, Stage: stage, Status: StatusComplete}); err != nil {
			return "", &StageError{Stage: stage, Err: err}
		}
	}
	return gen.Text, nil
}

// parseFinal extracts {subjectLine, memo} from the final stage output.
// When the model ignores the JSON instruction the raw text is used as the
// memo and structured is false.
func parseFinal(text string) (subject, memo string, structured bool) {
	var payload struct {
		SubjectLine string `json:"subjectLine"`
		Memo        string `json:"memo"`
	}
	clean := llm.StripFences(text)
	if err := json.Unmarshal([]byte(clean), &payload); err == nil && strings.TrimSpace(payload.Memo) != "" {
		return payload.SubjectLine, payload.Memo, true
	}
	return "", text, false
}
