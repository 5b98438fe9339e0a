// Package llm wraps the Anthropic SDK behind a small client interface so
// generation paths can be scripted in tests.
package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

// Request is one generation call. MaxTokens of 0 uses the client default.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Result carries the full response text plus the usage metadata surfaced to
// API clients.
type Result struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Client is the seam the pipelines depend on. Generate buffers the whole
// response; Stream forwards text deltas through onChunk as they arrive and
// still returns the assembled result.
type Client interface {
	Generate(ctx context.Context, req Request) (Result, error)
	Stream(ctx context.Context, req Request, onChunk func(text string)) (Result, error)
}

// Anthropic implements Client against the hosted API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicFromEnv builds a client from ANTHROPIC_API_KEY. model may be
// empty, falling back to DefaultModel.
func NewAnthropicFromEnv(model string, maxTokens int64) (*Anthropic, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}, nil
}

func (a *Anthropic) params(req Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	return anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	}
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (Result, error) {
	resp, err := a.client.Messages.New(ctx, a.params(req))
	if err != nil {
		return Result{}, err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return Result{
		Text:         sb.String(),
		Model:        string(resp.Model),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func (a *Anthropic) Stream(ctx context.Context, req Request, onChunk func(text string)) (Result, error) {
	stream := a.client.Messages.NewStreaming(ctx, a.params(req))
	msg := anthropic.Message{}
	var sb strings.Builder
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return Result{}, err
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				sb.WriteString(delta.Text)
				if onChunk != nil {
					onChunk(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Result{}, err
	}
	return Result{
		Text:         sb.String(),
		Model:        string(msg.Model),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}

// StripFences removes a markdown code fence wrapper from a model response
// before JSON parsing.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
