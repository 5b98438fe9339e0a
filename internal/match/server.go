// Package match serves the firm-matching API: the deterministic ranking
// engine feeds a narrative generation pass, and the engine's scores always
// win over whatever the narrative claims.
package match

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
	"github.com/mikeburns/lobbyscope/internal/llm"
	"github.com/mikeburns/lobbyscope/internal/metrics"
	"github.com/mikeburns/lobbyscope/internal/ranking"
)

// Request is the intake form payload.
type Request struct {
	OrganizationType string   `json:"organizationType"`
	IssueArea        string   `json:"issueArea"`
	AdditionalIssues []string `json:"additionalIssues,omitempty"`
	Budget           string   `json:"budget,omitempty"`
	Priorities       []string `json:"priorities,omitempty"`
	OrgDescription   string   `json:"orgDescription"`
	PolicyGoals      string   `json:"policyGoals,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
}

// Validate reports the missing required fields, empty when valid.
func (r *Request) Validate() []string {
	var missing []string
	if r.OrganizationType == "" {
		missing = append(missing, "organizationType")
	}
	if r.IssueArea == "" {
		missing = append(missing, "issueArea")
	}
	if r.OrgDescription == "" {
		missing = append(missing, "orgDescription")
	}
	return missing
}

// Metadata accompanies every successful response.
type Metadata struct {
	Model             string               `json:"model"`
	InputTokens       int64                `json:"inputTokens"`
	OutputTokens      int64                `json:"outputTokens"`
	TimeMs            int64                `json:"timeMs"`
	FirmsAnalyzed     int                  `json:"firmsAnalyzed"`
	ScoreDistribution ranking.Distribution `json:"scoreDistribution"`
}

// Server handles the lobbymatch endpoints.
type Server struct {
	snapshot  *firmdata.Snapshot
	engine    *ranking.Engine
	llm       llm.Client
	log       *zap.Logger
	metrics   *metrics.Metrics
	scenarios []firmdata.Scenario
	tracer    trace.Tracer
}

// NewServer wires the handler mux.
func NewServer(snapshot *firmdata.Snapshot, engine *ranking.Engine, client llm.Client, log *zap.Logger, m *metrics.Metrics, scenarios []firmdata.Scenario) http.Handler {
	s := &Server{
		snapshot:  snapshot,
		engine:    engine,
		llm:       client,
		log:       log,
		metrics:   m,
		scenarios: scenarios,
		tracer:    otel.Tracer("lobbyscope/match"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/match", s.handleMatch)
	mux.HandleFunc("/api/match/stream", s.handleMatchStream)
	mux.HandleFunc("/api/issues", s.handleIssues)
	mux.HandleFunc("/api/scenarios", s.handleScenarios)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, details string) {
	payload := map[string]any{"error": msg}
	if details != "" {
		payload["details"] = details
	}
	writeJSON(w, status, payload)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return false
	}
	return true
}

func (s *Server) observe(endpoint string, status int, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(endpoint, strconv.Itoa(status), time.Since(start))
	}
}

// rank runs validation and the scoring engine, shared by both match
// handlers. A nil *Request return means the response was already written.
func (s *Server) rank(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time) (*Request, *ranking.Ranking) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		s.observe(endpoint, http.StatusBadRequest, start)
		return nil, nil
	}
	if missing := req.Validate(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields", fmt.Sprintf("%v", missing))
		s.observe(endpoint, http.StatusBadRequest, start)
		return nil, nil
	}

	relevant := s.snapshot.RelevantCommittees(req.IssueArea, req.AdditionalIssues)
	result, err := s.engine.Rank(s.snapshot.Firms(), ranking.Query{
		IssueArea:        req.IssueArea,
		AdditionalIssues: req.AdditionalIssues,
		Budget:           req.Budget,
	}, relevant)
	if err != nil {
		if errors.Is(err, ranking.ErrNoFirmData) {
			writeError(w, http.StatusInternalServerError, "No firm data available", "")
		} else {
			writeError(w, http.StatusInternalServerError, "Analysis failed", err.Error())
		}
		s.observe(endpoint, http.StatusInternalServerError, start)
		return nil, nil
	}
	if s.metrics != nil {
		s.metrics.RankingRuns.Inc()
	}
	return &req, result
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	start := time.Now()
	ctx, span := s.tracer.Start(r.Context(), "match.analyze")
	defer span.End()

	req, result := s.rank(w, r, "/api/match", start)
	if req == nil {
		return
	}
	span.SetAttributes(attribute.String("issue_area", req.IssueArea), attribute.Int("firms", result.TotalAnalyzed))

	methodology := BuildMethodology(result)
	gen, err := s.llm.Generate(ctx, llm.Request{
		System: systemPrompt,
		Prompt: BuildPrompt(req, result, methodology),
	})
	if err != nil {
		s.log.Error("narrative generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze matches", err.Error())
		s.observe("/api/match", http.StatusInternalServerError, start)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveTokens(gen.InputTokens, gen.OutputTokens)
	}

	analysis := MergeAuthoritative(gen.Text, result, methodology)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
		"metadata": Metadata{
			Model:             gen.Model,
			InputTokens:       gen.InputTokens,
			OutputTokens:      gen.OutputTokens,
			TimeMs:            time.Since(start).Milliseconds(),
			FirmsAnalyzed:     result.TotalAnalyzed,
			ScoreDistribution: result.ScoreDistribution,
		},
	})
	s.observe("/api/match", http.StatusOK, start)
	s.log.Info("match served",
		zap.String("issueArea", req.IssueArea),
		zap.Int("firmsAnalyzed", result.TotalAnalyzed),
		zap.Int64("timeMs", time.Since(start).Milliseconds()))
}

func (s *Server) handleMatchStream(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	start := time.Now()
	ctx, span := s.tracer.Start(r.Context(), "match.stream")
	defer span.End()

	req, result := s.rank(w, r, "/api/match/stream", start)
	if req == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		s.observe("/api/match/stream", http.StatusInternalServerError, start)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	emit := func(payload any) bool {
		blob, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		if _, err := bw.WriteString("data: "); err != nil {
			return false
		}
		if _, err := bw.Write(blob); err != nil {
			return false
		}
		if _, err := bw.WriteString("\n\n"); err != nil {
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// Scores first: the client renders the scoreboard while prose streams.
	if !emit(map[string]any{"type": "scores", "topFirms": result.TopFirms}) {
		return
	}

	methodology := BuildMethodology(result)
	gen, err := s.llm.Stream(ctx, llm.Request{
		System: systemPrompt,
		Prompt: BuildPrompt(req, result, methodology),
	}, func(text string) {
		emit(map[string]any{"type": "chunk", "text": text})
	})
	if err != nil {
		s.log.Error("narrative stream failed", zap.Error(err))
		emit(map[string]any{"type": "error", "error": err.Error()})
		s.observe("/api/match/stream", http.StatusInternalServerError, start)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveTokens(gen.InputTokens, gen.OutputTokens)
	}

	analysis := MergeAuthoritative(gen.Text, result, methodology)
	emit(map[string]any{
		"type":     "complete",
		"analysis": analysis,
		"metadata": Metadata{
			Model:             gen.Model,
			InputTokens:       gen.InputTokens,
			OutputTokens:      gen.OutputTokens,
			TimeMs:            time.Since(start).Milliseconds(),
			FirmsAnalyzed:     result.TotalAnalyzed,
			ScoreDistribution: result.ScoreDistribution,
		},
	})
	s.observe("/api/match/stream", http.StatusOK, start)
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": firmdata.IssueCodes})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": s.scenarios})
}
