package memogen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/firmdata"
	"github.com/mikeburns/lobbyscope/internal/metrics"
	"github.com/mikeburns/lobbyscope/internal/usage"
)

const serviceName = "pitchsource"

// Server handles the pitchsource endpoints.
type Server struct {
	snapshot  *firmdata.Snapshot
	pipeline  *Pipeline
	quota     usage.Quota
	memoLimit int
	usageKey  string
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewServer wires the handler mux. usageKey protects the usage log
// endpoint; an empty key disables it.
func NewServer(snapshot *firmdata.Snapshot, pipeline *Pipeline, quota usage.Quota, memoLimit int, usageKey string, log *zap.Logger, m *metrics.Metrics) http.Handler {
	s := &Server{
		snapshot:  snapshot,
		pipeline:  pipeline,
		quota:     quota,
		memoLimit: memoLimit,
		usageKey:  usageKey,
		log:       log,
		metrics:   m,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-memo", s.handleGenerate)
	mux.HandleFunc("/api/firms", s.handleFirms)
	mux.HandleFunc("/api/firms/", s.handleFirmByID)
	mux.HandleFunc("/api/issues", s.handleIssues)
	mux.HandleFunc("/api/usage-logs", s.handleUsageLogs)
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

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	start := time.Now()
	ctx := r.Context()
	runID := uuid.NewString()
	w.Header().Set("X-Request-Id", runID)
	log := s.log.With(zap.String("runId", runID))

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		s.observe("/api/generate-memo", http.StatusBadRequest, start)
		return
	}
	if req.GenerationMode == "" {
		req.GenerationMode = ModeDraft
	}
	if !req.GenerationMode.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid generationMode", string(req.GenerationMode))
		s.observe("/api/generate-memo", http.StatusBadRequest, start)
		return
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields", fmt.Sprintf("%v", missing))
		s.observe("/api/generate-memo", http.StatusBadRequest, start)
		return
	}

	firm, ok := s.snapshot.FirmByID(req.FirmName)
	if !ok {
		writeError(w, http.StatusNotFound, "Firm not found", req.FirmName)
		s.observe("/api/generate-memo", http.StatusNotFound, start)
		return
	}

	used, remaining, err := s.quota.Check(ctx)
	if err != nil {
		log.Error("quota check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Usage check failed", "")
		s.observe("/api/generate-memo", http.StatusInternalServerError, start)
		return
	}
	if remaining <= 0 {
		if s.metrics != nil {
			s.metrics.QuotaRejects.Inc()
		}
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     "Memo generation limit reached",
			"memosUsed": used,
			"limit":     s.memoLimit,
		})
		s.observe("/api/generate-memo", http.StatusTooManyRequests, start)
		return
	}

	log.Info("memo generation started",
		zap.String("firm", firm.Name),
		zap.String("prospect", req.ProspectName),
		zap.String("mode", string(req.GenerationMode)))

	if req.GenerationMode == ModeStandard {
		s.generateJSON(w, r, &req, firm, start, log)
		return
	}
	s.generateStream(w, r, &req, firm, start, log)
}

// generateJSON runs the full pipeline without streaming and returns one
// payload at the end.
func (s *Server) generateJSON(w http.ResponseWriter, r *http.Request, req *Request, firm *firmdata.Firm, start time.Time, log *zap.Logger) {
	ctx := r.Context()
	res, err := s.pipeline.Run(ctx, req, firm, nil)
	if err != nil {
		log.Error("memo generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Memo generation failed", err.Error())
		s.observe("/api/generate-memo", http.StatusInternalServerError, start)
		return
	}

	remaining := s.record(r, req, firm, res, log)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"memo":           res.Final,
		"subjectLine":    res.Subject,
		"model":          res.Model,
		"timeMs":         time.Since(start).Milliseconds(),
		"memosRemaining": remaining,
	})
	s.observe("/api/generate-memo", http.StatusOK, start)
}

// generateStream runs the pipeline over SSE. Errors after the headers are
// sent go out as in-band error events.
func (s *Server) generateStream(w http.ResponseWriter, r *http.Request, req *Request, firm *firmdata.Firm, start time.Time, log *zap.Logger) {
	ctx := r.Context()
	sink, err := newSSESink(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		s.observe("/api/generate-memo", http.StatusInternalServerError, start)
		return
	}

	if err := sink.Emit(Event{
		Type:     EventMeta,
		Firm:     &Ref{Name: firm.Name},
		Prospect: &Ref{Name: req.ProspectName},
		Model:    s.pipeline.model,
	}); err != nil {
		s.observe("/api/generate-memo", http.StatusInternalServerError, start)
		return
	}

	res, err := s.pipeline.Run(ctx, req, firm, sink)
	if err != nil {
		// The pipeline already emitted the error event.
		log.Error("memo generation failed", zap.Error(err))
		s.observe("/api/generate-memo", http.StatusInternalServerError, start)
		return
	}

	remaining := s.record(r, req, firm, res, log)
	_ = sink.Emit(Event{Type: EventDone, MemosRemaining: &remaining})
	s.observe("/api/generate-memo", http.StatusOK, start)
}

// record logs the completed generation against the quota and returns how
// many memos remain.
func (s *Server) record(r *http.Request, req *Request, firm *firmdata.Firm, res *Result, log *zap.Logger) int {
	ctx := r.Context()
	err := s.quota.Record(ctx, usage.Entry{
		Service:  serviceName,
		Firm:     firm.Name,
		Prospect: req.ProspectName,
		Industry: req.ProspectIndustry,
		Issues:   req.ProspectIssues,
		Model:    res.Model,
	})
	if err != nil {
		log.Error("usage record failed", zap.Error(err))
	}
	_, remaining, err := s.quota.Check(ctx)
	if err != nil {
		log.Error("quota check failed", zap.Error(err))
		return 0
	}
	log.Info("memo generation complete",
		zap.String("firm", firm.Name),
		zap.Bool("rejected", res.Rejected),
		zap.Int64("outputTokens", res.OutputTokens),
		zap.Int("memosRemaining", remaining))
	return remaining
}

func (s *Server) handleFirms(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"firms": s.snapshot.Summaries()})
}

func (s *Server) handleFirmByID(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/firms/")
	if id == "" {
		writeError(w, http.StatusNotFound, "Firm not found", "")
		return
	}
	firm, ok := s.snapshot.FirmByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Firm not found", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"firm": firm})
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": firmdata.IssueCodes})
}

func (s *Server) handleUsageLogs(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.usageKey == "" || r.URL.Query().Get("key") != s.usageKey {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.quota.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load usage log", err.Error())
		return
	}
	used, remaining, err := s.quota.Check(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load usage log", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":      entries,
		"memosUsed": used,
		"remaining": remaining,
		"limit":     s.memoLimit,
	})
}
