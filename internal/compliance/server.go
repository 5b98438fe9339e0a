package compliance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/metrics"
)

const maxUploadBytes = 10 << 20

// PDFRenderer renders a markdown report to PDF. Satisfied by
// report.Renderer.
type PDFRenderer interface {
	PDF(ctx context.Context, title, markdown string) ([]byte, error)
}

// Server handles the compliancelens endpoints.
type Server struct {
	analyzer  *Analyzer
	extractor Extractor
	renderer  PDFRenderer
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewServer wires the handler mux. renderer may be nil, which disables
// the PDF export endpoint.
func NewServer(analyzer *Analyzer, extractor Extractor, renderer PDFRenderer, log *zap.Logger, m *metrics.Metrics) http.Handler {
	s := &Server{
		analyzer:  analyzer,
		extractor: extractor,
		renderer:  renderer,
		log:       log,
		metrics:   m,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/frameworks", s.handleFrameworks)
	mux.HandleFunc("/export/pdf", s.handleExportPDF)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) observe(endpoint string, status int, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(endpoint, strconv.Itoa(status), time.Since(start))
	}
}

// templateRequest is the JSON shape for pasted-in policy text.
type templateRequest struct {
	IsTemplate bool   `json:"isTemplate"`
	PolicyText string `json:"policyText"`
	Framework  string `json:"framework"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	start := time.Now()

	policyText, framework, ok := s.readPolicy(w, r)
	if !ok {
		s.observe("/analyze", http.StatusBadRequest, start)
		return
	}
	if !KnownFramework(framework) {
		writeError(w, http.StatusBadRequest, "Unknown framework")
		s.observe("/analyze", http.StatusBadRequest, start)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), policyText, framework)
	if err != nil {
		s.log.Error("analysis failed", zap.String("framework", framework), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		s.observe("/analyze", http.StatusInternalServerError, start)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
	s.observe("/analyze", http.StatusOK, start)
	s.log.Info("analysis served",
		zap.String("framework", framework),
		zap.Int("findings", len(analysis.Findings)),
		zap.Int64("timeMs", time.Since(start).Milliseconds()))
}

// readPolicy pulls policy text and framework from either a JSON template
// submission or a multipart file upload. A false return means the error
// response was already written.
func (s *Server) readPolicy(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return "", "", false
		}
		if strings.TrimSpace(req.PolicyText) == "" {
			writeError(w, http.StatusBadRequest, "No policy text provided")
			return "", "", false
		}
		return req.PolicyText, req.Framework, true
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return "", "", false
	}
	framework := r.FormValue("framework")
	file, header, err := r.FormFile("policy")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return "", "", false
	}
	defer file.Close()

	fileType := header.Header.Get("Content-Type")
	if !s.extractor.Supports(fileType) {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return "", "", false
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return "", "", false
	}
	text, err := s.extractor.Extract(r.Context(), fileType, data)
	if err != nil {
		s.log.Error("extraction failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Could not extract text from upload")
		return "", "", false
	}
	return text, framework, true
}

func (s *Server) handleFrameworks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": FrameworkNames()})
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	start := time.Now()
	if s.renderer == nil {
		writeError(w, http.StatusNotImplemented, "PDF export not available")
		s.observe("/export/pdf", http.StatusNotImplemented, start)
		return
	}

	var analysis Analysis
	if err := json.NewDecoder(r.Body).Decode(&analysis); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		s.observe("/export/pdf", http.StatusBadRequest, start)
		return
	}
	if len(analysis.Findings) == 0 {
		writeError(w, http.StatusBadRequest, "No findings to export")
		s.observe("/export/pdf", http.StatusBadRequest, start)
		return
	}
	sortFindings(analysis.Findings)

	pdf, err := s.renderer.PDF(r.Context(), "Compliance Gap Analysis: "+analysis.Framework, analysis.Markdown())
	if err != nil {
		s.log.Error("pdf export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Export failed")
		s.observe("/export/pdf", http.StatusInternalServerError, start)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="gap-analysis.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
	s.observe("/export/pdf", http.StatusOK, start)
}
