package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/metrics"
)

const analysisResponse = `{
	"summary": {"met": 1, "gaps": 0, "critical": 1},
	"findings": [
		{"category": "met", "requirement": "CIP", "finding": "covered"},
		{"category": "critical", "requirement": "SAR", "finding": "absent"}
	]
}`

type stubRenderer struct {
	markdown string
}

func (s *stubRenderer) PDF(ctx context.Context, title, markdown string) ([]byte, error) {
	s.markdown = markdown
	return []byte("%PDF-1.4 stub"), nil
}

func newComplianceServer(t *testing.T, client *fakeLLM, renderer PDFRenderer) http.Handler {
	t.Helper()
	return NewServer(NewAnalyzer(client, zap.NewNop()), PlainTextExtractor{}, renderer,
		zap.NewNop(), metrics.New("test"))
}

func TestAnalyzeTemplateSubmission(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{text: analysisResponse}, nil)
	body := `{"isTemplate": true, "policyText": "our AML policy", "framework": "BSA/AML"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Framework != "BSA/AML" || got.Summary.Critical != 1 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if got.Findings[0].Category != CategoryCritical {
		t.Fatalf("critical findings must come first: %+v", got.Findings)
	}
}

func TestAnalyzeFileUpload(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{text: analysisResponse}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("framework", "FCPA")
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="policy"; filename="policy.txt"`)
	hdr.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("our anti-corruption policy"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeRejectsUnsupportedFileType(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{text: analysisResponse}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("framework", "FCPA")
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="policy"; filename="policy.exe"`)
	hdr.Set("Content-Type", "application/octet-stream")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte("binary"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid file type") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAnalyzeMissingFileIs400(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{text: analysisResponse}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("framework", "FCPA")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeRejectsUnknownFrameworkUpstream(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{text: analysisResponse}, nil)
	body := `{"isTemplate": true, "policyText": "policy", "framework": "SOX"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFrameworksEndpoint(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frameworks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BSA/AML") || !strings.Contains(rec.Body.String(), "FCPA") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestExportPDF(t *testing.T) {
	renderer := &stubRenderer{}
	srv := newComplianceServer(t, &fakeLLM{}, renderer)
	body := `{"framework": "FCPA", "findings": [
		{"category": "met", "requirement": "Training", "finding": "covered"},
		{"category": "critical", "requirement": "Internal controls", "finding": "absent"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/export/pdf", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	// Export must re-apply the severity ordering before rendering.
	critical := strings.Index(renderer.markdown, "Internal controls")
	met := strings.Index(renderer.markdown, "Training")
	if critical == -1 || met == -1 || critical > met {
		t.Fatalf("rendered markdown not in severity order:\n%s", renderer.markdown)
	}
}

func TestExportPDFWithoutRendererIs501(t *testing.T) {
	srv := newComplianceServer(t, &fakeLLM{}, nil)
	body := `{"framework": "FCPA", "findings": [{"category": "met", "requirement": "x", "finding": "y"}]}`
	req := httptest.NewRequest(http.MethodPost, "/export/pdf", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}
