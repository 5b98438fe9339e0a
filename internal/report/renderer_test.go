package report

import (
	"strings"
	"testing"
)

func TestHTMLRendersMarkdown(t *testing.T) {
	r := NewRenderer()
	out, err := r.HTML("Gap Analysis: BSA/AML", "# Findings\n\n| Requirement | Status |\n|---|---|\n| CIP | met |\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<title>Gap Analysis: BSA/AML</title>") {
		t.Fatalf("missing title: %s", out)
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "Findings") {
		t.Fatalf("heading not rendered: %s", out)
	}
	// GFM tables must survive the conversion.
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>met</td>") {
		t.Fatalf("table not rendered: %s", out)
	}
}

func TestHTMLEscapesTitle(t *testing.T) {
	r := NewRenderer()
	out, err := r.HTML("<script>alert(1)</script>", "body")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatal("title must be escaped")
	}
}
