// Package report renders markdown reports to standalone HTML and, through
// headless Chromium, to PDF for the export endpoints.
package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const styleCSS = `
body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;background:#fff;padding:0.6rem;line-height:1.5;}
.doc-wrap{max-width:960px;margin:0 auto;}
.doc-header{border-bottom:2px solid #1e3a5f;margin-bottom:1rem;padding-bottom:0.5rem;}
.doc-title{font-size:1.3rem;font-weight:700;color:#1e3a5f;}
.doc-meta{font-size:0.8rem;color:#57534e;margin-top:0.25rem;}
.doc-body h1,.doc-body h2{color:#1e3a5f;}
.doc-body h2{border-bottom:1px solid #d6d3d1;padding-bottom:0.2rem;}
.doc-body table{width:100%;border-collapse:collapse;font-size:0.85rem;}
.doc-body th,.doc-body td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.doc-body thead th{background:#f1f5f9;font-weight:700;}
.doc-body blockquote{border-left:3px solid #1e3a5f;margin-left:0;padding-left:0.75rem;color:#44403c;}
@media print{ @page{size:A4;margin:12mm;} body{padding:0;} .doc-wrap{max-width:none;} }
`

// Renderer turns markdown into print-ready HTML and PDFs via headless
// Chromium.
type Renderer struct {
	chromePath string
}

func NewRenderer() *Renderer {
	return &Renderer{chromePath: detectChromePath()}
}

// HTML renders the markdown body into a full standalone document.
func (r *Renderer) HTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	generated := time.Now().Format("January 2, 2006")
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + styleCSS +
		"html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}" +
		"</style></head><body>" +
		"<div class='doc-wrap'><div class='doc-header'>" +
		"<div class='doc-title'>" + html.EscapeString(title) + "</div>" +
		"<div class='doc-meta'>Generated " + html.EscapeString(generated) + "</div>" +
		"</div><div class='doc-body'>" + content.String() + "</div></div>" +
		"</body></html>", nil
}

// PDF renders the markdown body to a PDF document.
func (r *Renderer) PDF(ctx context.Context, title, markdown string) ([]byte, error) {
	htmlDoc, err := r.HTML(title, markdown)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
