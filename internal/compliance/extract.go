package compliance

import (
	"context"
	"fmt"
	"strings"
)

// Extractor pulls plain text out of an uploaded policy document. PDF and
// DOCX extraction run out of process and plug in behind this interface.
type Extractor interface {
	// Supports reports whether the extractor handles the content type.
	Supports(contentType string) bool
	// Extract returns the document's plain text.
	Extract(ctx context.Context, contentType string, data []byte) (string, error)
}

// PlainTextExtractor handles text uploads directly.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Supports(contentType string) bool {
	return strings.HasPrefix(contentType, "text/plain")
}

func (p PlainTextExtractor) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	if !p.Supports(contentType) {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return string(data), nil
}

// ExtractorSet tries each extractor in order.
type ExtractorSet []Extractor

func (s ExtractorSet) Supports(contentType string) bool {
	for _, e := range s {
		if e.Supports(contentType) {
			return true
		}
	}
	return false
}

func (s ExtractorSet) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	for _, e := range s {
		if e.Supports(contentType) {
			return e.Extract(ctx, contentType, data)
		}
	}
	return "", fmt.Errorf("unsupported content type %q", contentType)
}
