// Package render turns a business document into a printable file.
//
// Two engines ship in this package: PDFRenderer draws the A4 layout with
// fpdf and HTMLRenderer produces a standalone HTML page from an embedded
// template. The chrome subpackage prints the HTML rendition through a
// headless browser for deployments that prefer browser typography.
//
// Engines draw the document as given. Callers normalize and validate first,
// which Generator does for them.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a3tai/bizdocs/internal/document"
)

// Format is an output file format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat accepts "pdf" or "html" in any case; blank means PDF
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}

// Engine renders a document into a single output file
type Engine interface {
	Render(ctx context.Context, doc *document.Document) (*Result, error)
	Format() Format
}

// Sentinel errors returned by the renderers
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrNilDocument       = errors.New("document is nil")
)

// RenderError records which engine and step failed
type RenderError struct {
	Engine string `json:"engine"`
	Op     string `json:"operation"`
	Err    error  `json:"error"`
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s renderer failed in %s: %v", e.Engine, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
