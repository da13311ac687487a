// Package inspect reads generated PDFs back: page count, document info
// metadata and the text layer come from ledongthuc/pdf, structural
// validation from pdfcpu.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultMaxSize limits the PDFs accepted for inspection
const DefaultMaxSize = 50 << 20

var (
	ErrNotPDF   = errors.New("data is not a PDF document")
	ErrTooLarge = errors.New("PDF exceeds size limit")
)

// Report describes a PDF document
type Report struct {
	Pages    int    `json:"pages"`
	Size     int    `json:"size"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Validation is the result of a structural check
type Validation struct {
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages"`
	Message string `json:"message,omitempty"`
}

// Inspector reads PDFs up to a size limit
type Inspector struct {
	maxSize int64
}

// New creates an Inspector; a non-positive maxSize uses DefaultMaxSize
func New(maxSize int64) *Inspector {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Inspector{maxSize: maxSize}
}

func (in *Inspector) check(data []byte) error {
	if int64(len(data)) > in.maxSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, len(data), in.maxSize)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return ErrNotPDF
	}
	return nil
}

// Inspect extracts page count, metadata and text
func (in *Inspector) Inspect(data []byte) (*Report, error) {
	if err := in.check(data); err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	report := &Report{
		Pages: r.NumPage(),
		Size:  len(data),
	}
	extractMetadata(r, report)

	text, err := extractText(r)
	if err != nil {
		return nil, err
	}
	report.Text = text
	return report, nil
}

// InspectFile reads and inspects the PDF at path
func (in *Inspector) InspectFile(path string) (*Report, error) {
	data, err := in.readFile(path)
	if err != nil {
		return nil, err
	}
	return in.Inspect(data)
}

// Validate runs pdfcpu's relaxed validation over data
func (in *Inspector) Validate(data []byte) (*Validation, error) {
	if err := in.check(data); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	result := &Validation{}
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		result.Message = fmt.Sprintf("failed to read PDF context: %v", err)
		return result, nil //nolint:nilerr // an unreadable document is a validation result
	}
	if err := api.ValidateContext(ctx); err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // same as above
	}
	if err := ctx.EnsurePageCount(); err != nil {
		result.Message = fmt.Sprintf("failed to ensure page count: %v", err)
		return result, nil //nolint:nilerr // same as above
	}

	result.Valid = true
	result.Pages = ctx.PageCount
	return result, nil
}

// ValidateFile reads and validates the PDF at path
func (in *Inspector) ValidateFile(path string) (*Validation, error) {
	data, err := in.readFile(path)
	if err != nil {
		return nil, err
	}
	return in.Validate(data)
}

// Verify returns an error unless data is a valid PDF with at least one page
func (in *Inspector) Verify(data []byte) error {
	v, err := in.Validate(data)
	if err != nil {
		return err
	}
	if !v.Valid {
		return fmt.Errorf("generated PDF failed validation: %s", v.Message)
	}
	if v.Pages < 1 {
		return errors.New("generated PDF has no pages")
	}
	return nil
}

func (in *Inspector) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if info.Size() > in.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size(), in.maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// extractMetadata copies the info dictionary into the report. Malformed
// dictionaries are ignored.
func extractMetadata(r *pdf.Reader, report *Report) {
	defer func() {
		_ = recover()
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return
	}

	field := func(key string) string {
		v := info.Key(key)
		if v.IsNull() {
			return ""
		}
		return strings.TrimSpace(v.Text())
	}
	report.Title = field("Title")
	report.Author = field("Author")
	report.Subject = field("Subject")
	report.Creator = field("Creator")
	report.Producer = field("Producer")
	report.Keywords = field("Keywords")
}

func extractText(r *pdf.Reader) (string, error) {
	fonts := make(map[string]*pdf.Font)
	var parts []string

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d text: %w", i, err)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n"), nil
}
