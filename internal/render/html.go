package render

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/money"
)

//go:embed templates/document.html.tmpl
var templateFS embed.FS

var documentTemplate = template.Must(template.ParseFS(templateFS, "templates/document.html.tmpl"))

// HTMLRenderer produces a standalone, print ready HTML page. Every field
// is escaped by html/template.
type HTMLRenderer struct {
	options
	tmpl *template.Template
}

// NewHTMLRenderer creates a renderer using the embedded document template
func NewHTMLRenderer(opts ...Option) *HTMLRenderer {
	return &HTMLRenderer{
		options: newOptions(opts),
		tmpl:    documentTemplate,
	}
}

// Format reports FormatHTML
func (r *HTMLRenderer) Format() Format {
	return FormatHTML
}

type htmlItem struct {
	Description string
	Quantity    string
	Price       string
	Discount    string
	Total       string
}

type htmlView struct {
	Title       string
	Heading     string
	Generator   string
	Number      string
	Date        string
	DueDate     string
	ShowDueDate bool

	Business document.Business
	Client   document.Client
	Items    []htmlItem

	// string URLs pass through the template's URL filter, template.URL
	// values are data URIs built from decoded image bytes
	LogoSrc      any
	SignatureSrc any

	Subtotal   string
	TaxRate    string
	TaxAmount  string
	GrandTotal string
}

// Render executes the document template
func (r *HTMLRenderer) Render(ctx context.Context, doc *document.Document) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	view := r.view(ctx, doc)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, &RenderError{Engine: "html", Op: "execute", Err: err}
	}

	r.logger.Debug("rendered HTML",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Int("bytes", buf.Len()))

	return NewResult(buf.Bytes(), FormatHTML), nil
}

func (r *HTMLRenderer) view(ctx context.Context, doc *document.Document) htmlView {
	amount := func(v float64) string {
		return money.Format(v, doc.Currency)
	}

	v := htmlView{
		Title:       doc.Title() + " " + doc.Number,
		Heading:     doc.Title(),
		Generator:   pdfCreator,
		Number:      doc.Number,
		Date:        doc.Date,
		DueDate:     doc.DueDate,
		ShowDueDate: doc.ShowsDueDate(),
		Business:    doc.Business,
		Client:      doc.Client,
		Items:       make([]htmlItem, 0, len(doc.Items)),
		Subtotal:    amount(doc.Totals.Subtotal),
		TaxRate:     formatNumber(doc.Totals.TaxRate),
		TaxAmount:   amount(doc.Totals.TaxAmount),
		GrandTotal:  amount(doc.Totals.GrandTotal),
	}
	for _, it := range doc.Items {
		v.Items = append(v.Items, htmlItem{
			Description: it.Description,
			Quantity:    formatNumber(it.Quantity),
			Price:       amount(it.Price),
			Discount:    formatNumber(it.Discount),
			Total:       amount(it.Total),
		})
	}

	v.LogoSrc = r.imageSource(ctx, "logo", doc.Business.LogoURL)
	v.SignatureSrc = r.imageSource(ctx, "signature", doc.Business.SignatureURL)
	return v
}

// imageSource inlines the image as a data URI so the page is self contained.
// Remote images that cannot be fetched are still linked by URL.
func (r *HTMLRenderer) imageSource(ctx context.Context, name, ref string) any {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	img, err := r.images.Load(ctx, ref)
	if err == nil {
		return template.URL(img.DataURI())
	}

	r.logger.Warn("could not load image", zap.String("image", name), zap.Error(err))
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return nil
}
