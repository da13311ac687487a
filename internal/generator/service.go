// Package generator orchestrates document rendering: defaults, validation,
// engine selection, output verification and storage.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/inspect"
	"github.com/a3tai/bizdocs/internal/money"
	"github.com/a3tai/bizdocs/internal/output"
	"github.com/a3tai/bizdocs/internal/render"
)

// recentFileLimit caps the files listed by ServerInfo
const recentFileLimit = 20

var ErrVerificationFailed = errors.New("generated document failed verification")

// Options configures a Service
type Options struct {
	OutputDir    string
	SettingsFile string
	// VerifyOutput validates every generated PDF before returning it
	VerifyOutput bool
	MaxFileSize  int64

	// PDFEngine renders FormatPDF; nil uses the built-in fpdf renderer
	PDFEngine     render.Engine
	PDFEngineName string
	// RenderOptions are applied to the built-in renderers
	RenderOptions []render.Option

	FS     afero.Fs
	Logger *zap.Logger
	Now    func() time.Time
}

// Service produces business documents
type Service struct {
	engines      map[render.Format]render.Engine
	engineName   string
	store        *output.Store
	inspector    *inspect.Inspector
	settingsFile string
	verify       bool
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a document service with all components
func NewService(opts Options) (*Service, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	store, err := output.NewStore(opts.FS, opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create output store: %w", err)
	}

	renderOpts := append([]render.Option{
		render.WithLogger(opts.Logger),
		render.WithClock(opts.Now),
	}, opts.RenderOptions...)

	pdfEngine := opts.PDFEngine
	name := opts.PDFEngineName
	if pdfEngine == nil {
		pdfEngine = render.NewPDFRenderer(renderOpts...)
		name = "fpdf"
	}
	if name == "" {
		name = string(pdfEngine.Format())
	}

	return &Service{
		engines: map[render.Format]render.Engine{
			render.FormatPDF:  pdfEngine,
			render.FormatHTML: render.NewHTMLRenderer(renderOpts...),
		},
		engineName:   name,
		store:        store,
		inspector:    inspect.New(opts.MaxFileSize),
		settingsFile: opts.SettingsFile,
		verify:       opts.VerifyOutput,
		logger:       opts.Logger,
		now:          opts.Now,
	}, nil
}

// Store returns the output store
func (s *Service) Store() *output.Store {
	return s.store
}

// Generate normalizes, validates and renders the requested document
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Document == nil {
		return nil, fmt.Errorf("%w: document is required", document.ErrInvalidDocument)
	}
	format := req.Format
	if format == "" {
		format = render.FormatPDF
	}
	engine, ok := s.engines[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", render.ErrUnsupportedFormat, format)
	}

	doc := s.prepare(req.Document)
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	res, err := engine.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	result := &GenerateResult{
		Result:      res,
		Document:    doc,
		Format:      format,
		ContentType: res.ContentType(),
		FileName:    doc.FileName(string(format), start),
		Size:        res.Len(),
	}

	if format == render.FormatPDF && s.verify {
		v, err := s.inspector.Validate(res.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}
		if !v.Valid || v.Pages < 1 {
			return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, v.Message)
		}
		result.Pages = v.Pages
	}

	if req.Save {
		path, err := s.store.Save(result.FileName, res.Bytes())
		if err != nil {
			return nil, err
		}
		result.Path = path
	}

	s.logger.Info("generated document",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.String("format", string(format)),
		zap.Int("size", result.Size),
		zap.String("path", result.Path))

	return result, nil
}

// Preview renders the HTML rendition
func (s *Service) Preview(ctx context.Context, doc *document.Document) (*GenerateResult, error) {
	return s.Generate(ctx, GenerateRequest{Document: doc, Format: render.FormatHTML})
}

// Totals returns a normalized copy of doc with recomputed line and summary totals
func (s *Service) Totals(doc *document.Document) (*document.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", document.ErrInvalidDocument)
	}
	out := s.prepare(doc)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Settings returns the configured business settings. A missing settings
// file yields the defaults.
func (s *Service) Settings() (document.Settings, error) {
	if strings.TrimSpace(s.settingsFile) == "" {
		return document.DefaultSettings(), nil
	}
	settings, err := document.LoadSettingsFile(s.settingsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document.DefaultSettings(), nil
		}
		return settings, err
	}
	if settings.Currency == "" {
		settings.Currency = document.DefaultCurrency
	}
	return settings, nil
}

// Inspect reads back a PDF from the output directory
func (s *Service) Inspect(name string) (*InspectResult, error) {
	path, err := s.store.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}

	report, err := s.inspector.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	validation, err := s.inspector.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", path, err)
	}
	return &InspectResult{Path: path, Report: report, Validation: validation}, nil
}

// ServerInfo describes the service and lists recently generated files
func (s *Service) ServerInfo(serverName, version string) (*ServerInfoResult, error) {
	files, err := s.store.List(recentFileLimit)
	if err != nil {
		return nil, err
	}

	types := make([]DocumentTypeInfo, 0, len(document.Types()))
	for _, t := range document.Types() {
		d := document.Document{Type: t, DueDate: "set"}
		types = append(types, DocumentTypeInfo{
			Type:     t,
			Title:    document.Title(t),
			DueDate:  d.ShowsDueDate(),
			FileStem: string(t),
		})
	}

	return &ServerInfoResult{
		ServerName:    serverName,
		Version:       version,
		PDFEngine:     s.engineName,
		Formats:       []render.Format{render.FormatPDF, render.FormatHTML},
		DocumentTypes: types,
		Currencies:    money.Currencies(),
		DescriptionModes: []string{
			render.DescriptionTruncate.String(),
			render.DescriptionWrap.String(),
		},
		OutputDirectory: s.store.Dir(),
		RecentFiles:     files,
		VerifyOutput:    s.verify,
	}, nil
}

// prepare copies doc, fills blank business fields from settings and
// applies the form defaults
func (s *Service) prepare(in *document.Document) *document.Document {
	doc := *in
	doc.Items = append([]document.Item(nil), in.Items...)

	if settings, err := s.Settings(); err == nil {
		applySettings(&doc.Business, settings)
	} else {
		s.logger.Warn("could not load settings", zap.Error(err))
	}
	doc.Normalize(s.now())
	return &doc
}

func applySettings(b *document.Business, settings document.Settings) {
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&b.Name, settings.Name)
	fill(&b.Address, settings.Address)
	fill(&b.Phone, settings.Phone)
	fill(&b.Email, settings.Email)
	fill(&b.LogoURL, settings.LogoURL)
	fill(&b.SignatureURL, settings.SignatureURL)
	fill(&b.Currency, settings.Currency)
	if b.TaxRate == 0 {
		b.TaxRate = settings.TaxRate
	}
}
