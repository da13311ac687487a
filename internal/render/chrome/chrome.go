// Package chrome prints the HTML rendition of a document to PDF with a
// headless Chrome or Chromium browser.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/render"
)

// A4 in inches
const (
	paperWidth  = 21.0 / 2.54
	paperHeight = 29.7 / 2.54
)

const defaultTimeout = 60 * time.Second

// ErrClosed is returned by Render after Close
var ErrClosed = errors.New("chrome engine is closed")

type config struct {
	chromePath   string
	autoDownload bool
	noSandbox    bool
	timeout      time.Duration
	logger       *zap.Logger
	renderOpts   []render.Option
}

// Option configures an Engine
type Option func(*config)

// WithChromePath uses a specific browser executable
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithAutoDownload fetches a Chromium build when no path is configured
func WithAutoDownload(on bool) Option {
	return func(c *config) {
		c.autoDownload = on
	}
}

// WithNoSandbox disables the browser sandbox, needed inside most containers
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// WithTimeout bounds a single conversion
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderOptions configures the HTML renderer feeding the browser
func WithRenderOptions(opts ...render.Option) Option {
	return func(c *config) {
		c.renderOpts = append(c.renderOpts, opts...)
	}
}

// Engine renders documents to PDF through the browser's print pipeline.
// The browser starts on the first Render and is reused until Close.
type Engine struct {
	cfg  config
	html *render.HTMLRenderer

	mu            sync.Mutex
	started       bool
	closed        bool
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// New creates a Chrome engine
func New(opts ...Option) *Engine {
	cfg := config{
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	renderOpts := append([]render.Option{render.WithLogger(cfg.logger)}, cfg.renderOpts...)
	return &Engine{
		cfg:  cfg,
		html: render.NewHTMLRenderer(renderOpts...),
	}
}

// Format reports render.FormatPDF
func (e *Engine) Format() render.Format {
	return render.FormatPDF
}

// Render prints the HTML rendition of doc to an A4 PDF
func (e *Engine) Render(ctx context.Context, doc *document.Document) (*render.Result, error) {
	htmlRes, err := e.html.Render(ctx, doc)
	if err != nil {
		return nil, err
	}

	browserCtx, err := e.browser()
	if err != nil {
		return nil, &render.RenderError{Engine: "chrome", Op: "start", Err: err}
	}

	path, err := writeTemp(htmlRes.Bytes())
	if err != nil {
		return nil, &render.RenderError{Engine: "chrome", Op: "write", Err: err}
	}
	defer os.Remove(path)

	data, err := e.print(ctx, browserCtx, "file://"+path)
	if err != nil {
		return nil, &render.RenderError{Engine: "chrome", Op: "print", Err: err}
	}

	e.cfg.logger.Debug("printed PDF with chrome",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Int("bytes", len(data)))

	return render.NewResult(data, render.FormatPDF), nil
}

// Close stops the browser. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.started {
		e.browserCancel()
		e.allocCancel()
	}
	return nil
}

func (e *Engine) print(ctx, browserCtx context.Context, target string) ([]byte, error) {
	if e.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	// tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return buf, nil
}

func (e *Engine) browser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	if e.started {
		return e.browserCtx, nil
	}

	execPath := e.cfg.chromePath
	if execPath == "" && e.cfg.autoDownload {
		path, err := launcher.NewBrowser().Get()
		if err != nil {
			return nil, fmt.Errorf("downloading browser: %w", err)
		}
		e.cfg.logger.Info("using downloaded browser", zap.String("path", path))
		execPath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
	)
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}
	if e.cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	e.started = true
	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	return browserCtx, nil
}

func writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "bizdocs-*.html")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		os.Remove(name)
		return "", fmt.Errorf("resolving temp path: %w", err)
	}
	return abs, nil
}
