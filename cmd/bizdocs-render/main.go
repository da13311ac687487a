// Command bizdocs-render renders business documents from JSON or YAML files
// without starting a server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/config"
	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/generator"
	"github.com/a3tai/bizdocs/internal/inspect"
	"github.com/a3tai/bizdocs/internal/logging"
	"github.com/a3tai/bizdocs/internal/render"
	"github.com/a3tai/bizdocs/internal/render/chrome"
)

var version = "dev" // This will be set by build flags

const filePerm = 0o644

// generateFlags holds the options of the generate command
type generateFlags struct {
	format       string
	engine       string
	output       string
	descMode     string
	settings     string
	chromePath   string
	autoDownload bool
	localFiles   bool
	verify       bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool
	var logger *zap.Logger

	root := &cobra.Command{
		Use:   "bizdocs-render",
		Short: "Render invoices, quotations, purchase orders and receipts",
		Long: `bizdocs-render turns a document described in JSON or YAML into a PDF or
HTML file, prints its totals, or inspects a generated PDF.

Document files carry type, number, date, dueDate, business, client, items
and currency, the same fields the web form posts.`,
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if verbose {
				level = "debug"
			}
			var err error
			logger, err = logging.New(level, false)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	log := func() *zap.Logger {
		if logger == nil {
			return zap.NewNop()
		}
		return logger
	}

	root.AddCommand(
		newGenerateCmd(log),
		newTotalsCmd(),
		newInspectCmd(),
	)
	return root
}

func newGenerateCmd(log func() *zap.Logger) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <document.json|document.yaml>",
		Short: "Render a document file to PDF or HTML",
		Example: `  bizdocs-render generate invoice.json
  bizdocs-render generate quote.yaml --format html -o quote.html
  bizdocs-render generate po.json --engine chrome --desc-mode wrap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), log(), f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", string(render.FormatPDF), "Output format: pdf or html")
	flags.StringVarP(&f.engine, "engine", "e", config.EngineFPDF, "PDF engine: fpdf or chrome")
	flags.StringVarP(&f.output, "output", "o", "", "Output file (default: <type>-<number>-<millis>.<ext> in the current directory)")
	flags.StringVar(&f.descMode, "desc-mode", config.DefaultDescriptionMode, "Item description fitting: truncate or wrap")
	flags.StringVar(&f.settings, "settings", "", "Business settings file used for blank business fields")
	flags.StringVar(&f.chromePath, "chrome-path", "", "Chrome or Chromium binary for the chrome engine")
	flags.BoolVar(&f.autoDownload, "auto-download", false, "Download a browser when the chrome engine finds none")
	flags.BoolVar(&f.localFiles, "local-files", true, "Allow logo and signature images from local files")
	flags.BoolVar(&f.verify, "verify", true, "Validate the generated PDF")
	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, logger *zap.Logger, f *generateFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := render.ParseFormat(f.format)
	if err != nil {
		return err
	}
	mode, err := render.ParseDescriptionMode(f.descMode)
	if err != nil {
		return err
	}
	doc, err := document.LoadFile(path)
	if err != nil {
		return err
	}

	renderOpts := []render.Option{
		render.WithLogger(logger),
		render.WithDescriptionMode(mode),
		render.WithImageLoader(render.NewImageLoader(render.WithLocalFiles(f.localFiles))),
	}

	opts := generator.Options{
		OutputDir:     ".",
		SettingsFile:  f.settings,
		VerifyOutput:  f.verify,
		RenderOptions: renderOpts,
		Logger:        logger,
	}
	switch f.engine {
	case config.EngineFPDF:
	case config.EngineChrome:
		chromeOpts := []chrome.Option{
			chrome.WithChromePath(f.chromePath),
			chrome.WithAutoDownload(f.autoDownload),
			chrome.WithLogger(logger),
			chrome.WithRenderOptions(renderOpts...),
		}
		if os.Geteuid() == 0 {
			chromeOpts = append(chromeOpts, chrome.WithNoSandbox())
		}
		engine := chrome.New(chromeOpts...)
		defer engine.Close()
		opts.PDFEngine = engine
		opts.PDFEngineName = config.EngineChrome
	default:
		return fmt.Errorf("invalid PDF engine: %s (must be one of: fpdf, chrome)", f.engine)
	}

	svc, err := generator.NewService(opts)
	if err != nil {
		return err
	}
	result, err := svc.Generate(ctx, generator.GenerateRequest{Document: doc, Format: format})
	if err != nil {
		return err
	}

	target := f.output
	if target == "" {
		target = result.FileName
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, config.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := result.Result.WriteToFile(target, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	fmt.Fprintf(out, "%s written to %s (%d bytes", result.Document.Title(), target, result.Size)
	if result.Pages > 0 {
		fmt.Fprintf(out, ", %d page(s)", result.Pages)
	}
	fmt.Fprintln(out, ")")
	return nil
}

func newTotalsCmd() *cobra.Command {
	var settings string

	cmd := &cobra.Command{
		Use:   "totals <document.json|document.yaml>",
		Short: "Print the document with recomputed line and summary totals as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.LoadFile(args[0])
			if err != nil {
				return err
			}
			svc, err := generator.NewService(generator.Options{OutputDir: ".", SettingsFile: settings})
			if err != nil {
				return err
			}
			out, err := svc.Totals(doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&settings, "settings", "", "Business settings file used for blank business fields")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var maxSize int64
	var withText bool

	cmd := &cobra.Command{
		Use:   "inspect <document.pdf>",
		Short: "Validate a PDF and print its metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inspect.New(maxSize)
			validation, err := in.ValidateFile(args[0])
			if err != nil {
				return err
			}
			report, err := in.InspectFile(args[0])
			if err != nil {
				return err
			}
			if !withText {
				report.Text = ""
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Path       string              `json:"path"`
				Generated  string              `json:"inspected_at"`
				Validation *inspect.Validation `json:"validation"`
				Report     *inspect.Report     `json:"report"`
			}{args[0], time.Now().UTC().Format(time.RFC3339), validation, report})
		},
	}
	cmd.Flags().Int64Var(&maxSize, "max-size", config.DefaultMaxFileSize, "Maximum PDF size in bytes")
	cmd.Flags().BoolVar(&withText, "text", false, "Include the extracted text")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
