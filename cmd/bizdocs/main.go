package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/bizdocs/internal/config"
	"github.com/a3tai/bizdocs/internal/generator"
	"github.com/a3tai/bizdocs/internal/logging"
	"github.com/a3tai/bizdocs/internal/mcp"
	"github.com/a3tai/bizdocs/internal/offline"
	"github.com/a3tai/bizdocs/internal/render"
	"github.com/a3tai/bizdocs/internal/render/chrome"
	"github.com/a3tai/bizdocs/internal/web"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run wires the document service and serves the configured mode until ctx
// is done
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Debug("starting", zap.Stringer("config", cfg))

	renderOpts, err := renderOptions(cfg, logger)
	if err != nil {
		return err
	}

	engine, engineName, closeEngine := pdfEngine(cfg, logger, renderOpts)
	defer func() {
		if err := closeEngine(); err != nil {
			logger.Warn("failed to close PDF engine", zap.Error(err))
		}
	}()

	svc, err := generator.NewService(generator.Options{
		OutputDir:     cfg.OutputDir,
		SettingsFile:  cfg.SettingsFile,
		VerifyOutput:  cfg.VerifyOutput,
		MaxFileSize:   cfg.MaxFileSize,
		PDFEngine:     engine,
		PDFEngineName: engineName,
		RenderOptions: renderOpts,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create document service: %w", err)
	}

	mcpServer, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.IsStdioMode() {
		// In stdio mode the parent process controls our lifecycle
		return mcpServer.ServeStdio(ctx, os.Stdin, os.Stdout)
	}

	app := web.NewServer(svc,
		web.WithLogger(logger),
		web.WithMount(mcp.EndpointPath, mcpServer.Handler()))

	appLn, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address(), err)
	}

	var edge *offline.Router
	var edgeLn net.Listener
	if cfg.EdgePort != 0 {
		upstream, err := cfg.UpstreamURL()
		if err != nil {
			appLn.Close()
			return fmt.Errorf("invalid upstream: %w", err)
		}
		edge, err = offline.NewRouter(offline.Config{Upstream: upstream, Logger: logger})
		if err != nil {
			appLn.Close()
			return fmt.Errorf("failed to create offline edge: %w", err)
		}
		if edgeLn, err = net.Listen("tcp", cfg.EdgeAddress()); err != nil {
			appLn.Close()
			return fmt.Errorf("failed to listen on %s: %w", cfg.EdgeAddress(), err)
		}
	}

	return serve(ctx, logger, appLn, app, edgeLn, edge)
}

// renderOptions translates the configuration into renderer options
func renderOptions(cfg *config.Config, logger *zap.Logger) ([]render.Option, error) {
	mode, err := render.ParseDescriptionMode(cfg.DescriptionMode)
	if err != nil {
		return nil, err
	}
	return []render.Option{
		render.WithLogger(logger),
		render.WithDescriptionMode(mode),
		render.WithImageLoader(render.NewImageLoader(render.WithLocalFiles(cfg.AllowLocalFiles))),
	}, nil
}

// pdfEngine returns the configured PDF engine. A nil engine selects the
// built-in renderer.
func pdfEngine(cfg *config.Config, logger *zap.Logger, opts []render.Option) (render.Engine, string, func() error) {
	if cfg.PDFEngine != config.EngineChrome {
		return nil, config.EngineFPDF, func() error { return nil }
	}
	chromeOpts := []chrome.Option{
		chrome.WithChromePath(cfg.ChromePath),
		chrome.WithAutoDownload(cfg.AutoDownload),
		chrome.WithLogger(logger),
		chrome.WithRenderOptions(opts...),
	}
	// Chrome refuses to start its sandbox as root
	if os.Geteuid() == 0 {
		chromeOpts = append(chromeOpts, chrome.WithNoSandbox())
	}
	engine := chrome.New(chromeOpts...)
	return engine, config.EngineChrome, engine.Close
}

// serve runs the web app and, when edge is set, the offline edge in front
// of it. Both shut down gracefully once ctx is done.
func serve(ctx context.Context, logger *zap.Logger, appLn net.Listener, app http.Handler,
	edgeLn net.Listener, edge *offline.Router,
) error {
	g, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{Handler: app, ReadHeaderTimeout: 10 * time.Second}}
	listeners := []net.Listener{appLn}
	if edge != nil {
		servers = append(servers, &http.Server{Handler: edge, ReadHeaderTimeout: 10 * time.Second})
		listeners = append(listeners, edgeLn)
	}

	for i, srv := range servers {
		srv, ln := srv, listeners[i]
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", ln.Addr().String()))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", ln.Addr(), err)
			}
			return nil
		})
	}

	if edge != nil {
		g.Go(func() error {
			// The app is already accepting on appLn, so the edge can precache now
			if err := edge.Install(ctx); err != nil {
				logger.Warn("offline precache incomplete", zap.Error(err))
				return nil
			}
			edge.Activate()
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "bizdocs - Business Documents Generator\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
