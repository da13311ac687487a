package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// PDF engine constants
	EngineFPDF   = "fpdf"
	EngineChrome = "chrome"

	// Default values
	DefaultPort            = 8080
	DefaultHost            = "127.0.0.1"
	DefaultLogLevel        = "info"
	DefaultMaxFileSize     = 50 * 1024 * 1024 // 50MB
	DefaultOutputDir       = "output"
	DefaultPDFEngine       = EngineFPDF
	DefaultDescriptionMode = "truncate"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "BIZDOCS"
)

// Config holds all configuration for the documents server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Offline edge configuration (server mode only). EdgePort 0 disables
	// the edge; a blank Upstream points it at this server.
	EdgePort int
	Upstream string

	// Document configuration
	OutputDir       string
	SettingsFile    string
	PDFEngine       string // "fpdf" or "chrome"
	DescriptionMode string // "truncate" or "wrap"
	ChromePath      string
	AutoDownload    bool
	AllowLocalFiles bool
	VerifyOutput    bool

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum size of a PDF read back for inspection
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		OutputDir:       filepath.Join(currentDir, DefaultOutputDir),
		PDFEngine:       DefaultPDFEngine,
		DescriptionMode: DefaultDescriptionMode,
		VerifyOutput:    true,
		Version:         "1.0.0",
		ServerName:      "bizdocs",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	for _, p := range []*string{&cfg.OutputDir, &cfg.SettingsFile} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("edgeport", cfg.EdgePort)
	viper.SetDefault("upstream", cfg.Upstream)
	viper.SetDefault("outputdir", cfg.OutputDir)
	viper.SetDefault("settings", cfg.SettingsFile)
	viper.SetDefault("pdfengine", cfg.PDFEngine)
	viper.SetDefault("descmode", cfg.DescriptionMode)
	viper.SetDefault("chromepath", cfg.ChromePath)
	viper.SetDefault("autodownload", cfg.AutoDownload)
	viper.SetDefault("localfiles", cfg.AllowLocalFiles)
	viper.SetDefault("verify", cfg.VerifyOutput)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the web app and MCP over HTTP")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.Int("edgeport", cfg.EdgePort, "Port of the offline caching edge, 0 disables it (server mode only)")
	pflag.String("upstream", cfg.Upstream, "Origin URL behind the offline edge (defaults to this server)")
	pflag.String("outputdir", cfg.OutputDir, "Directory generated documents are saved to")
	pflag.String("settings", cfg.SettingsFile, "Business settings file (YAML or JSON)")
	pflag.String("pdfengine", cfg.PDFEngine, "PDF engine: 'fpdf' (built in) or 'chrome' (headless browser)")
	pflag.String("descmode", cfg.DescriptionMode, "Item description fitting: 'truncate' or 'wrap'")
	pflag.String("chromepath", cfg.ChromePath, "Chrome or Chromium binary for the chrome engine")
	pflag.Bool("autodownload", cfg.AutoDownload, "Download a browser when the chrome engine finds none")
	pflag.Bool("localfiles", cfg.AllowLocalFiles, "Allow logo and signature images from local files")
	pflag.Bool("verify", cfg.VerifyOutput, "Validate every generated PDF before returning it")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes for inspection")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "edgeport", "upstream", "outputdir", "settings",
		"pdfengine", "descmode", "chromepath", "autodownload", "localfiles",
		"verify", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nbizdocs - Business documents generator (invoice, quotation, purchase order, receipt)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# MCP over stdio (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --outputdir=/srv/docs      # web app and MCP over HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --edgeport=8081            # with the offline edge\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --pdfengine=chrome --autodownload        # browser rendered PDFs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_OUTPUTDIR    Output directory\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_SETTINGS     Business settings file\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_PDFENGINE    PDF engine\n")
		fmt.Fprintf(os.Stderr, "  BIZDOCS_LOGLEVEL     Log level\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.EdgePort = viper.GetInt("edgeport")
	cfg.Upstream = viper.GetString("upstream")
	cfg.OutputDir = viper.GetString("outputdir")
	cfg.SettingsFile = viper.GetString("settings")
	cfg.PDFEngine = viper.GetString("pdfengine")
	cfg.DescriptionMode = viper.GetString("descmode")
	cfg.ChromePath = viper.GetString("chromepath")
	cfg.AutoDownload = viper.GetBool("autodownload")
	cfg.AllowLocalFiles = viper.GetBool("localfiles")
	cfg.VerifyOutput = viper.GetBool("verify")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}
	if c.EdgePort < 0 || c.EdgePort > 65535 {
		return errors.New("edge port must be between 0 and 65535")
	}
	if c.Mode == ModeServer && c.EdgePort != 0 && c.EdgePort == c.Port {
		return errors.New("edge port must differ from the server port")
	}
	if c.Upstream != "" {
		u, err := url.Parse(c.Upstream)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid upstream URL: %q", c.Upstream)
		}
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	}

	if c.PDFEngine != EngineFPDF && c.PDFEngine != EngineChrome {
		return fmt.Errorf("invalid PDF engine: %s (must be one of: fpdf, chrome)", c.PDFEngine)
	}
	if c.DescriptionMode != "truncate" && c.DescriptionMode != "wrap" {
		return fmt.Errorf("invalid description mode: %s (must be one of: truncate, wrap)", c.DescriptionMode)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EdgeAddress returns the offline edge address as host:edgeport
func (c *Config) EdgeAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.EdgePort)
}

// UpstreamURL returns the origin the offline edge forwards to
func (c *Config) UpstreamURL() (*url.URL, error) {
	if c.Upstream != "" {
		return url.Parse(c.Upstream)
	}
	return &url.URL{Scheme: "http", Host: c.Address()}, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, EdgePort: %d, OutputDir: %s, PDFEngine: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.EdgePort, c.OutputDir, c.PDFEngine, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
