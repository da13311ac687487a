package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validConfig returns a server mode config writing below t.TempDir
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = ModeServer
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "bizdocs" {
		t.Errorf("Expected default server name to be 'bizdocs', got '%s'", cfg.ServerName)
	}
	if cfg.PDFEngine != EngineFPDF {
		t.Errorf("Expected default PDF engine to be 'fpdf', got '%s'", cfg.PDFEngine)
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}
	if cfg.AllowLocalFiles {
		t.Error("Expected local image files to be blocked by default")
	}

	currentDir, _ := os.Getwd()
	if want := filepath.Join(currentDir, "output"); cfg.OutputDir != want {
		t.Errorf("Expected default output directory to be '%s', got '%s'", want, cfg.OutputDir)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid server mode", func(c *Config) {}, false},
		{"valid stdio mode", func(c *Config) { c.Mode = ModeStdio }, false},
		{"invalid mode", func(c *Config) { c.Mode = "invalid" }, true},
		{"port too low", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"port ignored in stdio mode", func(c *Config) { c.Mode = ModeStdio; c.Port = 0 }, false},
		{"negative edge port", func(c *Config) { c.EdgePort = -1 }, true},
		{"edge port equals port", func(c *Config) { c.EdgePort = c.Port }, true},
		{"valid edge", func(c *Config) { c.EdgePort = 8081; c.Upstream = "https://docs.example.com" }, false},
		{"upstream without host", func(c *Config) { c.Upstream = "http://" }, true},
		{"empty output directory", func(c *Config) { c.OutputDir = "" }, true},
		{"unknown engine", func(c *Config) { c.PDFEngine = "prince" }, true},
		{"unknown description mode", func(c *Config) { c.DescriptionMode = "ellipsis" }, true},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	cfg := validConfig(t)
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "nested", "docs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}
	info, err := os.Stat(cfg.OutputDir)
	if err != nil {
		t.Fatalf("output directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("output path should be a directory")
	}
}

func TestConfigAddresses(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 3000, EdgePort: 3001}

	if got := cfg.Address(); got != "localhost:3000" {
		t.Errorf("Address() = %s, want localhost:3000", got)
	}
	if got := cfg.EdgeAddress(); got != "localhost:3001" {
		t.Errorf("EdgeAddress() = %s, want localhost:3001", got)
	}

	u, err := cfg.UpstreamURL()
	if err != nil {
		t.Fatalf("UpstreamURL() unexpected error: %v", err)
	}
	if u.String() != "http://localhost:3000" {
		t.Errorf("UpstreamURL() = %s, want http://localhost:3000", u)
	}

	cfg.Upstream = "https://docs.example.com/app"
	u, err = cfg.UpstreamURL()
	if err != nil {
		t.Fatalf("UpstreamURL() unexpected error: %v", err)
	}
	if u.Host != "docs.example.com" || u.Path != "/app" {
		t.Errorf("UpstreamURL() = %s, want the configured upstream", u)
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantServer bool
		wantStdio  bool
	}{
		{ModeServer, true, false},
		{ModeStdio, false, true},
		{"invalid", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsServerMode(); got != tt.wantServer {
				t.Errorf("IsServerMode() = %v, want %v", got, tt.wantServer)
			}
			if got := cfg.IsStdioMode(); got != tt.wantStdio {
				t.Errorf("IsStdioMode() = %v, want %v", got, tt.wantStdio)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	for level, want := range map[string]bool{"debug": true, "info": false, "warn": false, "error": false} {
		cfg := &Config{LogLevel: level}
		if got := cfg.IsDebug(); got != want {
			t.Errorf("IsDebug() with %s = %v, want %v", level, got, want)
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:        "server",
		Host:        "localhost",
		Port:        8080,
		EdgePort:    8081,
		OutputDir:   "/srv/docs",
		PDFEngine:   "fpdf",
		LogLevel:    "info",
		MaxFileSize: 1024,
	}

	want := "Config{Mode: server, Host: localhost, Port: 8080, EdgePort: 8081, OutputDir: /srv/docs, PDFEngine: fpdf, LogLevel: info, MaxFileSize: 1024}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
