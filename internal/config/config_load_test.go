package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envVars = []string{
	"BIZDOCS_MODE",
	"BIZDOCS_HOST",
	"BIZDOCS_PORT",
	"BIZDOCS_OUTPUTDIR",
	"BIZDOCS_SETTINGS",
	"BIZDOCS_PDFENGINE",
	"BIZDOCS_DESCMODE",
	"BIZDOCS_VERIFY",
	"BIZDOCS_LOGLEVEL",
	"BIZDOCS_MAXFILESIZE",
}

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, name := range envVars {
		os.Unsetenv(name)
	}
}

// withArgs runs LoadFromFlags with args and restores global state afterwards
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	os.Args = append([]string{"bizdocs"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	dir := t.TempDir()

	cfg, err := withArgs(t, "--outputdir="+dir)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.PDFEngine != "fpdf" {
		t.Errorf("LoadFromFlags() PDFEngine = %v, want %v", cfg.PDFEngine, "fpdf")
	}
	if cfg.DescriptionMode != "truncate" {
		t.Errorf("LoadFromFlags() DescriptionMode = %v, want %v", cfg.DescriptionMode, "truncate")
	}
	if !cfg.VerifyOutput {
		t.Error("LoadFromFlags() VerifyOutput should default to true")
	}
	if cfg.EdgePort != 0 {
		t.Errorf("LoadFromFlags() EdgePort = %v, want 0", cfg.EdgePort)
	}
	if cfg.OutputDir != dir {
		t.Errorf("LoadFromFlags() OutputDir = %v, want %v", cfg.OutputDir, dir)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMode   string
		wantPort   int
		wantEdge   int
		wantEngine string
		wantDesc   string
		wantLevel  string
		wantVerify bool
	}{
		{
			name:       "server mode",
			args:       []string{"--mode=server"},
			wantMode:   "server",
			wantPort:   8080,
			wantEngine: "fpdf",
			wantDesc:   "truncate",
			wantLevel:  "info",
			wantVerify: true,
		},
		{
			name:       "server mode with edge",
			args:       []string{"--mode=server", "--port=9090", "--edgeport=9091"},
			wantMode:   "server",
			wantPort:   9090,
			wantEdge:   9091,
			wantEngine: "fpdf",
			wantDesc:   "truncate",
			wantLevel:  "info",
			wantVerify: true,
		},
		{
			name:       "chrome engine with wrapping",
			args:       []string{"--pdfengine=chrome", "--descmode=wrap", "--verify=false"},
			wantMode:   "stdio",
			wantPort:   8080,
			wantEngine: "chrome",
			wantDesc:   "wrap",
			wantLevel:  "info",
		},
		{
			name:       "debug logging",
			args:       []string{"--loglevel=debug"},
			wantMode:   "stdio",
			wantPort:   8080,
			wantEngine: "fpdf",
			wantDesc:   "truncate",
			wantLevel:  "debug",
			wantVerify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			args := append([]string{"--outputdir=" + t.TempDir()}, tt.args...)

			cfg, err := withArgs(t, args...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Mode != tt.wantMode {
				t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, tt.wantMode)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.EdgePort != tt.wantEdge {
				t.Errorf("LoadFromFlags() EdgePort = %v, want %v", cfg.EdgePort, tt.wantEdge)
			}
			if cfg.PDFEngine != tt.wantEngine {
				t.Errorf("LoadFromFlags() PDFEngine = %v, want %v", cfg.PDFEngine, tt.wantEngine)
			}
			if cfg.DescriptionMode != tt.wantDesc {
				t.Errorf("LoadFromFlags() DescriptionMode = %v, want %v", cfg.DescriptionMode, tt.wantDesc)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLevel)
			}
			if cfg.VerifyOutput != tt.wantVerify {
				t.Errorf("LoadFromFlags() VerifyOutput = %v, want %v", cfg.VerifyOutput, tt.wantVerify)
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	clearEnvVars()
	dir := filepath.Join(t.TempDir(), "docs")

	os.Setenv("BIZDOCS_MODE", "server")
	os.Setenv("BIZDOCS_HOST", "192.168.1.1")
	os.Setenv("BIZDOCS_PORT", "3000")
	os.Setenv("BIZDOCS_OUTPUTDIR", dir)
	os.Setenv("BIZDOCS_PDFENGINE", "chrome")
	os.Setenv("BIZDOCS_LOGLEVEL", "warn")
	os.Setenv("BIZDOCS_MAXFILESIZE", "200000000")

	cfg, err := withArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.OutputDir != dir {
		t.Errorf("LoadFromFlags() OutputDir = %v, want %v", cfg.OutputDir, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory should have been created: %v", err)
	}
	if cfg.PDFEngine != "chrome" {
		t.Errorf("LoadFromFlags() PDFEngine = %v, want %v", cfg.PDFEngine, "chrome")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	clearEnvVars()
	os.Setenv("BIZDOCS_MODE", "server")
	os.Setenv("BIZDOCS_HOST", "192.168.1.1")
	os.Setenv("BIZDOCS_PORT", "3000")

	cfg, err := withArgs(t, "--mode=stdio", "--host=localhost", "--port=8888", "--outputdir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_RelativePaths(t *testing.T) {
	clearEnvVars()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := withArgs(t, "--outputdir=out", "--settings=settings.yaml")
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if !filepath.IsAbs(cfg.OutputDir) || filepath.Base(cfg.OutputDir) != "out" {
		t.Errorf("LoadFromFlags() OutputDir = %v, want absolute path ending in out", cfg.OutputDir)
	}
	if !filepath.IsAbs(cfg.SettingsFile) {
		t.Errorf("LoadFromFlags() SettingsFile = %v, want absolute path", cfg.SettingsFile)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"edge port clash", []string{"--mode=server", "--port=8080", "--edgeport=8080"}, "edge port must differ"},
		{"upstream", []string{"--upstream=ftp://example.com"}, "invalid upstream URL"},
		{"log level", []string{"--loglevel=invalid"}, "invalid log level"},
		{"engine", []string{"--pdfengine=wkhtmltopdf"}, "invalid PDF engine"},
		{"description mode", []string{"--descmode=squash"}, "invalid description mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			args := append([]string{"--outputdir=" + t.TempDir()}, tt.args...)

			_, err := withArgs(t, args...)
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error for invalid %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()

	_, err := withArgs(t, "--version")
	if err == nil {
		t.Fatal("LoadFromFlags() expected version error")
	}
	if err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
