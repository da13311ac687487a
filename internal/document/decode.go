package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxInputSize caps document payloads read from requests or files
const MaxInputSize = 4 << 20

// DecodeJSON reads a document posted by the form
func DecodeJSON(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(io.LimitReader(r, MaxInputSize))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document JSON: %w", err)
	}
	return &doc, nil
}

// DecodeYAML reads a document from YAML
func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(io.LimitReader(r, MaxInputSize))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document YAML: %w", err)
	}
	return &doc, nil
}

// LoadFile reads a document file, choosing the decoder by extension.
// Anything that is not .yaml/.yml is treated as JSON.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("document file too large: %d bytes (max: %d bytes)", len(data), MaxInputSize)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(bytes.NewReader(data))
	default:
		return DecodeJSON(bytes.NewReader(data))
	}
}

// LoadSettingsFile reads business settings from a YAML or JSON file
func LoadSettingsFile(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// DefaultSettings returns the blank settings the form starts from
func DefaultSettings() Settings {
	return Settings{Currency: DefaultCurrency}
}

// OfflineSettings are served when settings cannot be fetched from the origin
func OfflineSettings() Settings {
	return Settings{
		Name:     "Your Business (Offline)",
		Currency: DefaultCurrency,
	}
}
