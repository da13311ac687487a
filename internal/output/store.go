// Package output stores generated documents in the output directory.
// Files go through an afero filesystem so tests can run in memory.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/a3tai/bizdocs/internal/security"
)

// FileInfo describes a stored document
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Store writes and lists documents below one directory
type Store struct {
	fs        afero.Fs
	validator *security.PathValidator
}

// NewStore creates a store rooted at dir on fs
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	validator, err := security.NewPathValidator(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	return &Store{fs: fs, validator: validator}, nil
}

// Dir returns the absolute output directory
func (s *Store) Dir() string {
	return s.validator.Root()
}

// Resolve returns the absolute path name would be stored at
func (s *Store) Resolve(name string) (string, error) {
	path, err := s.validator.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return path, nil
}

// Save writes data under name and returns the absolute path
func (s *Store) Save(name string, data []byte) (string, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Read returns the content stored under name
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// List returns stored PDF and HTML files, newest first. A limit of zero or
// less returns everything.
func (s *Store) List(limit int) ([]FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	modTimes := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isDocument(e.Name()) {
			continue
		}
		path := filepath.Join(s.Dir(), e.Name())
		modTimes[path] = e.ModTime()
		files = append(files, FileInfo{
			Path:         path,
			Name:         e.Name(),
			Size:         e.Size(),
			ModifiedTime: e.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return modTimes[files[i].Path].After(modTimes[files[j].Path])
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func isDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".html":
		return true
	}
	return false
}
