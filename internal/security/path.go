// Package security keeps generated documents inside the configured output
// directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the output directory
var ErrOutsideRoot = errors.New("path is outside the output directory")

// PathValidator confines file paths to a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The directory does not
// have to exist yet.
func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute output directory
func (v *PathValidator) Root() string {
	return v.root
}

// ValidatePath checks that path resolves inside the root directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	within, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path is the root or below it.
// Symlinks are resolved on both sides when they exist.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	realRoot := v.root
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil {
		realRoot = resolved
	}

	inside := func(p string) bool {
		return within(p, v.root) || within(p, realRoot)
	}
	return inside(cleanPath) && inside(realPath), nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// Resolve maps a file name or path to an absolute path inside the root.
// Relative names are joined to the root; NUL bytes are stripped.
func (v *PathValidator) Resolve(name string) (string, error) {
	name = strings.ReplaceAll(name, "\x00", "")
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(v.root, name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}
