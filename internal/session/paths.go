package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps document and export paths inside the configured
// directory
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a validator rooted at configuredDirectory. The
// directory does not have to exist yet.
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{configuredDirectory: configuredDirectory}, nil
}

// GetConfiguredDirectory returns the configured directory path
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// Resolve turns path into an absolute path inside the configured directory.
// Relative paths are taken relative to that directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	within, err := v.IsPathWithinDirectory(absPath)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return absPath, nil
}

// IsPathWithinDirectory checks the path, and the path after resolving
// symlinks, against the configured directory
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.configuredDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	// a path that does not exist yet (an export target) is checked through
	// its parent
	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	} else if os.IsNotExist(err) {
		if parent, err := filepath.EvalSymlinks(filepath.Dir(cleanPath)); err == nil {
			realPath = filepath.Join(parent, filepath.Base(cleanPath))
		}
	}

	within := func(p string) bool {
		return isWithin(p, cleanDir) || isWithin(p, realDir)
	}
	return within(cleanPath) && within(realPath), nil
}

func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
