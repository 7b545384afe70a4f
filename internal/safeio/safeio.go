// Package safeio confines file access to a single root directory.
// Identifiers that end up in file names arrive on the wire, so every
// name is checked before it touches the filesystem.
package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadName rejects names that are not a plain file name: anything with
// a path separator or parent reference would escape the root.
var ErrBadName = errors.New("safeio: name escapes the root directory")

// Dir is a directory handle whose operations never leave the directory.
type Dir struct {
	abs string
}

// NewDir creates the directory if needed and locks all operations to it.
func NewDir(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Dir{abs: abs}, nil
}

// Path returns the absolute root directory.
func (d *Dir) Path() string {
	if d == nil {
		return ""
	}
	return d.abs
}

// Resolve turns a bare file name into an absolute path under the root.
// Callers pass identifiers, not paths; separators and parent references
// are rejected rather than cleaned up.
func (d *Dir) Resolve(name string) (string, error) {
	if d == nil {
		return "", errors.New("safeio: directory not configured")
	}
	clean := filepath.Clean(name)
	if clean == "" || clean == "." || clean == ".." ||
		strings.ContainsRune(clean, '/') || strings.ContainsRune(clean, os.PathSeparator) {
		return "", ErrBadName
	}
	return filepath.Join(d.abs, clean), nil
}

// ReadFile reads a file by bare name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// WriteFile writes a file by bare name.
func (d *Dir) WriteFile(name string, data []byte, perm os.FileMode) error {
	p, err := d.Resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, perm)
}

// Entries lists the root's directory entries.
func (d *Dir) Entries() ([]fs.DirEntry, error) {
	if d == nil {
		return nil, errors.New("safeio: directory not configured")
	}
	return os.ReadDir(d.abs)
}
