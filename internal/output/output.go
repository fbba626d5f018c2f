// Package output implements the file system the pipeline writes through:
// Disk for real runs and Memory for dry runs, previews and tests.
package output

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
)

// Disk writes to the local file system, creating parent directories.
type Disk struct{}

func (Disk) WriteFile(p string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", p, err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

func (Disk) ReadFile(p string) ([]byte, error) {
	return os.ReadFile(p)
}

// CopyTree copies every file of src under dst, overwriting existing files.
func (d Disk) CopyTree(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		b, err := fs.ReadFile(src, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		return d.WriteFile(filepath.Join(dst, filepath.FromSlash(p)), b)
	})
}

// Memory keeps written files in a map keyed by slash-separated path.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) WriteFile(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.ToSlash(p)] = slices.Clone(content)
	return nil
}

func (m *Memory) CopyTree(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		b, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return m.WriteFile(path.Join(filepath.ToSlash(dst), p), b)
	})
}

// ReadFile returns the content written at p, or an error wrapping
// fs.ErrNotExist.
func (m *Memory) ReadFile(p string) ([]byte, error) {
	b, ok := m.Read(p)
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", p, fs.ErrNotExist)
	}
	return slices.Clone(b), nil
}

// Read returns the content written at p.
func (m *Memory) Read(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[filepath.ToSlash(p)]
	return b, ok
}

// Paths returns every written path, sorted.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
