// Package manifest handles marble.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "marble.toml"

// Manifest represents a marble.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Editor  Editor  `toml:"editor"`

	// Dir is the directory containing the marble.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations and parsing.
type Source struct {
	Dirs    []string `toml:"dirs"`
	Grammar string   `toml:"grammar"` // optional operator-table override, relative to Dir
}

// Editor configures the editing side of the project.
type Editor struct {
	CacheDir string `toml:"cache-dir"`
}

// Load parses a marble.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if m.Project.Name == "" {
		return nil, fmt.Errorf("%s: project.name is required", path)
	}

	m.Dir = dir
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	return &m, nil
}

// Find walks upward from start looking for a directory with a marble.toml.
// The second result is false when the search reaches the filesystem root
// without finding one.
func Find(start string) (*Manifest, bool, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, false, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			m, err := Load(dir)
			if err != nil {
				return nil, false, err
			}
			return m, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false, nil
		}
		dir = parent
	}
}

// SourceDirs returns the configured source directories resolved against Dir.
func (m *Manifest) SourceDirs() []string {
	dirs := make([]string, len(m.Source.Dirs))
	for i, d := range m.Source.Dirs {
		dirs[i] = filepath.Join(m.Dir, d)
	}
	return dirs
}

// GrammarPath returns the resolved operator-table override, if configured.
func (m *Manifest) GrammarPath() (string, bool) {
	if m.Source.Grammar == "" {
		return "", false
	}
	return filepath.Join(m.Dir, m.Source.Grammar), true
}

// CacheDir returns the resolved cache directory, defaulting to
// ".marble-cache" under the project directory.
func (m *Manifest) CacheDir() string {
	dir := m.Editor.CacheDir
	if dir == "" {
		dir = ".marble-cache"
	}
	return filepath.Join(m.Dir, dir)
}
