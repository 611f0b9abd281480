// Package catalog stores pattern and session definitions under the data
// directory. Patterns may be JSON, YAML or TOML; sessions are written as JSON.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	patternsDir = "patterns"
	sessionsDir = "sessions"
)

var (
	// ErrNotFound is returned when no definition has the requested name.
	ErrNotFound = errors.New("definition not found")
	// ErrInvalidName is returned for names that cannot be used as file names.
	ErrInvalidName = errors.New("invalid definition name")
)

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var extFormats = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
}

// Store is a directory of named definitions.
type Store struct {
	root string
}

// Open prepares the pattern and session directories under root.
func Open(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("catalog root is empty")
	}
	for _, dir := range []string{patternsDir, sessionsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

func (s *Store) dir(kind string) string { return filepath.Join(s.root, kind) }

func checkName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// list returns the sorted definition names in dir. A name is the file name
// without a recognized extension; files with other extensions are ignored.
func (s *Store) list(kind string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if _, ok := extFormats[strings.ToLower(ext)]; !ok {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// find returns the path and format of the named definition.
func (s *Store) find(kind, name string) (string, Format, error) {
	if err := checkName(name); err != nil {
		return "", "", err
	}
	exts := make([]string, 0, len(extFormats))
	for ext := range extFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		path := filepath.Join(s.dir(kind), name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, extFormats[ext], nil
		}
	}
	return "", "", fmt.Errorf("%w: %s %q", ErrNotFound, strings.TrimSuffix(kind, "s"), name)
}

func (s *Store) remove(kind, name string) error {
	path, _, err := s.find(kind, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *Store) write(kind, name string, format Format, v any) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := encode(format, v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	// A definition has exactly one file; drop any copy in another format.
	if old, _, err := s.find(kind, name); err == nil {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("replace %s: %w", old, err)
		}
	}
	path := filepath.Join(s.dir(kind), name+"."+string(format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func decode(format Format, data []byte, v any) error {
	switch format {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func encode(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatTOML:
		return toml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
