package catalog

import (
	"fmt"
	"os"

	"github.com/tinytelemetry/ripple/internal/parser"
)

// Patterns returns the names of stored patterns.
func (s *Store) Patterns() ([]string, error) { return s.list(patternsDir) }

// LoadDefinition reads the named pattern without validating it.
func (s *Store) LoadDefinition(name string) (parser.Definition, error) {
	path, format, err := s.find(patternsDir, name)
	if err != nil {
		return parser.Definition{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Definition{}, fmt.Errorf("read pattern %q: %w", name, err)
	}
	var def parser.Definition
	if err := decode(format, data, &def); err != nil {
		return parser.Definition{}, &parser.DefinitionError{Name: name, Reason: fmt.Sprintf("decode %s: %v", format, err)}
	}
	return def, nil
}

// LoadPattern reads and compiles the named pattern. A structurally invalid
// definition is rejected as a whole.
func (s *Store) LoadPattern(name string) (*parser.Pattern, error) {
	def, err := s.LoadDefinition(name)
	if err != nil {
		return nil, err
	}
	return parser.Compile(name, def)
}

// SavePattern validates def and stores it under name in format.
func (s *Store) SavePattern(name string, def parser.Definition, format Format) error {
	if _, err := parser.Compile(name, def); err != nil {
		return err
	}
	return s.write(patternsDir, name, format, def)
}

// RemovePattern deletes the named pattern.
func (s *Store) RemovePattern(name string) error { return s.remove(patternsDir, name) }
