// Package parser turns lines into ordered named fields using a regex or a
// literal delimiter, as described by a pattern definition.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tinytelemetry/ripple/internal/aggregate"
)

var (
	// ErrNoMatch is returned when a regex pattern does not match a line.
	ErrNoMatch = errors.New("no match")
	// ErrFieldCountMismatch is returned when a line yields a different number
	// of fields than the pattern declares.
	ErrFieldCountMismatch = errors.New("field count mismatch")
	// ErrInvalidPattern marks a structurally invalid pattern definition.
	ErrInvalidPattern = errors.New("invalid pattern definition")
)

// DefinitionError describes why a pattern definition was rejected.
type DefinitionError struct {
	Name   string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid pattern: %s", e.Reason)
	}
	return fmt.Sprintf("invalid pattern %q: %s", e.Name, e.Reason)
}

func (e *DefinitionError) Unwrap() error { return ErrInvalidPattern }

// Type is the matching strategy of a pattern.
type Type int

const (
	TypeRegex Type = iota
	TypeSplit
)

func (t Type) String() string {
	if t == TypeSplit {
		return "Split"
	}
	return "Regex"
}

// ParseType maps a pattern_type value to a Type.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regex":
		return TypeRegex, true
	case "split":
		return TypeSplit, true
	default:
		return TypeRegex, false
	}
}

// Definition is the persisted form of a pattern. AggregationMethods values
// are either a method name ("Count") or a single-entry map from a temporal
// method to its format ({"Date": "[year]-[month]-[day]"}).
type Definition struct {
	Pattern            string         `json:"pattern" yaml:"pattern" toml:"pattern"`
	PatternType        string         `json:"pattern_type" yaml:"pattern_type" toml:"pattern_type"`
	Example            string         `json:"example,omitempty" yaml:"example,omitempty" toml:"example,omitempty"`
	Order              []string       `json:"order" yaml:"order" toml:"order"`
	AggregationMethods map[string]any `json:"aggregation_methods" yaml:"aggregation_methods" toml:"aggregation_methods"`
}

// Pattern is a validated, compiled definition.
type Pattern struct {
	name    string
	typ     Type
	expr    string
	re      *regexp.Regexp
	example string
	order   []string
	methods map[string]aggregate.Method
}

// Compile validates def and compiles it. Any structural defect rejects the
// whole definition with a *DefinitionError.
func Compile(name string, def Definition) (*Pattern, error) {
	invalid := func(format string, args ...any) error {
		return &DefinitionError{Name: name, Reason: fmt.Sprintf(format, args...)}
	}

	if def.Pattern == "" {
		return nil, invalid("missing pattern")
	}
	if def.PatternType == "" {
		return nil, invalid("missing pattern_type")
	}
	typ, ok := ParseType(def.PatternType)
	if !ok {
		return nil, invalid("pattern_type %q is not Regex or Split", def.PatternType)
	}
	if len(def.Order) == 0 {
		return nil, invalid("missing order")
	}
	if len(def.AggregationMethods) == 0 {
		return nil, invalid("missing aggregation_methods")
	}

	seen := make(map[string]bool, len(def.Order))
	for _, field := range def.Order {
		if field == "" {
			return nil, invalid("empty field name in order")
		}
		if seen[field] {
			return nil, invalid("field %q appears twice in order", field)
		}
		seen[field] = true
	}

	methods := make(map[string]aggregate.Method, len(def.AggregationMethods))
	for field, raw := range def.AggregationMethods {
		if !seen[field] {
			return nil, invalid("aggregation method for %q which is not in order", field)
		}
		m, err := decodeMethod(raw)
		if err != nil {
			return nil, invalid("field %q: %v", field, err)
		}
		if m.Kind.IsTemporal() {
			if _, err := aggregate.NewTemporal(m.Kind, m.Format); err != nil {
				return nil, invalid("field %q: %v", field, err)
			}
		}
		methods[field] = m
	}
	if missing := missingFields(def.Order, methods); len(missing) > 0 {
		return nil, invalid("no aggregation method for %s", strings.Join(missing, ", "))
	}

	p := &Pattern{
		name:    name,
		typ:     typ,
		expr:    def.Pattern,
		example: def.Example,
		order:   append([]string(nil), def.Order...),
		methods: methods,
	}
	if typ == TypeRegex {
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, invalid("regex does not compile: %v", err)
		}
		p.re = re
	}
	if def.Example != "" {
		if _, err := p.Parse(def.Example); err != nil {
			return nil, invalid("example %q: %v", def.Example, err)
		}
	}
	return p, nil
}

func missingFields(order []string, methods map[string]aggregate.Method) []string {
	var missing []string
	for _, field := range order {
		if _, ok := methods[field]; !ok {
			missing = append(missing, fmt.Sprintf("%q", field))
		}
	}
	sort.Strings(missing)
	return missing
}

func decodeMethod(raw any) (aggregate.Method, error) {
	switch v := raw.(type) {
	case string:
		kind, err := aggregate.ParseKind(v)
		if err != nil {
			return aggregate.Method{}, err
		}
		if kind.IsTemporal() {
			return aggregate.Method{}, fmt.Errorf("%s needs a format description", kind)
		}
		return aggregate.Method{Kind: kind}, nil
	case map[string]any:
		if len(v) != 1 {
			return aggregate.Method{}, fmt.Errorf("method map must have exactly one entry, got %d", len(v))
		}
		for name, arg := range v {
			kind, err := aggregate.ParseKind(name)
			if err != nil {
				return aggregate.Method{}, err
			}
			format, ok := arg.(string)
			if !ok {
				return aggregate.Method{}, fmt.Errorf("%s format must be a string", kind)
			}
			if !kind.IsTemporal() {
				return aggregate.Method{}, fmt.Errorf("%s does not take a format", kind)
			}
			return aggregate.Method{Kind: kind, Format: format}, nil
		}
	}
	return aggregate.Method{}, fmt.Errorf("unsupported method value %v", raw)
}

// Name returns the catalog name of the pattern.
func (p *Pattern) Name() string { return p.name }

// Type returns the matching strategy.
func (p *Pattern) Type() Type { return p.typ }

// Expression returns the regex or delimiter.
func (p *Pattern) Expression() string { return p.expr }

// Example returns the sample line, if any.
func (p *Pattern) Example() string { return p.example }

// Order returns the field names in positional order.
func (p *Pattern) Order() []string { return p.order }

// Methods returns the aggregation method per field.
func (p *Pattern) Methods() map[string]aggregate.Method { return p.methods }

// FieldIndex returns the position of field, or -1.
func (p *Pattern) FieldIndex(field string) int {
	for i, name := range p.order {
		if name == field {
			return i
		}
	}
	return -1
}

// Parse splits text, which should already be free of color codes, into one
// value per field in order.
func (p *Pattern) Parse(text string) ([]string, error) {
	var values []string
	if p.typ == TypeRegex {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			return nil, ErrNoMatch
		}
		values = m[1:]
	} else {
		values = strings.Split(text, p.expr)
	}
	if len(values) != len(p.order) {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrFieldCountMismatch, len(values), len(p.order))
	}
	return values, nil
}

// NewAggregators builds a fresh aggregator set for the pattern's fields.
func (p *Pattern) NewAggregators(limit int) (*aggregate.Set, error) {
	return aggregate.NewSet(p.order, p.methods, limit)
}
