package aggregate

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/ripple/internal/model"
)

// ErrInvalidLimit is returned for a non-positive top-N limit.
var ErrInvalidLimit = errors.New("aggregation limit must be at least 1")

// Field pairs a field name with its aggregator.
type Field struct {
	Name string
	Agg  Aggregator
}

// Summary is the rendered state of one field.
type Summary struct {
	Name   string
	Method string
	Lines  []string
}

// Set holds one aggregator per field in field order.
type Set struct {
	fields  []Field
	methods []Method
	limit   int
	updates uint64
}

// NewSet builds one aggregator per name in order using methods.
func NewSet(order []string, methods map[string]Method, limit int) (*Set, error) {
	if limit <= 0 {
		limit = model.DefaultAggregationLimit
	}
	s := &Set{limit: limit}
	for _, name := range order {
		m, ok := methods[name]
		if !ok {
			return nil, fmt.Errorf("field %q has no aggregation method", name)
		}
		agg, err := New(m, limit)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		s.fields = append(s.fields, Field{Name: name, Agg: agg})
		s.methods = append(s.methods, m)
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Set) Len() int { return len(s.fields) }

// Fields returns the fields in order.
func (s *Set) Fields() []Field { return s.fields }

// Updates returns how many records have been applied.
func (s *Set) Updates() uint64 { return s.updates }

// Limit returns the current top-N limit.
func (s *Set) Limit() int { return s.limit }

// Update applies one parsed record. values[i] belongs to field i.
func (s *Set) Update(values []string) {
	for i, v := range values {
		if i >= len(s.fields) {
			break
		}
		s.fields[i].Agg.Update(v)
	}
	s.updates++
}

// SetLimit changes the top-N limit of every Count aggregator.
func (s *Set) SetLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.limit = n
	for _, f := range s.fields {
		if c, ok := f.Agg.(*Counter); ok {
			c.SetLimit(n)
		}
	}
	return nil
}

// Reset discards all accumulated state, keeping the methods and limit.
func (s *Set) Reset() {
	for i, m := range s.methods {
		// Methods were validated when the set was built.
		agg, _ := New(m, s.limit)
		s.fields[i].Agg = agg
	}
	s.updates = 0
}

// Summaries renders every field.
func (s *Set) Summaries() []Summary {
	out := make([]Summary, len(s.fields))
	for i, f := range s.fields {
		out[i] = Summary{Name: f.Name, Method: s.methods[i].String(), Lines: f.Agg.Summary()}
	}
	return out
}
