// Package aggregate implements the streaming per-field statistics shown in
// the analytics view. The set of aggregator kinds is closed.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tinytelemetry/ripple/internal/timestamp"
)

// ErrUnknownKind is returned for aggregation method names that do not exist.
var ErrUnknownKind = errors.New("unknown aggregation method")

// Kind enumerates the aggregation methods.
type Kind int

const (
	KindNone Kind = iota
	KindCount
	KindMode
	KindSum
	KindMean
	KindDate
	KindTime
	KindDateTime
)

var kindNames = map[Kind]string{
	KindNone:     "None",
	KindCount:    "Count",
	KindMode:     "Mode",
	KindSum:      "Sum",
	KindMean:     "Mean",
	KindDate:     "Date",
	KindTime:     "Time",
	KindDateTime: "DateTime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTemporal reports whether the kind needs a format description.
func (k Kind) IsTemporal() bool {
	return k == KindDate || k == KindTime || k == KindDateTime
}

// ParseKind maps a method name, case-insensitively, to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Method is an aggregation method with its format description for the
// temporal kinds.
type Method struct {
	Kind   Kind
	Format string
}

func (m Method) String() string {
	if m.Kind.IsTemporal() {
		return fmt.Sprintf("%s(%s)", m.Kind, m.Format)
	}
	return m.Kind.String()
}

// Aggregator accumulates one field's values. Update is the only mutator.
type Aggregator interface {
	Update(value string)
	Summary() []string
	Kind() Kind

	sealed()
}

// New builds the aggregator for m. limit is the top-N size for Count.
func New(m Method, limit int) (Aggregator, error) {
	switch m.Kind {
	case KindNone:
		return disabled{}, nil
	case KindCount:
		return NewCounter(limit), nil
	case KindMode:
		return NewMode(), nil
	case KindSum:
		return &Sum{}, nil
	case KindMean:
		return &Mean{}, nil
	case KindDate, KindTime, KindDateTime:
		return NewTemporal(m.Kind, m.Format)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, m.Kind)
	}
}

type disabled struct{}

func (disabled) Update(string)     {}
func (disabled) Summary() []string { return []string{"Disabled"} }
func (disabled) Kind() Kind        { return KindNone }
func (disabled) sealed()           {}

func temporalKind(k Kind) timestamp.Kind {
	switch k {
	case KindDate:
		return timestamp.KindDate
	case KindTime:
		return timestamp.KindTime
	default:
		return timestamp.KindDateTime
	}
}
