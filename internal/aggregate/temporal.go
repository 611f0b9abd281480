package aggregate

import (
	"fmt"
	"time"

	"github.com/tinytelemetry/ripple/internal/timestamp"
)

// Temporal tracks the earliest and latest timestamps of a field and the
// rate at which values arrive between them.
type Temporal struct {
	kind     Kind
	format   timestamp.Format
	earliest time.Time
	latest   time.Time
	count    int64
}

// NewTemporal builds a Date, Time or DateTime aggregator parsing values with
// the format description desc.
func NewTemporal(kind Kind, desc string) (*Temporal, error) {
	if !kind.IsTemporal() {
		return nil, fmt.Errorf("%w: %s is not a timestamp method", ErrUnknownKind, kind)
	}
	f, err := timestamp.Compile(temporalKind(kind), desc)
	if err != nil {
		return nil, err
	}
	return &Temporal{kind: kind, format: f}, nil
}

func (t *Temporal) Kind() Kind { return t.kind }
func (t *Temporal) sealed()    {}

// Update parses value; values that do not parse are dropped.
func (t *Temporal) Update(value string) {
	ts, ok := t.format.Parse(value)
	if !ok {
		return
	}
	if t.count == 0 || ts.Before(t.earliest) {
		t.earliest = ts
	}
	if t.count == 0 || ts.After(t.latest) {
		t.latest = ts
	}
	t.count++
}

// Count returns the number of parsed samples.
func (t *Temporal) Count() int64 { return t.count }

// Span returns the earliest and latest samples.
func (t *Temporal) Span() (earliest, latest time.Time) { return t.earliest, t.latest }

var rateUnits = []struct {
	name string
	d    time.Duration
}{
	{"week", 7 * 24 * time.Hour},
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
	{"second", time.Second},
}

// Rate returns samples per unit, picking the finest unit whose whole count
// over the observed span is still smaller than the sample count. ok is false
// until two distinct timestamps have been seen.
func (t *Temporal) Rate() (rate float64, unit string, ok bool) {
	span := t.latest.Sub(t.earliest)
	if t.count < 2 || span <= 0 {
		return 0, "", false
	}
	chosen := rateUnits[0]
	for _, u := range rateUnits[1:] {
		if int64(span/u.d) < t.count {
			chosen = u
		}
	}
	return float64(t.count) / (float64(span) / float64(chosen.d)), chosen.name, true
}

func (t *Temporal) Summary() []string {
	rate := "Rate: insufficient data"
	if r, unit, ok := t.Rate(); ok {
		rate = fmt.Sprintf("Rate: %s per %s", formatNumber(r), unit)
	}
	out := []string{rate, fmt.Sprintf("Count: %d", t.count)}
	if t.count == 0 {
		return append(out, "Earliest: none", "Latest: none")
	}
	return append(out,
		"Earliest: "+t.display(t.earliest),
		"Latest: "+t.display(t.latest),
	)
}

func (t *Temporal) display(ts time.Time) string {
	switch t.kind {
	case KindDate:
		return ts.Format(time.DateOnly)
	case KindTime:
		return ts.Format(time.TimeOnly)
	default:
		return ts.Format(time.DateTime)
	}
}
