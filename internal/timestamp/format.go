// Package timestamp turns field values into comparable points in time,
// either through a user supplied format description or by detecting common
// log timestamp shapes.
package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for format descriptions that cannot be
// translated into a layout.
var ErrInvalidFormat = errors.New("invalid format description")

// Kind selects which component of a timestamp is significant.
type Kind int

const (
	KindDateTime Kind = iota
	KindDate
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	default:
		return "DateTime"
	}
}

// Auto is the format description that enables timestamp detection.
const Auto = "auto"

// Format parses values of one kind.
type Format struct {
	kind   Kind
	desc   string
	layout string // empty for Auto
	parser *Parser
}

// Compile builds a Format from desc. desc is either Auto, a Go reference
// layout, or a bracketed component description such as
// "[year]-[month]-[day] [hour]:[minute]:[second]".
func Compile(kind Kind, desc string) (Format, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Format{}, fmt.Errorf("%w: empty", ErrInvalidFormat)
	}
	f := Format{kind: kind, desc: desc}
	if strings.EqualFold(desc, Auto) {
		f.parser = NewParser()
		return f, nil
	}
	layout, err := Layout(desc)
	if err != nil {
		return Format{}, err
	}
	f.layout = layout
	return f, nil
}

// Kind returns the significant component.
func (f Format) Kind() Kind { return f.kind }

// String returns the original description.
func (f Format) String() string { return f.desc }

// Parse reads value and normalizes it for the format's kind: Date values are
// moved to midnight and Time values to January 1 of year 0, both in UTC.
func (f Format) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	var (
		ts  time.Time
		err error
	)
	if f.parser != nil {
		var ok bool
		if ts, ok = f.parser.ParseTimestamp(value); !ok {
			return time.Time{}, false
		}
	} else if ts, err = time.Parse(f.layout, value); err != nil {
		return time.Time{}, false
	}
	return Normalize(f.kind, ts), true
}

// Normalize drops the insignificant component of ts.
func Normalize(kind Kind, ts time.Time) time.Time {
	ts = ts.UTC()
	switch kind {
	case KindDate:
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case KindTime:
		return time.Date(0, time.January, 1, ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
	default:
		return ts
	}
}

// components maps bracketed component names (with optional modifiers) to
// Go reference layout fragments.
var components = map[string]string{
	"year":               "2006",
	"year repr:last_two": "06",
	"month":              "01",
	"month repr:short":   "Jan",
	"month repr:long":    "January",
	"day":                "02",
	"weekday":            "Monday",
	"weekday repr:short": "Mon",
	"hour":               "15",
	"hour repr:12":       "03",
	"minute":             "04",
	"second":             "05",
	"period":             "PM",
}

// Layout translates a format description into a Go time layout. A
// description without brackets is taken to be a layout already.
// Fractional seconds ("[subsecond]") are dropped together with their
// separator because time.Parse accepts them after the seconds field anyway.
func Layout(desc string) (string, error) {
	if !strings.Contains(desc, "[") {
		return desc, nil
	}
	var b strings.Builder
	rest := desc
	for rest != "" {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], ']')
		if closing < 0 {
			return "", fmt.Errorf("%w: unterminated component in %q", ErrInvalidFormat, desc)
		}
		closing += open
		b.WriteString(rest[:open])

		name := strings.Join(strings.Fields(rest[open+1:closing]), " ")
		if name == "subsecond" || strings.HasPrefix(name, "subsecond ") {
			trimSeparator(&b)
		} else {
			frag, ok := components[name]
			if !ok {
				return "", fmt.Errorf("%w: unknown component [%s]", ErrInvalidFormat, name)
			}
			b.WriteString(frag)
		}
		rest = rest[closing+1:]
	}
	return b.String(), nil
}

func trimSeparator(b *strings.Builder) {
	s := b.String()
	if n := len(s); n > 0 && (s[n-1] == '.' || s[n-1] == ',') {
		b.Reset()
		b.WriteString(s[:n-1])
	}
}
