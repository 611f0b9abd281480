package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of locating a timestamp inside free text.
type Result struct {
	Timestamp time.Time
	Found     bool
	Remaining string // text with the timestamp and its trailing separators removed
}

type shape struct {
	re      *regexp.Regexp
	layouts []string
	prepare func(string) string
}

// Parser detects common log timestamp shapes.
type Parser struct {
	shapes []shape
}

// NewParser returns a parser that knows ISO 8601, syslog and bare time of
// day timestamps.
func NewParser() *Parser {
	return &Parser{shapes: []shape{
		{
			re: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?`),
			layouts: []string{
				"2006-01-02 15:04:05Z07:00",
				"2006-01-02 15:04:05Z0700",
				"2006-01-02 15:04:05",
			},
			prepare: func(s string) string { return s[:10] + " " + s[11:] },
		},
		{
			re:      regexp.MustCompile(`^[A-Z][a-z]{2} [ \d]\d \d{2}:\d{2}:\d{2}`),
			layouts: []string{"Jan _2 15:04:05"},
		},
		{
			re:      regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(?:[.,]\d+)?`),
			layouts: []string{"15:04:05"},
		},
	}}
}

// ParseFromText looks for a timestamp at the start of text.
func (p *Parser) ParseFromText(text string) Result {
	trimmed := strings.TrimLeft(text, " \t")
	for _, sh := range p.shapes {
		loc := sh.re.FindStringIndex(trimmed)
		if loc == nil {
			continue
		}
		candidate := trimmed[:loc[1]]
		if sh.prepare != nil {
			candidate = sh.prepare(candidate)
		}
		for _, layout := range sh.layouts {
			ts, err := time.Parse(layout, candidate)
			if err != nil {
				continue
			}
			return Result{
				Timestamp: ts,
				Found:     true,
				Remaining: strings.TrimLeft(trimmed[loc[1]:], " \t-|:"),
			}
		}
	}
	return Result{Remaining: text}
}

// ParseTimestamp converts a field value to a time. Strings may hold a
// detected timestamp or a unix epoch number; numeric values are read as unix
// epochs in seconds, milliseconds, microseconds or nanoseconds depending on
// magnitude.
func (p *Parser) ParseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return time.Time{}, false
		}
		if r := p.ParseFromText(val); r.Found && r.Remaining == "" {
			return r.Timestamp, true
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return parseUnix(f), true
		}
		return time.Time{}, false
	case float64:
		return parseUnix(val), true
	case int64:
		return parseUnix(float64(val)), true
	case int:
		return parseUnix(float64(val)), true
	default:
		return time.Time{}, false
	}
}

func parseUnix(v float64) time.Time {
	switch {
	case v > 1e17:
		return time.Unix(0, int64(v)).UTC()
	case v > 1e14:
		return time.UnixMicro(int64(v)).UTC()
	case v > 1e11:
		return time.UnixMilli(int64(v)).UTC()
	default:
		sec := int64(v)
		return time.Unix(sec, int64((v-float64(sec))*1e9)).UTC()
	}
}
