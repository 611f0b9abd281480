// Package filter implements the live regex filter and match highlighter.
// Matching always runs against the color-stripped form of a line.
package filter

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tinytelemetry/ripple/internal/ansitext"
	"github.com/tinytelemetry/ripple/internal/model"
)

// ErrInvalidRegex is returned when a filter pattern does not compile.
var ErrInvalidRegex = errors.New("invalid regex")

// State holds the filter configuration for one buffer.
type State struct {
	pattern   *regexp.Regexp
	highlight bool
}

// Active reports whether a pattern is applied.
func (s *State) Active() bool { return s.pattern != nil }

// Pattern returns the current expression, or "" when inactive.
func (s *State) Pattern() string {
	if s.pattern == nil {
		return ""
	}
	return s.pattern.String()
}

// Highlight reports whether matched spans are emphasized in the display.
func (s *State) Highlight() bool { return s.highlight }

// SetPattern compiles expr and makes it the active filter. On failure the
// previous state is kept and an error wrapping ErrInvalidRegex is returned.
func (s *State) SetPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, expr, err)
	}
	s.pattern = re
	return nil
}

// Clear removes the active pattern.
func (s *State) Clear() { s.pattern = nil }

// ToggleHighlight flips match emphasis and returns the new value.
func (s *State) ToggleHighlight() bool {
	s.highlight = !s.highlight
	return s.highlight
}

// SetHighlight sets match emphasis.
func (s *State) SetHighlight(on bool) { s.highlight = on }

// Matches reports whether the line passes the filter. Every line passes an
// inactive filter.
func (s *State) Matches(line *model.Line) bool {
	if s.pattern == nil {
		return true
	}
	return s.pattern.MatchString(line.Plain)
}

// Display returns the text to render for line: the raw text, with matched
// spans emphasized when highlighting is on and a pattern is active.
func (s *State) Display(line *model.Line) string {
	if s.pattern == nil || !s.highlight {
		return line.Raw
	}
	return Highlight(s.pattern, line.Raw).String()
}

// Highlight marks every match of re in the plain form of raw.
func Highlight(re *regexp.Regexp, raw string) ansitext.Marked {
	text := ansitext.Parse(raw)
	locs := re.FindAllStringIndex(text.Plain(), -1)
	spans := make([]ansitext.Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, ansitext.Span{Start: loc[0], End: loc[1]})
	}
	return text.Mark(spans)
}
