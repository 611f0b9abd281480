// Package buffer stores ingested lines for one channel together with the
// filtered view over them and the scroll position of that view.
package buffer

import "github.com/tinytelemetry/ripple/internal/model"

// Matcher decides line visibility. An inactive matcher shows every line.
type Matcher interface {
	Active() bool
	Matches(line *model.Line) bool
}

// Stick selects how the view follows appended lines.
type Stick int

const (
	StickTail Stick = iota // follow the newest visible line
	StickHead              // pin to the oldest visible line
	StickFree              // hold the manual cursor position
)

func (s Stick) String() string {
	switch s {
	case StickHead:
		return "head"
	case StickFree:
		return "free"
	default:
		return "tail"
	}
}

// Buffer is an append-only line store with a recomputable visible subset.
// Lines are never mutated or removed once appended. A Buffer is owned by the
// coordinating goroutine and is not safe for concurrent use.
type Buffer struct {
	lines []model.Line

	matcher  Matcher
	filtered bool  // false means every line is visible; visible is unused
	visible  []int // strictly increasing indices into lines
	scanned  int   // lines[:scanned] have been tested against matcher

	stick  Stick
	cursor int // exclusive end of the view in visible coordinates, StickFree only
}

// New returns an empty buffer following its tail.
func New() *Buffer {
	return &Buffer{stick: StickTail}
}

// Append adds lines in order. Without a filter they are visible at once;
// with one, the visible set is brought up to date by the next Recompute.
func (b *Buffer) Append(lines ...model.Line) {
	b.lines = append(b.lines, lines...)
}

// Len returns the number of stored lines.
func (b *Buffer) Len() int { return len(b.lines) }

// Line returns the stored line at index i.
func (b *Buffer) Line(i int) *model.Line { return &b.lines[i] }

// SetFilter installs m and rescans every stored line. A nil or inactive
// matcher restores the unfiltered view without scanning.
func (b *Buffer) SetFilter(m Matcher) {
	if m == nil || !m.Active() {
		b.matcher = nil
		b.filtered = false
		b.visible = b.visible[:0]
		b.scanned = len(b.lines)
		b.clampCursor()
		return
	}
	b.matcher = m
	b.filtered = true
	b.visible = b.visible[:0]
	b.scanned = 0
	b.Recompute()
}

// Filtered reports whether a matcher currently restricts the view.
func (b *Buffer) Filtered() bool { return b.filtered }

// Recompute tests lines appended since the last call and returns how many
// of them are visible. It does no work when nothing was appended.
func (b *Buffer) Recompute() int {
	if !b.filtered {
		added := len(b.lines) - b.scanned
		b.scanned = len(b.lines)
		return added
	}
	before := len(b.visible)
	for i := b.scanned; i < len(b.lines); i++ {
		if b.matcher.Matches(&b.lines[i]) {
			b.visible = append(b.visible, i)
		}
	}
	b.scanned = len(b.lines)
	b.clampCursor()
	return len(b.visible) - before
}

// VisibleLen returns the size of the visible set.
func (b *Buffer) VisibleLen() int {
	if !b.filtered {
		return len(b.lines)
	}
	return len(b.visible)
}

// Visible returns the line at position pos of the visible set.
func (b *Buffer) Visible(pos int) *model.Line {
	return &b.lines[b.VisibleIndex(pos)]
}

// VisibleIndex maps a visible position to its line index.
func (b *Buffer) VisibleIndex(pos int) int {
	if !b.filtered {
		return pos
	}
	return b.visible[pos]
}

// Stick returns the current pinning mode.
func (b *Buffer) Stick() Stick { return b.stick }

// SetStick changes the pinning mode. Switching to StickFree keeps the view
// where it currently is for a viewport of the given height.
func (b *Buffer) SetStick(s Stick, height int) {
	if s == StickFree && b.stick != StickFree {
		_, b.cursor = b.Window(height)
	}
	b.stick = s
}

// Scroll moves the view by delta lines (negative is towards older lines)
// for a viewport of the given height. Any scroll frees the view; scrolling
// onto the newest line sticks it to the tail again.
func (b *Buffer) Scroll(delta, height int) {
	_, end := b.Window(height)
	b.stick = StickFree
	b.cursor = end + delta
	b.clampCursorFor(height)
	if delta > 0 && b.cursor >= b.VisibleLen() {
		b.stick = StickTail
	}
}

// Window returns the visible positions [start, end) to render in a viewport
// of the given height.
func (b *Buffer) Window(height int) (start, end int) {
	n := b.VisibleLen()
	if height <= 0 || n == 0 {
		return 0, 0
	}
	switch b.stick {
	case StickHead:
		end = min(height, n)
	case StickFree:
		end = max(min(b.cursor, n), min(height, n))
	default:
		end = n
	}
	start = max(end-height, 0)
	return start, end
}

// Lines returns the lines to render in a viewport of the given height.
func (b *Buffer) Lines(height int) []*model.Line {
	start, end := b.Window(height)
	out := make([]*model.Line, 0, end-start)
	for pos := start; pos < end; pos++ {
		out = append(out, b.Visible(pos))
	}
	return out
}

func (b *Buffer) clampCursor() {
	if n := b.VisibleLen(); b.cursor > n {
		b.cursor = n
	}
}

func (b *Buffer) clampCursorFor(height int) {
	n := b.VisibleLen()
	if b.cursor > n {
		b.cursor = n
	}
	if floor := min(height, n); b.cursor < floor {
		b.cursor = floor
	}
}
