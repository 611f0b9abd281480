// Package ansitext models terminal text as plain characters plus the byte
// offsets of embedded escape sequences, so emphasis can be added over plain
// text ranges without disturbing the original formatting bytes.
package ansitext

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Emphasis markers wrapped around marked spans. Reverse video is switched
// off with its own code (27) rather than a full reset so that colors set
// earlier on the line survive past the span.
const (
	MarkOpen  = "\x1b[7m"
	MarkClose = "\x1b[27m"
)

// Strip returns raw with all escape sequences removed.
func Strip(raw string) string {
	return Parse(raw).Plain()
}

// HasEscape reports whether s may contain an escape sequence, in 7-bit or
// 8-bit form.
func HasEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ansi.ESC, ansi.CSI, ansi.OSC, ansi.DCS, ansi.APC, ansi.SOS, ansi.PM, ansi.ST:
			return true
		}
	}
	return false
}

// isEscape reports whether a decoded sequence is an escape rather than a
// printable grapheme or a plain control character.
func isEscape(seq string) bool {
	if seq == "" {
		return false
	}
	switch seq[0] {
	case ansi.ESC, ansi.CSI, ansi.OSC, ansi.DCS, ansi.APC, ansi.SOS, ansi.PM, ansi.ST:
		return true
	}
	return false
}

// reverseEffect is what an escape does to reverse video.
type reverseEffect int

const (
	reverseKeep reverseEffect = iota
	reverseOn
	reverseOff
)

// escape is one escape sequence at raw[start:end].
type escape struct {
	start, end int
	reverse    reverseEffect
}

// Text is a parsed line: the raw bytes, the plain bytes and, for lines that
// carry escape sequences, the raw offset of every plain byte.
type Text struct {
	raw     string
	plain   string
	index   []int // nil when raw == plain
	escapes []escape
}

// Parse builds the text model for raw.
func Parse(raw string) Text {
	if !HasEscape(raw) {
		return Text{raw: raw, plain: raw}
	}

	var (
		plain   strings.Builder
		index   = make([]int, 0, len(raw))
		escapes []escape
		state   byte
	)
	plain.Grow(len(raw))
	for pos := 0; pos < len(raw); {
		seq, _, n, newState := ansi.DecodeSequence(raw[pos:], state, nil)
		state = newState
		if n <= 0 {
			n = 1
			seq = raw[pos : pos+1]
		}
		if isEscape(seq) {
			escapes = append(escapes, escape{start: pos, end: pos + n, reverse: sgrReverse(seq)})
		} else {
			plain.WriteString(seq)
			for i := 0; i < n; i++ {
				index = append(index, pos+i)
			}
		}
		pos += n
	}
	if len(escapes) == 0 {
		return Text{raw: raw, plain: raw}
	}
	return Text{raw: raw, plain: plain.String(), index: index, escapes: escapes}
}

// sgrReverse reports how an SGR sequence changes reverse video. Extended
// color arguments (38;5;n, 38;2;r;g;b and friends) are skipped so their
// values are not read as attributes.
func sgrReverse(seq string) reverseEffect {
	var body string
	switch {
	case ansi.HasPrefix(seq, "\x1b["):
		body = seq[2:]
	case seq[0] == ansi.CSI:
		body = seq[1:]
	default:
		return reverseKeep
	}
	if !strings.HasSuffix(body, "m") {
		return reverseKeep
	}
	body = body[:len(body)-1]
	if strings.ContainsAny(body, "<=>? !\"#$%&'()*+,-./") {
		return reverseKeep
	}
	if body == "" {
		return reverseOff
	}

	effect := reverseKeep
	params := strings.Split(body, ";")
	for i := 0; i < len(params); i++ {
		head, _, sub := strings.Cut(params[i], ":")
		code := 0
		if head != "" {
			v, err := strconv.Atoi(head)
			if err != nil {
				return reverseKeep
			}
			code = v
		}
		switch code {
		case 0, 27:
			effect = reverseOff
		case 7:
			effect = reverseOn
		case 38, 48, 58:
			if sub {
				continue
			}
			if i+1 < len(params) {
				switch params[i+1] {
				case "5":
					i += 2
				case "2":
					i += 4
				}
			}
		}
	}
	return effect
}

// Raw returns the original bytes.
func (t Text) Raw() string { return t.raw }

// Plain returns the text with escape sequences removed.
func (t Text) Plain() string { return t.plain }

func (t Text) rawOffset(i int) int {
	if t.index == nil {
		return i
	}
	return t.index[i]
}

// Span is a half-open byte range [Start, End) over the plain text.
type Span struct {
	Start int
	End   int
}

// Marked is a text with emphasis spans. It keeps the unmarked text so the
// marks can be dropped without any string surgery.
type Marked struct {
	text  Text
	spans []Span
}

// Mark applies spans to the text. Empty, out-of-range and overlapping spans
// are clipped or dropped.
func (t Text) Mark(spans []Span) Marked {
	clean := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > len(t.plain) {
			s.End = len(t.plain)
		}
		if s.End <= s.Start {
			continue
		}
		clean = append(clean, s)
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].Start < clean[j].Start })

	merged := clean[:0]
	for _, s := range clean {
		if n := len(merged); n > 0 && s.Start < merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return Marked{text: t, spans: merged}
}

// Spans returns the normalized spans.
func (m Marked) Spans() []Span { return m.spans }

// Unmark returns the raw text exactly as it was before marking.
func (m Marked) Unmark() string { return m.text.raw }

// String serializes the marked text. Every original byte, escape sequences
// included, is kept in order. Marks are added at span boundaries, after any
// original code inside a span that switches reverse video off, and after a
// span that closes over text the line itself shows reversed.
func (m Marked) String() string {
	if len(m.spans) == 0 {
		return m.text.raw
	}
	w := markWriter{text: m.text}
	w.b.Grow(len(m.text.raw) + len(m.spans)*(len(MarkOpen)+len(MarkClose)))
	prev := 0
	for _, s := range m.spans {
		start := m.text.rawOffset(s.Start)
		end := m.text.rawOffset(s.End-1) + 1
		w.copy(prev, start, false)
		w.b.WriteString(MarkOpen)
		w.copy(start, end, true)
		w.b.WriteString(MarkClose)
		if w.reversed {
			w.b.WriteString(MarkOpen)
		}
		prev = end
	}
	w.copy(prev, len(m.text.raw), false)
	return w.b.String()
}

// markWriter copies raw ranges while tracking the line's own reverse video.
type markWriter struct {
	text     Text
	b        strings.Builder
	next     int // first escape not yet copied
	reversed bool
}

// copy writes raw[from:to]. Span boundaries fall on plain bytes, so an
// escape is never split by to.
func (w *markWriter) copy(from, to int, inSpan bool) {
	raw := w.text.raw
	for w.next < len(w.text.escapes) && w.text.escapes[w.next].start < to {
		e := w.text.escapes[w.next]
		w.b.WriteString(raw[from:e.start])
		w.b.WriteString(raw[e.start:e.end])
		switch e.reverse {
		case reverseOn:
			w.reversed = true
		case reverseOff:
			w.reversed = false
			if inSpan {
				w.b.WriteString(MarkOpen)
			}
		}
		from = e.end
		w.next++
	}
	w.b.WriteString(raw[from:to])
}
