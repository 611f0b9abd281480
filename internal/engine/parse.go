package engine

import (
	"errors"

	"github.com/tinytelemetry/ripple/internal/aggregate"
	"github.com/tinytelemetry/ripple/internal/buffer"
	"github.com/tinytelemetry/ripple/internal/parser"
)

// Record is one successfully parsed visible line.
type Record struct {
	Index  int // position in the buffer's raw sequence
	Values []string
}

// parseState is the derived field data of an active parser. It is rebuilt
// from the visible set whenever that set is rescanned, so aggregates only
// ever reflect the current window.
type parseState struct {
	pattern  *parser.Pattern
	set      *aggregate.Set
	records  []Record
	scanned  int // visible positions already parsed
	field    int
	noMatch  uint64
	mismatch uint64
}

func newParseState(p *parser.Pattern, limit int) (*parseState, error) {
	set, err := p.NewAggregators(limit)
	if err != nil {
		return nil, err
	}
	return &parseState{pattern: p, set: set}, nil
}

// advance parses the visible lines appended since the last call.
func (ps *parseState) advance(buf *buffer.Buffer, m Recorder) int {
	n := 0
	for ; ps.scanned < buf.VisibleLen(); ps.scanned++ {
		line := buf.Visible(ps.scanned)
		values, err := ps.pattern.Parse(line.Plain)
		if err != nil {
			switch {
			case errors.Is(err, parser.ErrNoMatch):
				ps.noMatch++
				m.ParseFailed("no_match")
			case errors.Is(err, parser.ErrFieldCountMismatch):
				ps.mismatch++
				m.ParseFailed("field_count_mismatch")
			}
			continue
		}
		// Regex submatches alias the line; keep a private copy.
		values = append([]string(nil), values...)
		ps.set.Update(values)
		ps.records = append(ps.records, Record{Index: buf.VisibleIndex(ps.scanned), Values: values})
		m.LineParsed()
		n++
	}
	return n
}

// rewind discards all derived data so the next advance starts over.
func (ps *parseState) rewind() {
	ps.set.Reset()
	ps.records = ps.records[:0]
	ps.scanned = 0
	ps.noMatch = 0
	ps.mismatch = 0
}
