package buffer

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/tinytelemetry/ripple/internal/model"
)

type containsMatcher string

func (m containsMatcher) Active() bool { return m != "" }
func (m containsMatcher) Matches(line *model.Line) bool {
	return strings.Contains(line.Plain, string(m))
}

func lines(texts ...string) []model.Line {
	out := make([]model.Line, len(texts))
	for i, text := range texts {
		out[i] = model.Line{Seq: uint64(i + 1), Raw: text, Plain: text}
	}
	return out
}

func visibleTexts(b *Buffer) []string {
	out := make([]string, 0, b.VisibleLen())
	for pos := 0; pos < b.VisibleLen(); pos++ {
		out = append(out, b.Visible(pos).Raw)
	}
	return out
}

func TestUnfilteredShowsEverything(t *testing.T) {
	t.Parallel()

	b := New()
	b.Append(lines("a", "b", "c")...)
	if got := b.Recompute(); got != 3 {
		t.Fatalf("Recompute() = %d, want 3", got)
	}
	if got := visibleTexts(b); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("visible = %q", got)
	}
	if got := b.Recompute(); got != 0 {
		t.Fatalf("second Recompute() = %d, want 0", got)
	}
}

func TestFilterIncrementalAndIdempotent(t *testing.T) {
	t.Parallel()

	b := New()
	b.Append(lines("ERROR one", "INFO two", "ERROR three")...)
	b.SetFilter(containsMatcher("ERROR"))
	first := visibleTexts(b)
	if !reflect.DeepEqual(first, []string{"ERROR one", "ERROR three"}) {
		t.Fatalf("visible = %q", first)
	}

	b.SetFilter(containsMatcher("ERROR"))
	if second := visibleTexts(b); !reflect.DeepEqual(first, second) {
		t.Fatalf("reapplying filter changed the visible set: %q vs %q", first, second)
	}

	b.Append(lines("INFO four", "ERROR five")...)
	if got := b.Recompute(); got != 1 {
		t.Fatalf("incremental Recompute() = %d, want 1", got)
	}
	if got := b.Recompute(); got != 0 {
		t.Fatalf("idle Recompute() = %d, want 0", got)
	}
	want := []string{"ERROR one", "ERROR three", "ERROR five"}
	if got := visibleTexts(b); !reflect.DeepEqual(got, want) {
		t.Fatalf("visible = %q, want %q", got, want)
	}

	prev := -1
	for pos := 0; pos < b.VisibleLen(); pos++ {
		idx := b.VisibleIndex(pos)
		if idx <= prev {
			t.Fatalf("visible indices not strictly increasing: %d after %d", idx, prev)
		}
		prev = idx
	}
}

func TestClearFilterRestoresAllLines(t *testing.T) {
	t.Parallel()

	b := New()
	b.Append(lines("x1", "y1", "x2")...)
	b.SetFilter(containsMatcher("y"))
	if b.VisibleLen() != 1 {
		t.Fatalf("VisibleLen() = %d, want 1", b.VisibleLen())
	}

	b.SetFilter(containsMatcher(""))
	if b.Filtered() {
		t.Fatal("inactive matcher left buffer filtered")
	}
	if got := visibleTexts(b); !reflect.DeepEqual(got, []string{"x1", "y1", "x2"}) {
		t.Fatalf("visible = %q", got)
	}
	b.SetFilter(nil)
	if b.VisibleLen() != 3 || b.Len() != 3 {
		t.Fatalf("VisibleLen()=%d Len()=%d, want 3", b.VisibleLen(), b.Len())
	}
}

func TestStickTailFollowsAppends(t *testing.T) {
	t.Parallel()

	b := New()
	for i := 0; i < 10; i++ {
		b.Append(lines(fmt.Sprintf("l%d", i))...)
	}
	if start, end := b.Window(3); start != 7 || end != 10 {
		t.Fatalf("Window(3) = [%d,%d), want [7,10)", start, end)
	}
	b.Append(lines("new")...)
	if start, end := b.Window(3); start != 8 || end != 11 {
		t.Fatalf("Window(3) after append = [%d,%d), want [8,11)", start, end)
	}
}

func TestStickHeadPinsOldest(t *testing.T) {
	t.Parallel()

	b := New()
	b.Append(lines("a", "b", "c", "d")...)
	b.SetStick(StickHead, 2)
	b.Append(lines("e")...)
	if start, end := b.Window(2); start != 0 || end != 2 {
		t.Fatalf("Window(2) = [%d,%d), want [0,2)", start, end)
	}
}

func TestStickFreeHoldsPosition(t *testing.T) {
	t.Parallel()

	b := New()
	for i := 0; i < 20; i++ {
		b.Append(lines(fmt.Sprintf("l%d", i))...)
	}
	b.Scroll(-5, 4)
	if b.Stick() != StickFree {
		t.Fatalf("Stick() = %v, want free", b.Stick())
	}
	if start, end := b.Window(4); start != 11 || end != 15 {
		t.Fatalf("Window(4) = [%d,%d), want [11,15)", start, end)
	}

	b.Append(lines("x", "y")...)
	if start, end := b.Window(4); start != 11 || end != 15 {
		t.Fatalf("Window(4) moved after append: [%d,%d)", start, end)
	}

	b.Scroll(-100, 4)
	if start, end := b.Window(4); start != 0 || end != 4 {
		t.Fatalf("Window(4) after scrolling past top = [%d,%d), want [0,4)", start, end)
	}

	b.Scroll(100, 4)
	if b.Stick() != StickTail {
		t.Fatalf("scrolling to the bottom should stick to tail, got %v", b.Stick())
	}
}

func TestWindowShorterThanHeight(t *testing.T) {
	t.Parallel()

	b := New()
	if start, end := b.Window(5); start != 0 || end != 0 {
		t.Fatalf("empty Window = [%d,%d)", start, end)
	}
	b.Append(lines("only")...)
	got := b.Lines(5)
	if len(got) != 1 || got[0].Raw != "only" {
		t.Fatalf("Lines(5) = %+v", got)
	}
}

func TestLargeBufferFullRescan(t *testing.T) {
	t.Parallel()

	b := New()
	const n = 100_000
	batch := make([]model.Line, n)
	for i := range batch {
		text := "even"
		if i%2 == 1 {
			text = "odd"
		}
		batch[i] = model.Line{Seq: uint64(i + 1), Raw: text, Plain: text}
	}
	b.Append(batch...)
	b.SetFilter(containsMatcher("odd"))
	if b.VisibleLen() != n/2 {
		t.Fatalf("VisibleLen() = %d, want %d", b.VisibleLen(), n/2)
	}
	if b.Visible(0).Seq != 2 {
		t.Fatalf("first visible seq = %d, want 2", b.Visible(0).Seq)
	}
}
