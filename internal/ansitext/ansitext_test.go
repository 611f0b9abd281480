package ansitext

import (
	"reflect"
	"testing"
)

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "word", "word"},
		{"dirty", "\x1b[0m word \x1b[32m", " word "},
		{"bold color", "\x1b[1;31mERROR\x1b[0m disk full", "ERROR disk full"},
		{"c1 csi", "\x9b32mok", "ok"},
		{"osc hyperlink", "\x1b]8;;http://x\x07link\x1b]8;;\x07 ok", "link ok"},
		{"osc title st", "\x1b]0;build\x1b\\done", "done"},
		{"charset designator", "a \x1b(Bdone", "a done"},
		{"tab kept", "a\tb", "a\tb"},
		{"unicode", "naïve › \x1b[33mwarn\x1b[39m", "naïve › warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got := Parse(tt.input).Plain(); got != tt.want {
				t.Errorf("Parse(%q).Plain() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarkPlainText(t *testing.T) {
	t.Parallel()

	got := Parse("hello world").Mark([]Span{{6, 11}}).String()
	want := "hello " + MarkOpen + "world" + MarkClose
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestMarkKeepsEmbeddedCodes(t *testing.T) {
	t.Parallel()

	raw := "\x1b[32mINFO\x1b[0m user \x1b[1mbob\x1b[22m logged in"
	text := Parse(raw)
	if text.Plain() != "INFO user bob logged in" {
		t.Fatalf("Plain() = %q", text.Plain())
	}

	// "user bob" spans a code in the middle.
	got := text.Mark([]Span{{5, 13}}).String()
	want := "\x1b[32mINFO\x1b[0m " + MarkOpen + "user \x1b[1mbob" + MarkClose + "\x1b[22m logged in"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	if stripped := Strip(got); stripped != text.Plain() {
		t.Fatalf("marks changed plain text: %q", stripped)
	}
}

func TestMarkSpanAtStartAfterCode(t *testing.T) {
	t.Parallel()

	raw := "\x1b[31mERROR\x1b[0m"
	got := Parse(raw).Mark([]Span{{0, 5}}).String()
	want := "\x1b[31m" + MarkOpen + "ERROR" + MarkClose + "\x1b[0m"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestMarkNormalizesSpans(t *testing.T) {
	t.Parallel()

	m := Parse("abcdefgh").Mark([]Span{{4, 6}, {-2, 2}, {1, 3}, {5, 99}, {7, 7}})
	want := []Span{{0, 3}, {4, 8}}
	if !reflect.DeepEqual(m.Spans(), want) {
		t.Fatalf("Spans() = %+v, want %+v", m.Spans(), want)
	}
}

func TestUnmarkRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"plain",
		"\x1b[7malready reversed\x1b[27m text",
		"\x1b[38;5;208mwarn\x1b[0m: retry 3",
	}
	for _, raw := range inputs {
		m := Parse(raw).Mark([]Span{{0, 2}})
		if got := m.Unmark(); got != raw {
			t.Errorf("Unmark() = %q, want %q", got, raw)
		}
	}
}

func TestParseOffsetsAcrossOSC(t *testing.T) {
	t.Parallel()

	raw := "\x1b]8;;http://x\x07link\x1b]8;;\x07 ok \x1b(Bdone"
	text := Parse(raw)
	if text.Plain() != "link ok done" {
		t.Fatalf("Plain() = %q", text.Plain())
	}

	got := text.Mark([]Span{{0, 4}}).String()
	want := "\x1b]8;;http://x\x07" + MarkOpen + "link" + MarkClose + "\x1b]8;;\x07 ok \x1b(Bdone"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestMarkRestoresLineReverse(t *testing.T) {
	t.Parallel()

	got := Parse("\x1b[7mab cd\x1b[0m").Mark([]Span{{0, 2}}).String()
	want := "\x1b[7m" + MarkOpen + "ab" + MarkClose + MarkOpen + " cd\x1b[0m"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestMarkSurvivesResetInsideSpan(t *testing.T) {
	t.Parallel()

	got := Parse("\x1b[31mERROR\x1b[0m: bad").Mark([]Span{{3, 8}}).String()
	want := "\x1b[31mERR" + MarkOpen + "OR\x1b[0m" + MarkOpen + ": b" + MarkClose + "ad"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSGRReverse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seq  string
		want reverseEffect
	}{
		{"\x1b[m", reverseOff},
		{"\x1b[0m", reverseOff},
		{"\x1b[27m", reverseOff},
		{"\x1b[1;7m", reverseOn},
		{"\x1b[7;0m", reverseOff},
		{"\x1b[31m", reverseKeep},
		{"\x1b[38;5;7m", reverseKeep},
		{"\x1b[38;2;7;0;27m", reverseKeep},
		{"\x1b[38:5:0m", reverseKeep},
		{"\x1b[?7h", reverseKeep},
		{"\x1b[2K", reverseKeep},
		{"\x9b7m", reverseOn},
	}
	for _, tt := range tests {
		if got := sgrReverse(tt.seq); got != tt.want {
			t.Errorf("sgrReverse(%q) = %v, want %v", tt.seq, got, tt.want)
		}
	}
}
