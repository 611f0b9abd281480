package aggregate

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"
)

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"653.12 this is a test", 653.12, true},
		{"4.123 this is a test 123.4", 4.123, true},
		{"this is a 123.123. test", 0, false},
		{"1_f32", 1, true},
		{"latency=-12.5ms", -12.5, true},
		{"no digits here.", 0, false},
		{"end. 42", 42, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ExtractNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCounterTopNWithPercent(t *testing.T) {
	c := NewCounter(5)
	for _, v := range []string{"INFO", "WARNING", "ERROR", "INFO", "INFO"} {
		c.Update(v)
	}
	want := []string{"INFO: 3 (60%)", "WARNING: 1 (20%)", "ERROR: 1 (20%)"}
	if got := c.Summary(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}

func TestCounterLimitAndTies(t *testing.T) {
	c := NewCounter(2)
	for _, v := range []string{"c", "b", "a", "a", "b"} {
		c.Update(v)
	}
	// b and a tie at 2; b was seen first.
	want := []string{"b: 2 (40%)", "a: 2 (40%)"}
	if got := c.Summary(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
	c.SetLimit(10)
	if got := len(c.Summary()); got != 3 {
		t.Fatalf("len(Summary()) after SetLimit = %d, want 3", got)
	}
}

func TestModeIsFrozenAtOne(t *testing.T) {
	m := NewMode()
	for _, v := range []string{"x", "y", "y"} {
		m.Update(v)
	}
	m.SetLimit(5)
	want := []string{"y: 2 (66.67%)"}
	if got := m.Summary(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
	if m.Kind() != KindMode {
		t.Fatalf("Kind() = %v", m.Kind())
	}
}

func TestSumAndMean(t *testing.T) {
	s := &Sum{}
	m := &Mean{}
	for _, v := range []string{"1_f32", "2_f32", "no number", "3_f32"} {
		s.Update(v)
		m.Update(v)
	}
	if got := s.Summary(); !reflect.DeepEqual(got, []string{"Total: 6"}) {
		t.Fatalf("Sum.Summary() = %q", got)
	}
	want := []string{"Mean: 2", "Count: 3", "Total: 6"}
	if got := m.Summary(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Mean.Summary() = %q, want %q", got, want)
	}
}

func TestMeanRoundsToFourPlaces(t *testing.T) {
	m := &Mean{}
	for _, v := range []string{"1", "1", "2"} {
		m.Update(v)
	}
	if got := m.Summary()[0]; got != "Mean: 1.3333" {
		t.Fatalf("mean line = %q", got)
	}
}

func TestNumbersSaturate(t *testing.T) {
	m := &Mean{}
	big := strconv.FormatFloat(math.MaxFloat64-1, 'f', -1, 64)
	m.Update(big + " test")
	m.Update(big + " test")
	if m.total != math.MaxFloat64 {
		t.Fatalf("total = %v, want MaxFloat64", m.total)
	}
	if m.Value() != math.MaxFloat64/2 {
		t.Fatalf("mean = %v, want MaxFloat64/2", m.Value())
	}
}

func TestEmptyMean(t *testing.T) {
	m := &Mean{}
	if got := m.Summary()[0]; got != "Mean: 0" {
		t.Fatalf("empty mean line = %q", got)
	}
}

func TestNone(t *testing.T) {
	agg, err := New(Method{Kind: KindNone}, 5)
	if err != nil {
		t.Fatal(err)
	}
	agg.Update("anything")
	if got := agg.Summary(); !reflect.DeepEqual(got, []string{"Disabled"}) {
		t.Fatalf("Summary() = %q", got)
	}
}

func TestTemporalRateUnits(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		unit   string
		rate   float64
	}{
		{"weekly", spreadDays(10, 14), "week", 5},
		{"daily", spreadDays(15, 14), "day", 15.0 / 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewTemporal(KindDate, "[year]-[month]-[day]")
			if err != nil {
				t.Fatal(err)
			}
			for _, v := range tt.values {
				d.Update(v)
			}
			rate, unit, ok := d.Rate()
			if !ok {
				t.Fatal("expected a rate")
			}
			if unit != tt.unit || math.Abs(rate-tt.rate) > 1e-9 {
				t.Fatalf("Rate() = %v per %s, want %v per %s", rate, unit, tt.rate, tt.unit)
			}
		})
	}
}

// spreadDays returns n dates: the first is 2021-01-01, the last is span days
// later and the rest repeat the first.
func spreadDays(n, span int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "2021-01-01"
	}
	out[n-1] = "2021-01-" + twoDigits(1+span)
	return out
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestTemporalHourlyTimeOfDay(t *testing.T) {
	tm, err := NewTemporal(KindTime, "[hour]:[minute]:[second]")
	if err != nil {
		t.Fatal(err)
	}
	tm.Update("10:00:00")
	tm.Update("garbage")
	tm.Update("12:00:00")
	tm.Update("11:00:00")

	want := []string{"Rate: 1.5 per hour", "Count: 3", "Earliest: 10:00:00", "Latest: 12:00:00"}
	if got := tm.Summary(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}

func TestTemporalInsufficientData(t *testing.T) {
	dt, err := NewTemporal(KindDateTime, "[year]-[month]-[day] [hour]:[minute]:[second]")
	if err != nil {
		t.Fatal(err)
	}
	if got := dt.Summary()[0]; got != "Rate: insufficient data" {
		t.Fatalf("empty rate line = %q", got)
	}
	dt.Update("2021-01-01 00:00:00")
	dt.Update("2021-01-01 00:00:00")
	if _, _, ok := dt.Rate(); ok {
		t.Fatal("rate reported from a single distinct timestamp")
	}
	if got := dt.Summary()[2]; got != "Earliest: 2021-01-01 00:00:00" {
		t.Fatalf("earliest line = %q", got)
	}
}

func TestNewTemporalRejectsBadFormat(t *testing.T) {
	if _, err := New(Method{Kind: KindDate, Format: "[eon]"}, 5); err == nil {
		t.Fatal("expected error for unknown format component")
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"Count", "mode", "SUM", "Mean", "Date", "time", "DateTime", "None"} {
		if _, err := ParseKind(name); err != nil {
			t.Errorf("ParseKind(%q): %v", name, err)
		}
	}
	if _, err := ParseKind("Median"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(Median) err = %v", err)
	}
}

func TestSetUpdateLimitReset(t *testing.T) {
	s, err := NewSet(
		[]string{"Level", "Latency"},
		map[string]Method{"Level": {Kind: KindCount}, "Latency": {Kind: KindMean}},
		5,
	)
	if err != nil {
		t.Fatal(err)
	}
	s.Update([]string{"INFO", "12ms"})
	s.Update([]string{"WARN", "8ms"})
	s.Update([]string{"INFO", "n/a"})

	sums := s.Summaries()
	if sums[0].Name != "Level" || !reflect.DeepEqual(sums[0].Lines, []string{"INFO: 2 (66.67%)", "WARN: 1 (33.33%)"}) {
		t.Fatalf("Level summary = %+v", sums[0])
	}
	if !reflect.DeepEqual(sums[1].Lines, []string{"Mean: 10", "Count: 2", "Total: 20"}) {
		t.Fatalf("Latency summary = %+v", sums[1])
	}

	if err := s.SetLimit(0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("SetLimit(0) = %v", err)
	}
	if err := s.SetLimit(1); err != nil {
		t.Fatal(err)
	}
	if got := s.Summaries()[0].Lines; len(got) != 1 {
		t.Fatalf("limited summary = %q", got)
	}

	s.Reset()
	if s.Updates() != 0 {
		t.Fatalf("Updates() after reset = %d", s.Updates())
	}
	if got := s.Summaries()[0].Lines; !reflect.DeepEqual(got, []string{"No data"}) {
		t.Fatalf("summary after reset = %q", got)
	}
	if s.Limit() != 1 {
		t.Fatalf("Limit() after reset = %d, want 1", s.Limit())
	}
}

func TestNewSetRejectsMissingMethod(t *testing.T) {
	if _, err := NewSet([]string{"a"}, map[string]Method{}, 5); err == nil {
		t.Fatal("expected error for field without method")
	}
}
