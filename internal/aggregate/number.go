package aggregate

import (
	"math"
	"strconv"
)

// ExtractNumber returns the first valid number in s. Candidates are maximal
// runs of digits and dots, optionally preceded by a sign; a run is valid when
// it has at least one digit and at most one dot.
func ExtractNumber(s string) (float64, bool) {
	for i := 0; i < len(s); {
		if !isNumeric(s[i]) {
			i++
			continue
		}
		start := i
		if start > 0 && (s[start-1] == '-' || s[start-1] == '+') {
			start--
		}
		digits, dots := 0, 0
		for i < len(s) && isNumeric(s[i]) {
			if s[i] == '.' {
				dots++
			} else {
				digits++
			}
			i++
		}
		if digits == 0 || dots > 1 {
			continue
		}
		v, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func isNumeric(b byte) bool {
	return b == '.' || (b >= '0' && b <= '9')
}

// saturatingAdd adds v to total and pins the result at the float64 maximum
// instead of overflowing to infinity.
func saturatingAdd(total, v float64) float64 {
	if total >= math.MaxFloat64 {
		return math.MaxFloat64
	}
	sum := total + v
	if math.IsInf(sum, 1) {
		return math.MaxFloat64
	}
	if math.IsInf(sum, -1) {
		return -math.MaxFloat64
	}
	return sum
}

// formatNumber renders v rounded to four decimal places.
func formatNumber(v float64) string {
	if math.Abs(v) < 1e15 {
		v = math.Round(v*1e4) / 1e4
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Sum reports the running total of extracted numbers.
type Sum struct {
	total float64
}

func (s *Sum) Update(value string) {
	if v, ok := ExtractNumber(value); ok {
		s.total = saturatingAdd(s.total, v)
	}
}

// Total returns the running total.
func (s *Sum) Total() float64 { return s.total }

func (s *Sum) Summary() []string { return []string{"Total: " + formatNumber(s.total)} }
func (s *Sum) Kind() Kind        { return KindSum }
func (s *Sum) sealed()           {}

// Mean reports the running mean, sample count and total of extracted
// numbers. Values without a number are not samples.
type Mean struct {
	total float64
	count float64
}

func (m *Mean) Update(value string) {
	v, ok := ExtractNumber(value)
	if !ok {
		return
	}
	m.total = saturatingAdd(m.total, v)
	m.count = saturatingAdd(m.count, 1)
}

// Value returns the running mean, or 0 before the first sample.
func (m *Mean) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.total / m.count
}

// Count returns the number of samples.
func (m *Mean) Count() float64 { return m.count }

func (m *Mean) Summary() []string {
	return []string{
		"Mean: " + formatNumber(m.Value()),
		"Count: " + formatNumber(m.count),
		"Total: " + formatNumber(m.total),
	}
}

func (m *Mean) Kind() Kind { return KindMean }
func (m *Mean) sealed()    {}
