package poll

import (
	"errors"
	"testing"
	"time"
)

func TestSmartBurstShortensInterval(t *testing.T) {
	t.Parallel()

	s := New(Config{Mode: Smart, Min: 10 * time.Millisecond, Max: 100 * time.Millisecond, Window: 5})

	for i := 0; i < 5; i++ {
		s.Observe(1, 50*time.Millisecond)
	}
	baseline := s.Next()

	s.Observe(1000, 50*time.Millisecond)
	afterBurst := s.Next()
	if afterBurst > baseline {
		t.Fatalf("interval after burst %v > baseline %v", afterBurst, baseline)
	}
	if afterBurst != 10*time.Millisecond {
		t.Fatalf("interval after burst = %v, want clamped to min", afterBurst)
	}

	for i := 0; i < 1000; i++ {
		s.Observe(0, s.Next())
		if got := s.Next(); got > 100*time.Millisecond {
			t.Fatalf("interval %v exceeds max during silence", got)
		}
	}
	if got := s.Next(); got != 100*time.Millisecond {
		t.Fatalf("interval after long silence = %v, want max", got)
	}
}

func TestSmartMonotonicInRate(t *testing.T) {
	t.Parallel()

	prev := time.Duration(1<<63 - 1)
	for _, perTick := range []int{0, 1, 2, 3, 5, 8, 20, 100, 10_000} {
		s := New(Config{Mode: Smart, Min: time.Millisecond, Max: time.Second, Window: 3})
		for i := 0; i < 3; i++ {
			s.Observe(perTick, 100*time.Millisecond)
		}
		got := s.Next()
		if got > prev {
			t.Fatalf("rate %d lines/tick gave %v, longer than lower rate's %v", perTick, got, prev)
		}
		prev = got
	}
}

func TestSmartWindowSlides(t *testing.T) {
	t.Parallel()

	s := New(Config{Mode: Smart, Window: 2})
	s.Observe(100, time.Second)
	s.Observe(0, time.Second)
	if r := s.Rate(); r != 50 {
		t.Fatalf("Rate() = %v, want 50", r)
	}
	s.Observe(0, time.Second)
	if r := s.Rate(); r != 0 {
		t.Fatalf("Rate() after burst left the window = %v, want 0", r)
	}
}

func TestMindlessIgnoresRate(t *testing.T) {
	t.Parallel()

	s := New(Config{Mode: Mindless, Interval: 50 * time.Millisecond})
	s.Observe(100_000, time.Millisecond)
	if got := s.Next(); got != 50*time.Millisecond {
		t.Fatalf("Next() = %v, want 50ms", got)
	}
}

func TestOverridePersistsUntilReplaced(t *testing.T) {
	t.Parallel()

	s := New(Config{Mode: Smart})
	if err := s.SetOverride(250 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		s.Observe(5000, time.Millisecond)
		if got := s.Next(); got != 250*time.Millisecond {
			t.Fatalf("Next() = %v, want override", got)
		}
	}
	if s.Mode() != Smart {
		t.Fatalf("override changed mode to %v", s.Mode())
	}
	if err := s.SetOverride(5 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if got := s.Next(); got != 5*time.Millisecond {
		t.Fatalf("Next() = %v, want replacement override", got)
	}
	s.ClearOverride()
	if _, ok := s.Override(); ok {
		t.Fatal("override still set after ClearOverride")
	}
	if got := s.Next(); got != s.Config().Min {
		t.Fatalf("Next() after clear = %v, want min for a busy stream", got)
	}
}

func TestSetOverrideRejectsNonPositive(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	if err := s.SetOverride(0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("SetOverride(0) = %v, want ErrInvalidInterval", err)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": Smart, "smart": Smart, "Mindless": Mindless, "fixed": Mindless} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
