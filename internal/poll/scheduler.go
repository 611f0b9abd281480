// Package poll decides how long the coordinator waits between ingestion
// passes.
package poll

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/ripple/internal/model"
)

// Mode selects the interval strategy. It is fixed for a session.
type Mode int

const (
	Smart    Mode = iota // interval follows the recent arrival rate
	Mindless             // fixed interval
)

func (m Mode) String() string {
	if m == Mindless {
		return "mindless"
	}
	return "smart"
}

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smart":
		return Smart, nil
	case "mindless", "fixed":
		return Mindless, nil
	default:
		return Smart, fmt.Errorf("unknown poll mode %q", s)
	}
}

// ErrInvalidInterval is returned for non-positive override intervals.
var ErrInvalidInterval = errors.New("poll interval must be positive")

// Config holds scheduler tunables. Zero values take the model defaults.
type Config struct {
	Mode     Mode
	Interval time.Duration // Mindless interval
	Min      time.Duration
	Max      time.Duration
	Window   int // number of recent ticks considered by Smart mode
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = model.DefaultPollInterval
	}
	if c.Min <= 0 {
		c.Min = model.DefaultMinPollInterval
	}
	if c.Max <= 0 {
		c.Max = model.DefaultMaxPollInterval
	}
	if c.Max < c.Min {
		c.Max = c.Min
	}
	if c.Window <= 0 {
		c.Window = model.DefaultPollWindow
	}
	return c
}

type sample struct {
	lines   int
	elapsed time.Duration
}

// Scheduler computes the next poll interval.
type Scheduler struct {
	cfg Config

	window  []sample // ring buffer of the last cfg.Window ticks
	next    int
	filled  bool
	lines   int
	elapsed time.Duration

	override time.Duration // zero when unset
}

// New returns a scheduler for cfg.
func New(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{cfg: cfg, window: make([]sample, cfg.Window)}
}

// Mode returns the session mode.
func (s *Scheduler) Mode() Mode { return s.cfg.Mode }

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Observe records that lines arrived during a tick lasting elapsed.
func (s *Scheduler) Observe(lines int, elapsed time.Duration) {
	if lines < 0 {
		lines = 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	old := s.window[s.next]
	if s.filled {
		s.lines -= old.lines
		s.elapsed -= old.elapsed
	}
	s.window[s.next] = sample{lines: lines, elapsed: elapsed}
	s.lines += lines
	s.elapsed += elapsed
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.filled = true
	}
}

// Rate returns the recent arrival rate in lines per second.
func (s *Scheduler) Rate() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.lines) / s.elapsed.Seconds()
}

// SetOverride pins the interval to d until the override is replaced or
// cleared. The mode is unchanged.
func (s *Scheduler) SetOverride(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, d)
	}
	s.override = d
	return nil
}

// ClearOverride returns to the mode's own interval.
func (s *Scheduler) ClearOverride() { s.override = 0 }

// Override returns the active override, if any.
func (s *Scheduler) Override() (time.Duration, bool) {
	return s.override, s.override > 0
}

// Next returns how long to wait before the next poll.
func (s *Scheduler) Next() time.Duration {
	if s.override > 0 {
		return s.override
	}
	if s.cfg.Mode == Mindless {
		return s.cfg.Interval
	}
	return s.smart()
}

// smart aims for about one line per tick: the interval is the reciprocal of
// the recent rate, clamped to [Min, Max]. It is non-increasing in the rate.
func (s *Scheduler) smart() time.Duration {
	if s.lines == 0 {
		return s.cfg.Max
	}
	if s.elapsed <= 0 {
		return s.cfg.Min
	}
	d := time.Duration(float64(time.Second) / s.Rate())
	switch {
	case d < s.cfg.Min:
		return s.cfg.Min
	case d > s.cfg.Max:
		return s.cfg.Max
	default:
		return d
	}
}
