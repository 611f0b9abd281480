package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/catalog"
	"github.com/tinytelemetry/ripple/internal/command"
)

var (
	// ErrNoParser is returned by commands that need an active parser.
	ErrNoParser = errors.New("no parser active")
	// ErrNoCatalog is returned when a command needs pattern or session storage.
	ErrNoCatalog = errors.New("no catalog configured")
	// ErrUnsupported is returned for actions the engine does not own.
	ErrUnsupported = errors.New("not an engine command")
)

// Outcome tells the shell what happened after a command.
type Outcome struct {
	Message string
	Quit    bool
	Restart bool
}

// Apply executes a runtime command against the session.
func (s *Session) Apply(ctx context.Context, act command.Action) (Outcome, error) {
	logger := pslog.Ctx(ctx)
	switch a := act.(type) {
	case command.Quit:
		return Outcome{Quit: true}, s.Shutdown(ctx)

	case command.Restart:
		return Outcome{Restart: true}, s.Shutdown(ctx)

	case command.SetPoll:
		if a.Auto {
			s.sched.ClearOverride()
			logger.Info("poll override cleared", "mode", s.sched.Mode().String())
			return Outcome{Message: "poll interval: " + s.sched.Mode().String()}, nil
		}
		if err := s.sched.SetOverride(a.Interval); err != nil {
			return Outcome{}, err
		}
		logger.Info("poll override set", "interval", a.Interval.String())
		return Outcome{Message: "poll interval: " + a.Interval.String()}, nil

	case command.SetAggregationLimit:
		if s.parse != nil {
			if err := s.parse.set.SetLimit(a.N); err != nil {
				return Outcome{}, err
			}
		}
		s.limit = a.N
		return Outcome{Message: fmt.Sprintf("aggregation limit: %d", a.N)}, nil

	case command.SelectField:
		return s.selectField(a)

	case command.SwapChannel:
		s.channel = s.channel.Other()
		if s.parse != nil {
			s.parse.rewind()
			s.parse.advance(s.Buffer(), s.metrics)
		}
		s.publish()
		return Outcome{Message: "channel: " + s.channel.String()}, nil

	case command.ToggleHighlight:
		on := s.Filter().ToggleHighlight()
		return Outcome{Message: "highlight: " + onOff(on)}, nil

	case command.SetParser:
		if a.Off {
			s.StopParser(ctx)
			return Outcome{Message: "parser: off"}, nil
		}
		if err := s.StartParser(ctx, a.Name); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "parser: " + a.Name}, nil

	case command.ToggleAnalytics:
		if s.parse == nil {
			return Outcome{}, ErrNoParser
		}
		s.analytics = !s.analytics
		return Outcome{Message: "analytics: " + onOff(s.analytics)}, nil

	case command.SaveSession:
		if s.cfg.Catalog == nil {
			return Outcome{}, ErrNoCatalog
		}
		if err := s.cfg.Catalog.SaveSession(a.Name, catalog.SessionFromSpecs(s.specs)); err != nil {
			return Outcome{}, err
		}
		logger.Info("session saved", "name", a.Name, "sources", len(s.specs))
		return Outcome{Message: "saved session " + a.Name}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnsupported, act)
	}
}

func (s *Session) selectField(a command.SelectField) (Outcome, error) {
	if s.parse == nil {
		return Outcome{}, ErrNoParser
	}
	idx := a.Index
	if a.Name != "" {
		idx = s.parse.pattern.FieldIndex(a.Name)
		if idx < 0 {
			return Outcome{}, fmt.Errorf("%w: no field %q", command.ErrInvalidArgument, a.Name)
		}
	}
	order := s.parse.pattern.Order()
	if idx < 0 || idx >= len(order) {
		return Outcome{}, fmt.Errorf("%w: field index %d out of range [0,%d)", command.ErrInvalidArgument, idx, len(order))
	}
	s.parse.field = idx
	return Outcome{Message: "field: " + order[idx]}, nil
}

// StartParser loads the named pattern and parses the current visible set,
// replacing any active parser and its aggregates.
func (s *Session) StartParser(ctx context.Context, name string) error {
	if s.cfg.Catalog == nil {
		return ErrNoCatalog
	}
	p, err := s.cfg.Catalog.LoadPattern(name)
	if err != nil {
		pslog.Ctx(ctx).Warn("pattern rejected", "pattern", name, "err", err)
		return err
	}
	ps, err := newParseState(p, s.limit)
	if err != nil {
		return err
	}
	start := time.Now()
	s.parse = ps
	s.analytics = false
	n := ps.advance(s.Buffer(), s.metrics)
	pslog.Ctx(ctx).Info("parser started", "pattern", name, "parsed", n, "elapsed", time.Since(start).String())
	s.publish()
	return nil
}

// StopParser discards the parser and all derived field data.
func (s *Session) StopParser(ctx context.Context) {
	if s.parse == nil {
		return
	}
	pslog.Ctx(ctx).Info("parser stopped", "pattern", s.parse.pattern.Name())
	s.parse = nil
	s.analytics = false
	s.publish()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
