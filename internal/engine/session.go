// Package engine is the coordinating loop: it drains sources into per-channel
// buffers, applies the filter, feeds the parser and aggregators, and asks the
// scheduler when to run again. A Session is owned by one goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/aggregate"
	"github.com/tinytelemetry/ripple/internal/buffer"
	"github.com/tinytelemetry/ripple/internal/catalog"
	"github.com/tinytelemetry/ripple/internal/filter"
	"github.com/tinytelemetry/ripple/internal/ingest"
	"github.com/tinytelemetry/ripple/internal/logsource"
	"github.com/tinytelemetry/ripple/internal/model"
	"github.com/tinytelemetry/ripple/internal/parser"
	"github.com/tinytelemetry/ripple/internal/poll"
)

// Catalog is the pattern and session storage the engine reads and writes.
type Catalog interface {
	LoadPattern(name string) (*parser.Pattern, error)
	SaveSession(name string, sess catalog.Session) error
}

// Recorder receives the engine's metrics. *metrics.Metrics implements it.
type Recorder interface {
	LinesIngested(ch model.Channel, n int)
	SourcesLive(n int)
	SourceError(reason string)
	PollInterval(d time.Duration)
	TickDuration(d time.Duration)
	VisibleLines(n int)
	LineParsed()
	ParseFailed(reason string)
}

type nopMetrics struct{}

func (nopMetrics) LinesIngested(model.Channel, int) {}
func (nopMetrics) SourcesLive(int)                  {}
func (nopMetrics) SourceError(string)               {}
func (nopMetrics) PollInterval(time.Duration)       {}
func (nopMetrics) TickDuration(time.Duration)       {}
func (nopMetrics) VisibleLines(int)                 {}
func (nopMetrics) LineParsed()                      {}
func (nopMetrics) ParseFailed(string)               {}

// Config wires a session.
type Config struct {
	Poll             poll.Config
	AggregationLimit int
	Channel          model.Channel // rendered channel at start
	Source           logsource.Config
	MaxDrain         int
	Catalog          Catalog
	Metrics          Recorder       // optional
	Snapshots        *SnapshotStore // optional, published after every tick
}

// Session is one streaming session over a fixed set of sources.
type Session struct {
	cfg       Config
	specs     []model.SourceSpec
	failed    []*SourceError
	router    *ingest.Router
	buffers   [2]*buffer.Buffer
	filters   [2]*filter.State
	channel   model.Channel
	sched     *poll.Scheduler
	limit     int
	parse     *parseState
	analytics bool
	metrics   Recorder
	lastTick  time.Time
	started   time.Time
	closed    bool
}

// Open starts a source for every spec. Sources that fail are reported by
// Failed and the session runs with the rest; Open only fails when none start.
func Open(ctx context.Context, specs []model.SourceSpec, cfg Config) (*Session, error) {
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.AggregationLimit <= 0 {
		cfg.AggregationLimit = model.DefaultAggregationLimit
	}

	sources, failed := openSources(ctx, specs, cfg.Source)
	for _, f := range failed {
		cfg.Metrics.SourceError(sourceErrorReason(f.Err))
	}
	if len(sources) == 0 {
		errs := []error{ErrNoSources}
		for _, f := range failed {
			errs = append(errs, f)
		}
		return nil, errors.Join(errs...)
	}

	router := ingest.NewRouter(sources)
	if cfg.MaxDrain > 0 {
		router.SetMaxDrain(cfg.MaxDrain)
	}
	now := time.Now()
	s := &Session{
		cfg:      cfg,
		specs:    append([]model.SourceSpec(nil), specs...),
		failed:   failed,
		router:   router,
		channel:  cfg.Channel,
		sched:    poll.New(cfg.Poll),
		limit:    cfg.AggregationLimit,
		metrics:  cfg.Metrics,
		lastTick: now,
		started:  now,
	}
	for ch := range s.buffers {
		s.buffers[ch] = buffer.New()
		s.filters[ch] = &filter.State{}
	}
	s.metrics.SourcesLive(router.Live())
	s.publish()
	return s, nil
}

// Failed returns the sources that could not be started.
func (s *Session) Failed() []*SourceError { return s.failed }

// Specs returns the specs the session was opened with.
func (s *Session) Specs() []model.SourceSpec { return s.specs }

// TickResult summarizes one poll cycle.
type TickResult struct {
	Lines int           // lines ingested across both channels
	Next  time.Duration // wait before the next tick
}

// Tick runs one poll cycle: drain, recompute visible lines, parse the new
// ones, and schedule the next cycle.
func (s *Session) Tick(ctx context.Context) TickResult {
	start := time.Now()
	if s.closed {
		return TickResult{Next: s.sched.Next()}
	}

	lines := s.router.Poll(ctx)
	var perChannel [2]int
	for _, line := range lines {
		s.buffers[line.Channel].Append(line)
		perChannel[line.Channel]++
	}
	for ch, buf := range s.buffers {
		buf.Recompute()
		s.metrics.LinesIngested(model.Channel(ch), perChannel[ch])
	}
	if s.parse != nil {
		s.parse.advance(s.Buffer(), s.metrics)
	}

	s.sched.Observe(len(lines), start.Sub(s.lastTick))
	s.lastTick = start
	next := s.sched.Next()

	s.metrics.SourcesLive(s.router.Live())
	s.metrics.VisibleLines(s.Buffer().VisibleLen())
	s.metrics.PollInterval(next)
	s.metrics.TickDuration(time.Since(start))
	s.publish()
	return TickResult{Lines: len(lines), Next: next}
}

// Channel returns the rendered channel.
func (s *Session) Channel() model.Channel { return s.channel }

// Buffer returns the rendered channel's buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.buffers[s.channel] }

// BufferFor returns the buffer of ch.
func (s *Session) BufferFor(ch model.Channel) *buffer.Buffer { return s.buffers[ch] }

// Filter returns the rendered channel's filter state.
func (s *Session) Filter() *filter.State { return s.filters[s.channel] }

// Scheduler exposes the poll scheduler.
func (s *Session) Scheduler() *poll.Scheduler { return s.sched }

// Sources reports every routed source.
func (s *Session) Sources() []ingest.SourceStatus { return s.router.Status() }

// Live returns the number of sources still producing.
func (s *Session) Live() int { return s.router.Live() }

// SetFilter applies expr to the rendered channel. An empty expression or
// ":q" clears the filter. An invalid expression leaves the filter unchanged.
func (s *Session) SetFilter(ctx context.Context, expr string) error {
	if expr == "" || expr == ":q" {
		s.ClearFilter()
		return nil
	}
	f := s.Filter()
	if err := f.SetPattern(expr); err != nil {
		pslog.Ctx(ctx).Warn("invalid regex", "pattern", expr, "err", err)
		return err
	}
	s.Buffer().SetFilter(f)
	s.refilter()
	return nil
}

// ClearFilter shows every line of the rendered channel again.
func (s *Session) ClearFilter() {
	f := s.Filter()
	if !f.Active() {
		return
	}
	f.Clear()
	s.Buffer().SetFilter(f)
	s.refilter()
}

// refilter restarts parsing after the visible set was rebuilt.
func (s *Session) refilter() {
	if s.parse != nil {
		s.parse.rewind()
		s.parse.advance(s.Buffer(), s.metrics)
	}
	s.publish()
}

// Display returns the rendered text of the buffer line at index i: the
// selected field when a parser is active and the line parsed, otherwise the
// line itself, highlighted when enabled.
func (s *Session) Display(i int) string {
	line := s.Buffer().Line(i)
	if s.parse != nil {
		if values, ok := s.parse.lookup(i); ok {
			return values[s.parse.field]
		}
	}
	return s.Filter().Display(line)
}

// lookup finds the parsed values of buffer index i.
func (ps *parseState) lookup(i int) ([]string, bool) {
	n := sort.Search(len(ps.records), func(k int) bool { return ps.records[k].Index >= i })
	if n < len(ps.records) && ps.records[n].Index == i {
		return ps.records[n].Values, true
	}
	return nil, false
}

// Parsing reports whether a parser is active.
func (s *Session) Parsing() bool { return s.parse != nil }

// Pattern returns the active pattern, or nil.
func (s *Session) Pattern() *parser.Pattern {
	if s.parse == nil {
		return nil
	}
	return s.parse.pattern
}

// Field returns the selected field name and position, or ("", -1).
func (s *Session) Field() (string, int) {
	if s.parse == nil {
		return "", -1
	}
	return s.parse.pattern.Order()[s.parse.field], s.parse.field
}

// Analytics reports whether the aggregate summaries are the rendered view.
func (s *Session) Analytics() bool { return s.parse != nil && s.analytics }

// Records returns the parsed lines of the current window.
func (s *Session) Records() []Record {
	if s.parse == nil {
		return nil
	}
	return s.parse.records
}

// ParseMisses returns the NoMatch and FieldCountMismatch counts of the
// current window.
func (s *Session) ParseMisses() (noMatch, mismatch uint64) {
	if s.parse == nil {
		return 0, 0
	}
	return s.parse.noMatch, s.parse.mismatch
}

// Summaries renders the aggregator set, or nil when parsing is off.
func (s *Session) Summaries() []aggregate.Summary {
	if s.parse == nil {
		return nil
	}
	return s.parse.set.Summaries()
}

// AggregationLimit returns the Count top-N limit.
func (s *Session) AggregationLimit() int { return s.limit }

// Shutdown stops every source and waits for their processes and file
// handles to be released. It is safe to call more than once.
func (s *Session) Shutdown(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.router.Shutdown(ctx)
	if err != nil {
		err = fmt.Errorf("shutdown sources: %w", err)
	}
	pslog.Ctx(ctx).Info("session stopped", "sources", s.router.Len(), "lines", s.router.Seq(), "err", err)
	s.metrics.SourcesLive(0)
	s.publish()
	return err
}

// Closed reports whether Shutdown has run.
func (s *Session) Closed() bool { return s.closed }
