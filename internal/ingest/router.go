// Package ingest owns the set of live sources and turns their channel output
// into globally sequenced lines, one non-blocking drain per tick.
package ingest

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/ansitext"
	"github.com/tinytelemetry/ripple/internal/logsource"
	"github.com/tinytelemetry/ripple/internal/model"
)

// DefaultMaxDrain bounds how many envelopes are taken from one channel per
// poll so that a flooding source cannot stall the coordinator.
const DefaultMaxDrain = 50_000

// SourceStatus is a read-only view of one routed source.
type SourceStatus struct {
	ID       int
	Name     string
	Kind     model.SourceKind
	Terminal bool
	Lines    [2]uint64 // per channel, indexed by model.Channel
}

type route struct {
	src      logsource.LogSource
	chans    [2]<-chan model.Envelope // nil once closed
	lines    [2]uint64
	terminal bool
}

// Router drains sources into sequenced lines. It is owned by a single
// coordinating goroutine and is not safe for concurrent use.
type Router struct {
	routes   []*route
	seq      uint64
	maxDrain int
	pending  []model.Envelope
}

// NewRouter creates a router over sources.
func NewRouter(sources []logsource.LogSource) *Router {
	r := &Router{maxDrain: DefaultMaxDrain}
	for _, src := range sources {
		r.Add(src)
	}
	return r
}

// Add starts routing src.
func (r *Router) Add(src logsource.LogSource) {
	r.routes = append(r.routes, &route{
		src:   src,
		chans: [2]<-chan model.Envelope{src.Primary(), src.Secondary()},
	})
}

// SetMaxDrain overrides the per-channel drain bound.
func (r *Router) SetMaxDrain(n int) {
	if n > 0 {
		r.maxDrain = n
	}
}

// Len returns the number of routed sources, live or terminal.
func (r *Router) Len() int { return len(r.routes) }

// Live returns the number of sources that still have an open channel.
func (r *Router) Live() int {
	n := 0
	for _, rt := range r.routes {
		if !rt.terminal {
			n++
		}
	}
	return n
}

// Seq returns the sequence number of the last emitted line.
func (r *Router) Seq() uint64 { return r.seq }

// Poll drains every live source without blocking and returns the new lines
// in arrival order, each tagged with the next global sequence number.
// Sources whose channels have both closed are marked terminal and skipped
// on subsequent polls.
func (r *Router) Poll(ctx context.Context) []model.Line {
	r.pending = r.pending[:0]
	for _, rt := range r.routes {
		if rt.terminal {
			continue
		}
		for ch := range rt.chans {
			r.drain(rt, ch)
		}
		if rt.chans[model.Primary] == nil && rt.chans[model.Secondary] == nil {
			rt.terminal = true
			pslog.Ctx(ctx).Info("source finished", "source", rt.src.ID(), "name", rt.src.Name(),
				"primary_lines", rt.lines[model.Primary], "secondary_lines", rt.lines[model.Secondary])
		}
	}
	if len(r.pending) == 0 {
		return nil
	}

	// Each producer stamps monotonically, so a stable sort keeps per-channel
	// order while interleaving sources by arrival.
	sort.SliceStable(r.pending, func(i, j int) bool {
		a, b := r.pending[i], r.pending[j]
		if !a.Received.Equal(b.Received) {
			return a.Received.Before(b.Received)
		}
		return a.SourceID < b.SourceID
	})

	out := make([]model.Line, len(r.pending))
	for i, env := range r.pending {
		r.seq++
		out[i] = model.Line{
			Seq:      r.seq,
			SourceID: env.SourceID,
			Channel:  env.Channel,
			Raw:      env.Text,
			Plain:    ansitext.Strip(env.Text),
		}
	}
	return out
}

func (r *Router) drain(rt *route, ch int) {
	c := rt.chans[ch]
	if c == nil {
		return
	}
	for i := 0; i < r.maxDrain; i++ {
		select {
		case env, ok := <-c:
			if !ok {
				rt.chans[ch] = nil
				return
			}
			rt.lines[ch]++
			r.pending = append(r.pending, env)
		default:
			return
		}
	}
}

// Status reports every routed source.
func (r *Router) Status() []SourceStatus {
	out := make([]SourceStatus, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, SourceStatus{
			ID:       rt.src.ID(),
			Name:     rt.src.Name(),
			Kind:     rt.src.Kind(),
			Terminal: rt.terminal,
			Lines:    rt.lines,
		})
	}
	return out
}

// Shutdown stops every source concurrently and waits for them to release
// their processes and file handles. Stop cannot fail, so the errgroup only
// joins the goroutines; the one error Shutdown returns is ctx's, when the
// sources have not all stopped before it ends.
func (r *Router) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	for _, rt := range r.routes {
		src := rt.src
		g.Go(func() error {
			src.Stop()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
		for _, rt := range r.routes {
			rt.terminal = true
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdownTimeout is used by Close when no deadline is supplied.
const shutdownTimeout = 5 * time.Second

// Close is Shutdown with a default deadline.
func (r *Router) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return r.Shutdown(ctx)
}
