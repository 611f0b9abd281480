package engine

import (
	"sync"
	"time"

	"github.com/tinytelemetry/ripple/internal/aggregate"
	"github.com/tinytelemetry/ripple/internal/ingest"
)

// Snapshot is a copy of session state that may be read from other goroutines.
type Snapshot struct {
	Started      time.Time
	Updated      time.Time
	Closed       bool
	Channel      string
	Lines        [2]int
	Visible      int
	Filter       string
	Highlight    bool
	PollMode     string
	PollInterval time.Duration
	Override     bool
	Rate         float64
	Sources      []ingest.SourceStatus
	Failed       []string
	Parser       string
	Field        string
	Aggregates   []aggregate.Summary
}

// SnapshotStore holds the latest snapshot behind a lock.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot.
func (st *SnapshotStore) Update(snap Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = snap
}

// Snapshot returns the latest snapshot. Slices are owned by the snapshot and
// never mutated after publication.
func (st *SnapshotStore) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snapshot
}

func (s *Session) snapshot() Snapshot {
	_, override := s.sched.Override()
	snap := Snapshot{
		Started:      s.started,
		Updated:      time.Now(),
		Closed:       s.closed,
		Channel:      s.channel.String(),
		Lines:        [2]int{s.buffers[0].Len(), s.buffers[1].Len()},
		Visible:      s.Buffer().VisibleLen(),
		Filter:       s.Filter().Pattern(),
		Highlight:    s.Filter().Highlight(),
		PollMode:     s.sched.Mode().String(),
		PollInterval: s.sched.Next(),
		Override:     override,
		Rate:         s.sched.Rate(),
		Sources:      s.router.Status(),
		Aggregates:   s.Summaries(),
	}
	for _, f := range s.failed {
		snap.Failed = append(snap.Failed, f.Error())
	}
	if s.parse != nil {
		snap.Parser = s.parse.pattern.Name()
		snap.Field, _ = s.Field()
	}
	return snap
}

// publish pushes the current state to the snapshot store, if any.
func (s *Session) publish() {
	if s.cfg.Snapshots == nil {
		return
	}
	s.cfg.Snapshots.Update(s.snapshot())
}
