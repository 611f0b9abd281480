package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tinytelemetry/ripple/internal/model"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.LinesIngested(model.Secondary, 5)
	m.LinesIngested(model.Secondary, 0)
	m.LinesIngested(model.Primary, 2)
	if got := testutil.ToFloat64(m.linesIngested.WithLabelValues("secondary")); got != 5 {
		t.Fatalf("secondary lines = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.linesIngested.WithLabelValues("primary")); got != 2 {
		t.Fatalf("primary lines = %v, want 2", got)
	}

	m.SourcesLive(3)
	if got := testutil.ToFloat64(m.sourcesLive); got != 3 {
		t.Fatalf("sources live = %v, want 3", got)
	}

	m.PollInterval(50 * time.Millisecond)
	if got := testutil.ToFloat64(m.pollInterval); got != 0.05 {
		t.Fatalf("poll interval = %v, want 0.05", got)
	}

	m.TickDuration(time.Millisecond)
	if n := testutil.CollectAndCount(m.tickDuration); n != 1 {
		t.Fatalf("tick histogram series = %d, want 1", n)
	}

	m.LineParsed()
	m.ParseFailed("no_match")
	m.ParseFailed("no_match")
	m.SourceError("not_found")
	if got := testutil.ToFloat64(m.parsedLines); got != 1 {
		t.Fatalf("parsed = %v", got)
	}
	if got := testutil.ToFloat64(m.parseFailures.WithLabelValues("no_match")); got != 2 {
		t.Fatalf("no_match failures = %v", got)
	}
	if got := testutil.ToFloat64(m.sourceErrors.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("source errors = %v", got)
	}

	if n, err := testutil.GatherAndCount(m.Registry()); err != nil || n == 0 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.LineParsed()
	if got := testutil.ToFloat64(b.parsedLines); got != 0 {
		t.Fatalf("metrics leaked across instances: %v", got)
	}
}
