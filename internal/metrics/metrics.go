// Package metrics holds the Prometheus collectors updated by the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinytelemetry/ripple/internal/model"
)

// Metrics groups the engine's collectors.
type Metrics struct {
	registry *prometheus.Registry

	linesIngested *prometheus.CounterVec
	sourcesLive   prometheus.Gauge
	sourceErrors  *prometheus.CounterVec
	pollInterval  prometheus.Gauge
	tickDuration  prometheus.Histogram
	visibleLines  prometheus.Gauge
	parsedLines   prometheus.Counter
	parseFailures *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_lines_ingested_total",
			Help: "Lines appended to the buffers, by channel.",
		}, []string{"channel"}),
		sourcesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_sources_live",
			Help: "Sources with at least one open channel.",
		}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_source_errors_total",
			Help: "Sources that could not be opened, by reason.",
		}, []string{"reason"}),
		pollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_poll_interval_seconds",
			Help: "Interval chosen for the next poll.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripple_tick_duration_seconds",
			Help:    "Time spent draining, filtering and aggregating in one poll.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		visibleLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_visible_lines",
			Help: "Lines in the rendered buffer's visible set.",
		}),
		parsedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripple_parsed_lines_total",
			Help: "Lines decomposed into fields and fed to aggregators.",
		}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_parse_failures_total",
			Help: "Lines skipped by the parser, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.linesIngested,
		m.sourcesLive,
		m.sourceErrors,
		m.pollInterval,
		m.tickDuration,
		m.visibleLines,
		m.parsedLines,
		m.parseFailures,
	)
	return m
}

// Registry returns the registry to expose.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) LinesIngested(ch model.Channel, n int) {
	if n > 0 {
		m.linesIngested.WithLabelValues(ch.String()).Add(float64(n))
	}
}

func (m *Metrics) SourcesLive(n int)            { m.sourcesLive.Set(float64(n)) }
func (m *Metrics) SourceError(reason string)    { m.sourceErrors.WithLabelValues(reason).Inc() }
func (m *Metrics) PollInterval(d time.Duration) { m.pollInterval.Set(d.Seconds()) }
func (m *Metrics) TickDuration(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }
func (m *Metrics) VisibleLines(n int)           { m.visibleLines.Set(float64(n)) }
func (m *Metrics) LineParsed()                  { m.parsedLines.Inc() }
func (m *Metrics) ParseFailed(reason string)    { m.parseFailures.WithLabelValues(reason).Inc() }
