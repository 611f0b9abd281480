package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/ripple/internal/aggregate"
	"github.com/tinytelemetry/ripple/internal/engine"
	"github.com/tinytelemetry/ripple/internal/ingest"
	"github.com/tinytelemetry/ripple/internal/metrics"
	"github.com/tinytelemetry/ripple/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, snap engine.Snapshot) (*Server, http.Handler, *metrics.Metrics) {
	t.Helper()
	store := &engine.SnapshotStore{}
	store.Update(snap)
	m := metrics.New()
	srv := NewServer("", store, m.Registry())
	srv.startTime = time.Now()
	return srv, srv.Handler(), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{Lines: [2]int{2, 3}})

	w := get(t, h, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode(t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["lines"] != float64(5) {
		t.Errorf("lines = %v, want 5", body["lines"])
	}
}

func TestHealthEndpoint_Stopped(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{Closed: true})
	if body := decode(t, get(t, h, "/api/health")); body["status"] != "stopped" {
		t.Errorf("status = %v, want stopped", body["status"])
	}
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{})

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{
		Channel:      "secondary",
		Lines:        [2]int{1, 4},
		Visible:      2,
		Filter:       "ERR",
		PollMode:     "smart",
		PollInterval: 40 * time.Millisecond,
		Sources: []ingest.SourceStatus{
			{ID: 0, Name: "app.log", Kind: model.KindFile, Lines: [2]uint64{0, 4}},
			{ID: 1, Name: "make", Kind: model.KindCommand, Terminal: true, Lines: [2]uint64{1, 0}},
		},
		Failed: []string{`source "nope": not found`},
	})

	w := get(t, h, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	body := decode(t, w)
	if body["channel"] != "secondary" || body["visible"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	sources, ok := body["sources"].([]interface{})
	if !ok || len(sources) != 2 {
		t.Fatalf("sources = %v", body["sources"])
	}
	second := sources[1].(map[string]interface{})
	if second["kind"] != "command" || second["terminal"] != true {
		t.Errorf("second source = %v", second)
	}
	pollInfo := body["poll"].(map[string]interface{})
	if pollInfo["interval_ms"] != float64(40) {
		t.Errorf("poll = %v", pollInfo)
	}
	if failed := body["failed"].([]interface{}); len(failed) != 1 {
		t.Errorf("failed = %v", failed)
	}
}

func TestAggregatesEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{
		Parser: "levels",
		Aggregates: []aggregate.Summary{
			{Name: "Level", Method: "Count", Lines: []string{"INFO: 3 (60%)", "ERROR: 2 (40%)"}},
		},
	})

	w := get(t, h, "/api/aggregates")
	if w.Code != http.StatusOK {
		t.Fatalf("aggregates code = %d", w.Code)
	}
	body := decode(t, w)
	aggs := body["aggregates"].([]interface{})
	first := aggs[0].(map[string]interface{})
	if first["field"] != "Level" || len(first["summary"].([]interface{})) != 2 {
		t.Errorf("aggregate = %v", first)
	}
}

func TestAggregatesEndpoint_NoParser(t *testing.T) {
	_, h, _ := newTestServer(t, engine.Snapshot{})
	if w := get(t, h, "/api/aggregates"); w.Code != http.StatusNotFound {
		t.Errorf("aggregates code = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h, m := newTestServer(t, engine.Snapshot{})
	m.LinesIngested(model.Secondary, 7)

	w := get(t, h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `ripple_lines_ingested_total{channel="secondary"} 7`) {
		t.Errorf("metrics output missing ingested counter:\n%s", w.Body.String())
	}
}

func TestStartStop(t *testing.T) {
	store := &engine.SnapshotStore{}
	srv := NewServer("127.0.0.1:0", store, nil)
	if err := srv.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
