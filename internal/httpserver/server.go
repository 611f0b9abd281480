// Package httpserver exposes a read-only view of the running session.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/engine"
)

// DefaultAddr is used when no listen address is configured.
const DefaultAddr = "127.0.0.1:7391"

// SnapshotSource is the narrow contract the API reads session state from.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// Server provides the status API.
type Server struct {
	addr      string
	source    SnapshotSource
	gatherer  prometheus.Gatherer
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a status API server. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(addr string, source SnapshotSource, gatherer prometheus.Gatherer) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		source:   source,
		gatherer: gatherer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/api/aggregates", s.handleAggregates)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	logger := pslog.Ctx(ctx)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ErrorLog:          pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status api stopped", "err", err)
		}
	}()
	logger.Info("status api listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.source.Snapshot()
	status := "ok"
	if snap.Closed {
		status = "stopped"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"uptime": time.Since(s.startTime).String(),
		"lines":  snap.Lines[0] + snap.Lines[1],
	})
}

type sourceView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Terminal  bool   `json:"terminal"`
	Primary   uint64 `json:"primary_lines"`
	Secondary uint64 `json:"secondary_lines"`
}

func (s *Server) handleStatus(c *gin.Context) {
	snap := s.source.Snapshot()
	sources := make([]sourceView, 0, len(snap.Sources))
	for _, src := range snap.Sources {
		sources = append(sources, sourceView{
			ID:        src.ID,
			Name:      src.Name,
			Kind:      src.Kind.String(),
			Terminal:  src.Terminal,
			Primary:   src.Lines[0],
			Secondary: src.Lines[1],
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"started": snap.Started,
		"updated": snap.Updated,
		"closed":  snap.Closed,
		"channel": snap.Channel,
		"lines":   gin.H{"primary": snap.Lines[0], "secondary": snap.Lines[1]},
		"visible": snap.Visible,
		"sources": sources,
		"failed":  snap.Failed,
		"filter":  gin.H{"pattern": snap.Filter, "highlight": snap.Highlight},
		"poll":    gin.H{"mode": snap.PollMode, "interval_ms": snap.PollInterval.Milliseconds(), "override": snap.Override, "rate": snap.Rate},
		"parser":  snap.Parser,
		"field":   snap.Field,
	})
}

type aggregateView struct {
	Field   string   `json:"field"`
	Method  string   `json:"method"`
	Summary []string `json:"summary"`
}

func (s *Server) handleAggregates(c *gin.Context) {
	snap := s.source.Snapshot()
	if snap.Parser == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no parser active"})
		return
	}
	out := make([]aggregateView, 0, len(snap.Aggregates))
	for _, a := range snap.Aggregates {
		out = append(out, aggregateView{Field: a.Name, Method: a.Method, Summary: a.Lines})
	}
	c.JSON(http.StatusOK, gin.H{
		"parser":     snap.Parser,
		"aggregates": out,
	})
}
