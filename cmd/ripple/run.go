package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/catalog"
	"github.com/tinytelemetry/ripple/internal/engine"
	"github.com/tinytelemetry/ripple/internal/history"
	"github.com/tinytelemetry/ripple/internal/httpserver"
	"github.com/tinytelemetry/ripple/internal/logsource"
	"github.com/tinytelemetry/ripple/internal/metrics"
	"github.com/tinytelemetry/ripple/internal/model"
	"github.com/tinytelemetry/ripple/internal/tui"
)

func historyPath(cfg appConfig) string {
	return filepath.Join(cfg.DataDir, "history", "tape")
}

// configureRuntimeLogger sends all logging to the log file, since the TUI
// owns the terminal.
func configureRuntimeLogger(cfg appConfig) (pslog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel}
	switch cfg.LogLevel {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "warn":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	logger := pslog.NewWithOptions(f, opts)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)
	return logger, func() { _ = f.Close() }, nil
}

// sourceSpecs resolves the session flag or positional sources.
func sourceSpecs(store *catalog.Store, session string, args []string) ([]model.SourceSpec, error) {
	if session != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--session cannot be combined with sources")
		}
		sess, err := store.LoadSession(session)
		if err != nil {
			return nil, err
		}
		return sess.Specs()
	}
	specs := make([]model.SourceSpec, 0, len(args))
	for _, arg := range args {
		spec, err := catalog.SourceSpec(arg, catalog.SessionMixed)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", arg, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func run(ctx context.Context, cfg appConfig, session string, args []string) error {
	logger, closeLog, err := configureRuntimeLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = pslog.ContextWithLogger(ctx, logger)
	logger.Info("ripple starting", "version", version, "config", cfg.ConfigPath, "data_dir", cfg.DataDir,
		"poll_mode", cfg.pollMode.String(), "channel", cfg.channel.String())

	store, err := catalog.Open(cfg.DataDir)
	if err != nil {
		return err
	}

	tapePath := ""
	if cfg.History {
		tapePath = historyPath(cfg)
	}
	tape, err := history.Open(tapePath)
	if err != nil {
		logger.Warn("history unavailable", "path", tapePath, "err", err)
		tape, _ = history.Open("")
	}
	tape.SetEnabled(cfg.History)

	specs, err := sourceSpecs(store, session, args)
	if err != nil {
		return err
	}

	m := metrics.New()
	snapshots := &engine.SnapshotStore{}
	if cfg.APIEnabled {
		srv := httpserver.NewServer(cfg.APIAddr, snapshots, m.Registry())
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start status api: %w", err)
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Warn("status api shutdown", "err", err)
			}
		}()
	}

	err = tui.Run(ctx, tui.Options{
		Specs: specs,
		Engine: engine.Config{
			Poll:             cfg.pollConfig(),
			AggregationLimit: cfg.AggregationLimit,
			Channel:          cfg.channel,
			Source:           logsource.Config{BufferSize: cfg.SourceBuffer, MaxLineSize: cfg.MaxLineSize},
			Catalog:          store,
			Metrics:          m,
			Snapshots:        snapshots,
		},
		Catalog:            store,
		History:            tape,
		ReverseScrollWheel: cfg.ReverseScrollWheel,
	})
	if err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("ripple requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	logger.Info("ripple stopped")
	return nil
}
