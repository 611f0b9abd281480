package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/logsource"
	"github.com/tinytelemetry/ripple/internal/model"
)

// ErrNoSources is returned by Open when not a single source could be started.
var ErrNoSources = errors.New("no source could be started")

// SourceError reports one source that failed to open. The session keeps
// running with the others.
type SourceError struct {
	Spec model.SourceSpec
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q: %v", e.Spec.Name(), e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// openSource resolves and starts one source.
func openSource(ctx context.Context, id int, spec model.SourceSpec, conf logsource.Config) (logsource.LogSource, error) {
	switch spec.Kind {
	case model.KindFile:
		return logsource.NewFileSource(ctx, id, spec.Path, conf)
	case model.KindCommand:
		if len(spec.Argv) == 0 {
			return nil, &logsource.SpawnError{Err: errors.New("empty command")}
		}
		path, err := exec.LookPath(spec.Argv[0])
		if err != nil {
			return nil, &logsource.SpawnError{Argv: spec.Argv, Err: err}
		}
		argv := append([]string{path}, spec.Argv[1:]...)
		src, err := logsource.NewCommandSource(ctx, id, argv, conf)
		if err != nil {
			return nil, err
		}
		return &namedSource{LogSource: src, name: spec.Name()}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %d", spec.Kind)
	}
}

// namedSource keeps the name the operator typed rather than the resolved path.
type namedSource struct {
	logsource.LogSource
	name string
}

func (s *namedSource) Name() string { return s.name }

// openSources starts every spec, collecting per-source failures.
func openSources(ctx context.Context, specs []model.SourceSpec, conf logsource.Config) ([]logsource.LogSource, []*SourceError) {
	logger := pslog.Ctx(ctx)
	var (
		sources []logsource.LogSource
		failed  []*SourceError
	)
	for i, spec := range specs {
		src, err := openSource(ctx, i, spec, conf)
		if err != nil {
			logger.Warn("source failed to start", "source", i, "kind", spec.Kind.String(), "name", spec.Name(), "err", err)
			failed = append(failed, &SourceError{Spec: spec, Err: err})
			continue
		}
		logger.Info("source started", "source", i, "kind", spec.Kind.String(), "name", spec.Name())
		sources = append(sources, src)
	}
	return sources, failed
}

func sourceErrorReason(err error) string {
	switch {
	case errors.Is(err, logsource.ErrNotFound):
		return "not_found"
	case errors.Is(err, logsource.ErrSpawn):
		return "spawn"
	default:
		return "other"
	}
}
