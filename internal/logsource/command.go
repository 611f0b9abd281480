package logsource

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/model"
)

// stopGrace bounds how long Stop waits for pipes to drain after the process
// has been killed.
const stopGrace = 2 * time.Second

// CommandSource runs an external process and streams its stdout on the
// primary channel and its stderr on the secondary channel.
type CommandSource struct {
	id        int
	argv      []string
	cmd       *exec.Cmd
	primary   chan model.Envelope
	secondary chan model.Envelope
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	exitErr error
}

// NewCommandSource starts argv. argv[0] must already be resolved by the
// caller; a process that cannot be started yields a *SpawnError.
func NewCommandSource(ctx context.Context, id int, argv []string, conf ...Config) (*CommandSource, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, &SpawnError{Argv: argv, Err: errors.New("empty command")}
	}
	cfg := resolveConfig(conf)

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = stopGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &SpawnError{Argv: argv, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, &SpawnError{Argv: argv, Err: err}
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &SpawnError{Argv: argv, Err: err}
	}

	s := &CommandSource{
		id:        id,
		argv:      append([]string(nil), argv...),
		cmd:       cmd,
		primary:   make(chan model.Envelope, cfg.BufferSize),
		secondary: make(chan model.Envelope, cfg.BufferSize),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		pump(ctx, id, model.Primary, stdout, s.primary, cfg.MaxLineSize)
	}()
	go func() {
		defer readers.Done()
		pump(ctx, id, model.Secondary, stderr, s.secondary, cfg.MaxLineSize)
	}()

	// Wait closes the pipes, so it must only run once both readers are done.
	go func() {
		readers.Wait()
		err := cmd.Wait()
		s.mu.Lock()
		s.exitErr = err
		s.mu.Unlock()
		pslog.Ctx(ctx).Debug("command exited", "source", id, "argv", s.Name(), "err", err)
		close(s.done)
	}()

	return s, nil
}

func (s *CommandSource) ID() int                          { return s.id }
func (s *CommandSource) Name() string                     { return strings.Join(s.argv, " ") }
func (s *CommandSource) Kind() model.SourceKind           { return model.KindCommand }
func (s *CommandSource) Primary() <-chan model.Envelope   { return s.primary }
func (s *CommandSource) Secondary() <-chan model.Envelope { return s.secondary }

// Done is closed once the process has been reaped.
func (s *CommandSource) Done() <-chan struct{} { return s.done }

// ExitErr returns the process exit status once Done is closed.
func (s *CommandSource) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Stop kills the process and waits for it to be reaped.
func (s *CommandSource) Stop() {
	s.cancel()
	<-s.done
}
