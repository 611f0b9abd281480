package logsource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/hpcloud/tail"
	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/model"
)

// FileSource follows a file from its first byte and keeps emitting lines as
// the file grows. Files have a single stream, delivered on the secondary
// channel; the primary channel is closed immediately.
type FileSource struct {
	id        int
	path      string
	tail      *tail.Tail
	primary   chan model.Envelope
	secondary chan model.Envelope
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

// NewFileSource opens path relative to the working directory. A missing
// path yields a *NotFoundError.
func NewFileSource(ctx context.Context, id int, path string, conf ...Config) (*FileSource, error) {
	cfg := resolveConfig(conf)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:      true,
		ReOpen:      true,
		MustExist:   true,
		Location:    &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Poll:        true,
		MaxLineSize: cfg.MaxLineSize,
		Logger:      tail.DiscardingLogger,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		id:        id,
		path:      path,
		tail:      t,
		primary:   make(chan model.Envelope),
		secondary: make(chan model.Envelope, cfg.BufferSize),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	close(s.primary)
	go s.follow(ctx)
	return s, nil
}

func (s *FileSource) follow(ctx context.Context) {
	defer close(s.done)
	defer close(s.secondary)

	logger := pslog.Ctx(ctx).With("source", s.id, "path", s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-s.tail.Lines:
			if !ok {
				logger.Debug("file tail closed")
				return
			}
			if line.Err != nil {
				logger.Warn("file read error", "err", line.Err)
				continue
			}
			env := model.Envelope{SourceID: s.id, Channel: model.Secondary, Text: line.Text, Received: time.Now()}
			select {
			case s.secondary <- env:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *FileSource) ID() int                          { return s.id }
func (s *FileSource) Name() string                     { return s.path }
func (s *FileSource) Kind() model.SourceKind           { return model.KindFile }
func (s *FileSource) Primary() <-chan model.Envelope   { return s.primary }
func (s *FileSource) Secondary() <-chan model.Envelope { return s.secondary }

// Stop releases the file handle and closes the secondary channel.
func (s *FileSource) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		_ = s.tail.Stop()
		s.tail.Cleanup()
	})
}
