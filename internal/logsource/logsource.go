// Package logsource implements the live line producers: spawned commands and
// followed files. Each source owns one goroutine per output channel and never
// touches shared state; lines leave only through its channels.
package logsource

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/ripple/internal/model"
)

// LogSource is a live producer of lines on two logical channels.
type LogSource interface {
	ID() int
	Name() string
	Kind() model.SourceKind
	Primary() <-chan model.Envelope   // closed when the producer is done
	Secondary() <-chan model.Envelope // closed when the producer is done
	Stop()                            // terminate the process or release the file; idempotent
}

var (
	// ErrSpawn marks a command source that could not be started.
	ErrSpawn = errors.New("spawn failed")
	// ErrNotFound marks a file source whose path does not exist.
	ErrNotFound = errors.New("not found")
)

// SpawnError reports a command that could not be started.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Argv, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// NotFoundError reports a file source path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Config holds tunable parameters shared by all sources.
type Config struct {
	BufferSize  int
	MaxLineSize int
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = model.DefaultSourceBuffer
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = model.DefaultMaxLineSize
	}
	return c
}

func resolveConfig(conf []Config) Config {
	if len(conf) > 0 {
		return conf[0].withDefaults()
	}
	return Config{}.withDefaults()
}
