package logsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/ripple/internal/model"
)

func collect(t *testing.T, ch <-chan model.Envelope, timeout time.Duration) []string {
	t.Helper()
	var out []string
	deadline := time.After(timeout)
	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, env.Text)
		case <-deadline:
			t.Fatalf("timed out waiting for channel to close; got %q", out)
		}
	}
}

func receive(t *testing.T, ch <-chan model.Envelope) model.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for line")
	}
	return model.Envelope{}
}

func TestCommandSourceSplitsChannels(t *testing.T) {
	src, err := NewCommandSource(context.Background(), 3, []string{"sh", "-c", "echo out1; echo err1 1>&2; echo out2"})
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}
	defer src.Stop()

	primary := collect(t, src.Primary(), 5*time.Second)
	secondary := collect(t, src.Secondary(), 5*time.Second)

	if len(primary) != 2 || primary[0] != "out1" || primary[1] != "out2" {
		t.Fatalf("primary = %q, want [out1 out2]", primary)
	}
	if len(secondary) != 1 || secondary[0] != "err1" {
		t.Fatalf("secondary = %q, want [err1]", secondary)
	}

	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process was not reaped")
	}
	if src.ExitErr() != nil {
		t.Fatalf("ExitErr() = %v, want nil", src.ExitErr())
	}
}

func TestCommandSourceStampsEnvelopes(t *testing.T) {
	before := time.Now()
	src, err := NewCommandSource(context.Background(), 7, []string{"sh", "-c", "echo hello"})
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}
	defer src.Stop()

	env := receive(t, src.Primary())
	if env.SourceID != 7 || env.Channel != model.Primary || env.Text != "hello" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Received.Before(before) {
		t.Fatalf("Received %v is before start %v", env.Received, before)
	}
}

func TestCommandSourceTruncatesLongLines(t *testing.T) {
	script := `head -c 200000 /dev/zero | tr '\0' x; echo; echo after; sleep 0.2; echo later`
	src, err := NewCommandSource(context.Background(), 0, []string{"sh", "-c", script}, Config{MaxLineSize: 1024})
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}
	defer src.Stop()

	primary := collect(t, src.Primary(), 10*time.Second)
	if len(primary) != 3 {
		t.Fatalf("got %d lines, want 3", len(primary))
	}
	if primary[0] != strings.Repeat("x", 1024) {
		t.Fatalf("first line has %d bytes, want 1024 x", len(primary[0]))
	}
	if primary[1] != "after" || primary[2] != "later" {
		t.Fatalf("lines after the long one = %q, want [after later]", primary[1:])
	}
}

func TestPumpKeepsEmptyAndUnterminatedLines(t *testing.T) {
	t.Parallel()

	out := make(chan model.Envelope, 8)
	pump(context.Background(), 1, model.Secondary, strings.NewReader("a\r\n\nlast"), out, 16)

	var got []string
	for env := range out {
		if env.Channel != model.Secondary || env.SourceID != 1 {
			t.Fatalf("envelope = %+v", env)
		}
		got = append(got, env.Text)
	}
	if strings.Join(got, "|") != "a||last" {
		t.Fatalf("lines = %q, want [a  last]", got)
	}
}

func TestCommandSourceSpawnError(t *testing.T) {
	_, err := NewCommandSource(context.Background(), 0, []string{filepath.Join(t.TempDir(), "missing-binary")})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("err = %T, want *SpawnError", err)
	}

	_, err = NewCommandSource(context.Background(), 0, nil)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("empty argv err = %v, want ErrSpawn", err)
	}
}

func TestCommandSourceStopTerminatesProcess(t *testing.T) {
	src, err := NewCommandSource(context.Background(), 0, []string{"sh", "-c", "exec sleep 30"})
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		src.Stop()
		src.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return")
	}

	collect(t, src.Primary(), time.Second)
	collect(t, src.Secondary(), time.Second)
	if src.ExitErr() == nil {
		t.Fatal("expected killed process to report an exit error")
	}
}

func TestFileSourceNotFound(t *testing.T) {
	_, err := NewFileSource(context.Background(), 0, filepath.Join(t.TempDir(), "absent.log"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %T, want *NotFoundError", err)
	}
}

func TestFileSourceFollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileSource(context.Background(), 2, path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	if _, ok := <-src.Primary(); ok {
		t.Fatal("file source primary channel should be closed")
	}

	for _, want := range []string{"first", "second"} {
		env := receive(t, src.Secondary())
		if env.Text != want || env.Channel != model.Secondary || env.SourceID != 2 {
			t.Fatalf("got %+v, want text %q on secondary", env, want)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("third\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if env := receive(t, src.Secondary()); env.Text != "third" {
		t.Fatalf("appended line = %q, want third", env.Text)
	}
}

func TestFileSourceStopClosesChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(context.Background(), 0, path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	src.Stop()
	src.Stop()

	collect(t, src.Secondary(), 2*time.Second)
}
