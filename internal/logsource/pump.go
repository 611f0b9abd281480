package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/model"
)

// readBufferSize caps the reader buffer; longer lines are assembled from
// several reads.
const readBufferSize = 64 * 1024

// pump reads r line by line into out and closes out when r is exhausted or
// ctx is cancelled. Lines longer than maxLineSize are truncated and reading
// continues with the next line. The blocking read runs in its own goroutine
// so that cancellation is observed even while a read is pending.
func pump(ctx context.Context, id int, channel model.Channel, r io.Reader, out chan<- model.Envelope, maxLineSize int) {
	defer close(out)

	lines := make(chan string)
	go func() {
		defer close(lines)
		logger := pslog.Ctx(ctx).With("source", id, "channel", channel.String())
		reader := bufio.NewReaderSize(r, min(maxLineSize, readBufferSize))
		var (
			line      []byte
			truncated int
		)
		for {
			frag, more, err := reader.ReadLine()
			if err != nil {
				switch {
				case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, fs.ErrClosed):
				default:
					logger.Debug("source read ended", "err", err)
				}
				return
			}
			if room := maxLineSize - len(line); len(frag) > room {
				truncated += len(frag) - room
				frag = frag[:room]
			}
			line = append(line, frag...)
			if more {
				continue
			}
			if truncated > 0 {
				logger.Warn("line exceeded max size, truncated", "max_line_size", maxLineSize, "dropped_bytes", truncated)
			}
			select {
			case lines <- string(line):
			case <-ctx.Done():
				return
			}
			line = line[:0]
			truncated = 0
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			env := model.Envelope{SourceID: id, Channel: channel, Text: text, Received: time.Now()}
			select {
			case out <- env:
			case <-ctx.Done():
				return
			}
		}
	}
}
