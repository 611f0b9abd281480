// Package history keeps the shell's input history and persists it as a
// newline-delimited tape file.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// excluded entries are never recorded.
var excluded = map[string]bool{
	":history":     true,
	":history off": true,
}

// Tape is an append-only list of past inputs with a recall cursor.
type Tape struct {
	path    string
	entries []string
	cursor  int // len(entries) means "past the newest entry"
	enabled bool
}

// Open loads the tape at path, creating it if needed. An empty path keeps
// the tape in memory only.
func Open(path string) (*Tape, error) {
	t := &Tape{path: path, enabled: true}
	if path == "" {
		return t, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.Open(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if f != nil {
		defer func() { _ = f.Close() }()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				t.entries = append(t.entries, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
	}
	t.cursor = len(t.entries)
	return t, nil
}

// Enabled reports whether new entries are recorded.
func (t *Tape) Enabled() bool { return t.enabled }

// SetEnabled turns recording on or off. Recall keeps working either way.
func (t *Tape) SetEnabled(on bool) { t.enabled = on }

// Add records entry and resets the recall cursor.
func (t *Tape) Add(entry string) error {
	entry = strings.TrimSpace(entry)
	t.cursor = len(t.entries)
	if !t.enabled || entry == "" || excluded[entry] {
		return nil
	}
	t.entries = append(t.entries, entry)
	t.cursor = len(t.entries)
	if t.path == "" {
		return nil
	}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := f.WriteString(entry + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write history: %w", err)
	}
	return f.Close()
}

// Back moves to the previous entry. ok is false when the tape is empty.
func (t *Tape) Back() (string, bool) {
	if len(t.entries) == 0 {
		return "", false
	}
	if t.cursor > 0 {
		t.cursor--
	}
	return t.entries[t.cursor], true
}

// Forward moves to the next entry. Moving past the newest entry returns ""
// so the input line can be cleared.
func (t *Tape) Forward() (string, bool) {
	if t.cursor >= len(t.entries) {
		return "", false
	}
	t.cursor++
	if t.cursor == len(t.entries) {
		return "", true
	}
	return t.entries[t.cursor], true
}

// Rewind resets the recall cursor past the newest entry.
func (t *Tape) Rewind() { t.cursor = len(t.entries) }

// Len returns the number of entries.
func (t *Tape) Len() int { return len(t.entries) }

// Last returns up to n of the newest entries, oldest first.
func (t *Tape) Last(n int) []string {
	if n <= 0 || len(t.entries) == 0 {
		return nil
	}
	start := max(len(t.entries)-n, 0)
	return append([]string(nil), t.entries[start:]...)
}
