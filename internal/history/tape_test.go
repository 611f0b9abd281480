package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTapePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "tape")

	tape, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, entry := range []string{"tail -f app.log", "  ", ":history", "ERROR|WARN", ":agg 3"} {
		if err := tape.Add(entry); err != nil {
			t.Fatalf("Add(%q): %v", entry, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "tail -f app.log\nERROR|WARN\n:agg 3\n" {
		t.Fatalf("tape file = %q", data)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Last(10); !reflect.DeepEqual(got, []string{"tail -f app.log", "ERROR|WARN", ":agg 3"}) {
		t.Fatalf("Last() = %q", got)
	}
}

func TestTapeRecall(t *testing.T) {
	tape, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tape.Back(); ok {
		t.Fatal("Back() on empty tape should report false")
	}
	for _, entry := range []string{"a", "b", "c"} {
		_ = tape.Add(entry)
	}

	for _, want := range []string{"c", "b", "a", "a"} {
		if got, _ := tape.Back(); got != want {
			t.Fatalf("Back() = %q, want %q", got, want)
		}
	}
	for _, want := range []string{"b", "c", ""} {
		if got, ok := tape.Forward(); !ok || got != want {
			t.Fatalf("Forward() = %q, %v; want %q", got, ok, want)
		}
	}
	if _, ok := tape.Forward(); ok {
		t.Fatal("Forward() past the end should report false")
	}

	tape.Back()
	_ = tape.Add("d")
	if got, _ := tape.Back(); got != "d" {
		t.Fatalf("Back() after Add = %q, want d", got)
	}
}

func TestTapeDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tape")
	tape, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tape.SetEnabled(false)
	if err := tape.Add("secret"); err != nil {
		t.Fatal(err)
	}
	if tape.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tape.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("tape file created while disabled: %v", err)
	}
}
