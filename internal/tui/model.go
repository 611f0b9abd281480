// Package tui is the interactive shell around the engine: it renders the
// buffer, dispatches keys and typed commands, and drives the poll loop.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/ripple/internal/catalog"
	"github.com/tinytelemetry/ripple/internal/engine"
	"github.com/tinytelemetry/ripple/internal/history"
	"github.com/tinytelemetry/ripple/internal/model"
)

// screen is the top-level state of the shell.
type screen int

const (
	screenStartup screen = iota
	screenStream
)

// inputMode is what the bottom entry line is collecting, if anything.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputCommand
)

// rateHistory is how many ticks the rate chart keeps.
const rateHistory = 120

// flashTTL is how long a status message stays visible.
const flashTTL = 5 * time.Second

// Options configures the shell.
type Options struct {
	// Specs starts streaming immediately; empty shows the startup screen.
	Specs              []model.SourceSpec
	Engine             engine.Config
	Catalog            *catalog.Store // optional
	History            *history.Tape  // optional
	ReverseScrollWheel bool
}

// Model is the Bubble Tea model of the shell.
type Model struct {
	ctx  context.Context
	opts Options
	keys KeyMap
	help help.Model

	screen  screen
	mode    inputMode
	input   textinput.Model
	session *engine.Session
	gen     int // incremented per session so stale tick chains stop

	startup startupState

	showHelp  bool
	showChart bool
	rates     []int // lines per tick, newest last

	flash      string
	flashErr   bool
	flashUntil time.Time

	width  int
	height int
}

// tickMsg fires when the scheduler's interval has elapsed.
type tickMsg struct {
	gen int
	at  time.Time
}

// tickCmd schedules the next poll. Keys are delivered independently of this
// chain so input never waits on a long interval.
func tickCmd(gen int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

// New builds the shell model.
func New(ctx context.Context, opts Options) *Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 4096

	if opts.History == nil {
		// Open never fails for the in-memory tape.
		opts.History, _ = history.Open("")
	}

	return &Model{
		ctx:   ctx,
		opts:  opts,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		input: ti,
	}
}

// Init opens the initial session, or shows the startup screen.
func (m *Model) Init() tea.Cmd {
	if len(m.opts.Specs) > 0 {
		return m.openSession(m.opts.Specs)
	}
	return m.enterStartup()
}

// setFlash shows msg in the status line for a while.
func (m *Model) setFlash(msg string, isErr bool) {
	m.flash = msg
	m.flashErr = isErr
	m.flashUntil = time.Now().Add(flashTTL)
}

func (m *Model) flashError(err error) { m.setFlash(err.Error(), true) }

// streamHeight is the number of rows available for stream lines.
func (m *Model) streamHeight() int {
	h := m.height - 1 // status line
	if m.mode != inputNone {
		h--
	}
	if m.showChart {
		h -= chartHeight + 2
	}
	return max(h, 1)
}

// Session returns the running session, or nil on the startup screen.
func (m *Model) Session() *engine.Session { return m.session }
