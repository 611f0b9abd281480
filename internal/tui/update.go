package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/buffer"
	"github.com/tinytelemetry/ripple/internal/command"
	"github.com/tinytelemetry/ripple/internal/engine"
	"github.com/tinytelemetry/ripple/internal/model"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-2, 1)
		return m, nil

	case tickMsg:
		if msg.gen != m.gen || m.session == nil || m.session.Closed() {
			return m, nil
		}
		res := m.session.Tick(m.ctx)
		m.pushRate(res.Lines)
		return m, tickCmd(m.gen, res.Next)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) pushRate(n int) {
	m.rates = append(m.rates, n)
	if len(m.rates) > rateHistory {
		m.rates = m.rates[len(m.rates)-rateHistory:]
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, m.quit()
	}
	if m.screen == screenStartup {
		return m.handleStartupKey(msg)
	}
	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape, m.keys.Help, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	buf := m.session.Buffer()
	h := m.streamHeight()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Escape):
		m.flash = ""
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Filter):
		m.beginInput(inputFilter, m.session.Filter().Pattern())
	case key.Matches(msg, m.keys.Command):
		m.beginInput(inputCommand, "")
	case key.Matches(msg, m.keys.Up):
		buf.Scroll(-1, h)
	case key.Matches(msg, m.keys.Down):
		buf.Scroll(1, h)
	case key.Matches(msg, m.keys.PageUp):
		buf.Scroll(-h, h)
	case key.Matches(msg, m.keys.PageDown):
		buf.Scroll(h, h)
	case key.Matches(msg, m.keys.Head):
		buf.SetStick(buffer.StickHead, h)
	case key.Matches(msg, m.keys.Tail):
		buf.SetStick(buffer.StickTail, h)
	case key.Matches(msg, m.keys.Swap):
		return m, m.apply(command.SwapChannel{})
	case key.Matches(msg, m.keys.Highlight):
		return m, m.apply(command.ToggleHighlight{})
	case key.Matches(msg, m.keys.Analytics):
		return m, m.apply(command.ToggleAnalytics{})
	case key.Matches(msg, m.keys.Chart):
		m.showChart = !m.showChart
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.session == nil || msg.Action != tea.MouseActionPress {
		return m, nil
	}
	delta := 0
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		delta = -3
	case tea.MouseButtonWheelDown:
		delta = 3
	default:
		return m, nil
	}
	if m.opts.ReverseScrollWheel {
		delta = -delta
	}
	m.session.Buffer().Scroll(delta, m.streamHeight())
	return m, nil
}

// beginInput focuses the entry line for mode.
func (m *Model) beginInput(mode inputMode, value string) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.opts.History.Rewind()
}

func (m *Model) endInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.endInput()
		return m, nil
	case msg.Type == tea.KeyEnter:
		mode, value := m.mode, m.input.Value()
		m.endInput()
		return m, m.submit(mode, value)
	case key.Matches(msg, m.keys.HistoryBack):
		if entry, ok := m.opts.History.Back(); ok {
			m.recall(entry)
		}
		return m, nil
	case key.Matches(msg, m.keys.HistoryForward):
		if entry, ok := m.opts.History.Forward(); ok {
			m.recall(entry)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recall loads a history entry into the entry line, switching between regex
// and command entry to match how it was typed.
func (m *Model) recall(entry string) {
	switch {
	case strings.HasPrefix(entry, ":"):
		m.mode = inputCommand
		entry = entry[1:]
	case strings.HasPrefix(entry, "/"):
		m.mode = inputFilter
		entry = entry[1:]
	}
	m.input.SetValue(entry)
	m.input.CursorEnd()
}

// submit runs a finished entry line.
func (m *Model) submit(mode inputMode, value string) tea.Cmd {
	prefix := "/"
	if mode == inputCommand {
		prefix = ":"
	}
	if err := m.opts.History.Add(prefix + value); err != nil {
		pslog.Ctx(m.ctx).Warn("history write failed", "err", err)
	}

	if mode == inputFilter {
		if err := m.session.SetFilter(m.ctx, value); err != nil {
			m.flashError(err)
			return nil
		}
		if value == "" || value == ":q" {
			m.setFlash("filter cleared", false)
		} else {
			m.setFlash("filter: "+value, false)
		}
		return nil
	}

	act, _, err := command.ParseAction(":" + value)
	if err != nil {
		m.flashError(err)
		return nil
	}
	return m.apply(act)
}

// apply runs an action. History is owned by the shell; everything else goes
// to the engine.
func (m *Model) apply(act command.Action) tea.Cmd {
	if h, ok := act.(command.History); ok {
		if h.Off {
			m.opts.History.SetEnabled(false)
			m.setFlash("history: off", false)
			return nil
		}
		m.setFlash("history: "+strings.Join(m.opts.History.Last(10), "  "), false)
		return nil
	}
	if m.session == nil {
		if _, ok := act.(command.Quit); ok {
			return tea.Quit
		}
		m.flashError(errors.New("no session running"))
		return nil
	}

	out, err := m.session.Apply(m.ctx, act)
	switch {
	case out.Quit:
		return tea.Quit
	case out.Restart:
		m.session = nil
		return m.enterStartup()
	case err != nil:
		m.flashError(err)
	case out.Message != "":
		m.setFlash(out.Message, false)
	}
	return nil
}

// quit stops all sources before leaving the program.
func (m *Model) quit() tea.Cmd {
	if m.session != nil {
		if err := m.session.Shutdown(m.ctx); err != nil {
			pslog.Ctx(m.ctx).Warn("shutdown", "err", err)
		}
	}
	return tea.Quit
}

// openSession starts streaming specs. When nothing can be started the
// startup screen is shown with the error.
func (m *Model) openSession(specs []model.SourceSpec) tea.Cmd {
	s, err := engine.Open(m.ctx, specs, m.opts.Engine)
	if err != nil {
		pslog.Ctx(m.ctx).Warn("session failed to start", "err", err)
		cmd := m.enterStartup()
		m.setFlash(oneLine(err), true)
		return cmd
	}
	m.session = s
	m.screen = screenStream
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
	m.rates = m.rates[:0]
	m.gen++
	if failed := s.Failed(); len(failed) > 0 {
		msgs := make([]string, len(failed))
		for i, f := range failed {
			msgs[i] = f.Error()
		}
		m.setFlash(strings.Join(msgs, "; "), true)
	}
	return tickCmd(m.gen, 0)
}

func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
