package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/pslog"

	"github.com/tinytelemetry/ripple/internal/catalog"
	"github.com/tinytelemetry/ripple/internal/command"
	"github.com/tinytelemetry/ripple/internal/model"
)

var startMessage = []string{
	"Enter a command to stream its output, a path to follow a file,",
	"or the number of a saved session. Type :q to quit.",
}

type startupState struct {
	sessions []string
	err      error
}

// enterStartup switches to the startup screen and refreshes the session list.
func (m *Model) enterStartup() tea.Cmd {
	m.screen = screenStartup
	m.mode = inputNone
	m.gen++
	m.startup = startupState{}
	if m.opts.Catalog != nil {
		m.startup.sessions, m.startup.err = m.opts.Catalog.Sessions()
	}
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) handleStartupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		if err := m.opts.History.Add(value); err != nil {
			pslog.Ctx(m.ctx).Warn("history write failed", "err", err)
		}
		if strings.HasPrefix(value, ":") {
			m.input.SetValue("")
			return m, m.startupCommand(value)
		}
		specs, err := m.startupSpecs(value)
		if err != nil {
			m.flashError(err)
			return m, nil
		}
		return m, m.openSession(specs)
	case tea.KeyUp:
		if entry, ok := m.opts.History.Back(); ok {
			m.input.SetValue(entry)
			m.input.CursorEnd()
		}
		return m, nil
	case tea.KeyDown:
		if entry, ok := m.opts.History.Forward(); ok {
			m.input.SetValue(entry)
			m.input.CursorEnd()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startupCommand handles the few commands that make sense with no session.
func (m *Model) startupCommand(value string) tea.Cmd {
	act, _, err := command.ParseAction(value)
	if err != nil {
		m.flashError(err)
		return nil
	}
	return m.apply(act)
}

// startupSpecs resolves the startup entry: a session number, or a single
// command or file.
func (m *Model) startupSpecs(value string) ([]model.SourceSpec, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 || n >= len(m.startup.sessions) {
			return nil, fmt.Errorf("no session %d", n)
		}
		sess, err := m.opts.Catalog.LoadSession(m.startup.sessions[n])
		if err != nil {
			return nil, err
		}
		return sess.Specs()
	}
	spec, err := catalog.SourceSpec(value, catalog.SessionMixed)
	if err != nil {
		return nil, err
	}
	return []model.SourceSpec{spec}, nil
}

func (m *Model) renderStartup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ripple"))
	b.WriteString("\n\n")
	for _, line := range startMessage {
		b.WriteString(helpStyle.Render(line))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	switch {
	case m.startup.err != nil:
		b.WriteString(errorStyle.Render("sessions: " + m.startup.err.Error()))
		b.WriteByte('\n')
	case len(m.startup.sessions) == 0:
		b.WriteString(helpStyle.Render("No saved sessions."))
		b.WriteByte('\n')
	default:
		for i, name := range m.startup.sessions {
			fmt.Fprintf(&b, "%s %s\n", fieldNameStyle.Render(strconv.Itoa(i)+":"), name)
		}
	}

	body := b.String()
	bodyHeight := lipgloss.Height(body)
	pad := max(m.height-bodyHeight-2, 0)
	return body + strings.Repeat("\n", pad) +
		"> " + m.input.View() + "\n" +
		m.renderStatusLine()
}
