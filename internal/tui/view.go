package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/tinytelemetry/ripple/internal/ansitext"
)

// View renders the shell.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}
	if m.screen == screenStartup {
		return m.renderStartup()
	}

	var rows []string
	h := m.streamHeight()
	switch {
	case m.showHelp:
		rows = m.renderHelp(h)
	case m.session.Analytics():
		rows = m.renderAnalytics(h)
	default:
		rows = m.renderStream(h)
	}
	for len(rows) < h {
		rows = append(rows, "")
	}

	parts := []string{strings.Join(rows, "\n")}
	if m.showChart {
		parts = append(parts, m.renderRateChart(m.width))
	}
	if m.mode != inputNone {
		parts = append(parts, m.renderEntry())
	}
	parts = append(parts, m.renderStatusLine())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderStream renders the window of visible lines.
func (m *Model) renderStream(height int) []string {
	buf := m.session.Buffer()
	start, end := buf.Window(height)
	rows := make([]string, 0, end-start)
	for pos := start; pos < end; pos++ {
		rows = append(rows, m.fit(m.session.Display(buf.VisibleIndex(pos))))
	}
	if len(rows) == 0 {
		msg := "Waiting for " + m.session.Channel().String() + " output..."
		if buf.Filtered() {
			msg = "No lines match /" + m.session.Filter().Pattern() + "/"
		}
		rows = append(rows, helpStyle.Render(msg))
	}
	return rows
}

// fit truncates a line to the terminal width without breaking its escape
// sequences, and resets any color it leaves open.
func (m *Model) fit(text string) string {
	text = strings.ReplaceAll(text, "\t", "    ")
	if lipgloss.Width(text) > m.width {
		text = ansi.Truncate(text, m.width, "")
	}
	if ansitext.HasEscape(text) {
		text += "\x1b[0m"
	}
	return text
}

// renderAnalytics renders the aggregator summaries.
func (m *Model) renderAnalytics(height int) []string {
	var rows []string
	pattern := m.session.Pattern()
	noMatch, mismatch := m.session.ParseMisses()
	rows = append(rows, titleStyle.Render(fmt.Sprintf("%s: %d parsed, %d skipped",
		pattern.Name(), len(m.session.Records()), noMatch+mismatch)))
	for _, s := range m.session.Summaries() {
		rows = append(rows, fieldNameStyle.Render(s.Name)+helpStyle.Render(" ("+s.Method+")"))
		for _, line := range s.Lines {
			rows = append(rows, m.fit("    "+line))
		}
	}
	if len(rows) > height {
		rows = rows[:height]
	}
	return rows
}

func (m *Model) renderHelp(height int) []string {
	rows := strings.Split(m.help.FullHelpView(m.keys.FullHelp()), "\n")
	rows = append(rows, "",
		titleStyle.Render("Commands"),
		"  :q                  quit",
		"  :poll N | auto      override the poll interval (ms)",
		"  :agg N              top-N for Count aggregators",
		"  :parser NAME | off  parse with a saved pattern",
		"  :field NAME|INDEX   field shown per line while parsing",
		"  :analytics          toggle aggregate summaries",
		"  :swap               swap primary/secondary output",
		"  :highlight          toggle match highlighting",
		"  :save NAME          save the current sources as a session",
		"  :restart            stop all sources and start over",
		"  :history [off]      show or disable the input history",
	)
	if len(rows) > height {
		rows = rows[:height]
	}
	return rows
}

func (m *Model) renderEntry() string {
	prefix := "/"
	if m.mode == inputCommand {
		prefix = ":"
	}
	return prefix + m.input.View()
}

// renderStatusLine renders the bottom bar: stream state on the left, the
// latest message or key hints on the right.
func (m *Model) renderStatusLine() string {
	var left []string
	if m.session != nil {
		s := m.session
		sched := s.Scheduler()
		interval := sched.Next().Round(time.Millisecond).String()
		if _, ok := sched.Override(); ok {
			interval += " fixed"
		} else {
			interval = sched.Mode().String() + " " + interval
		}
		left = append(left,
			statusKeyStyle.Render(s.Channel().String()),
			fmt.Sprintf("%d/%d", s.Buffer().VisibleLen(), s.Buffer().Len()),
			s.Buffer().Stick().String(),
			interval,
			fmt.Sprintf("%d/%d live", s.Live(), len(s.Sources())),
		)
		if f := s.Filter(); f.Active() {
			hl := ""
			if f.Highlight() {
				hl = " hl"
			}
			left = append(left, "/"+f.Pattern()+"/"+hl)
		}
		if name, _ := s.Field(); name != "" {
			left = append(left, s.Pattern().Name()+":"+name)
		}
	} else {
		left = append(left, statusKeyStyle.Render("ripple"))
	}
	leftText := strings.Join(left, " │ ")

	var right string
	switch {
	case m.flash != "" && time.Now().Before(m.flashUntil):
		if m.flashErr {
			right = errorStyle.Render(m.flash)
		} else {
			right = messageStyle.Render(m.flash)
		}
	case m.screen == screenStream:
		right = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	inner := max(m.width-2, 0)
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(right)
	line := leftText
	if gap > 0 {
		line += strings.Repeat(" ", gap) + right
	} else {
		line = ansi.Truncate(leftText+" "+right, inner, "…")
	}
	return statusStyle.Width(m.width).Render(line)
}
