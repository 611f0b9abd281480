package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const shutdownTimeout = 5 * time.Second

// Run starts the Bubble Tea program and blocks until it exits. All sources
// are stopped before Run returns.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if s := m.Session(); s != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if serr := s.Shutdown(sctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
