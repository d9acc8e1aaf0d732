package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/studylit/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	// Perform automatic backup and cleanup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()
	ctx.PerformCleanup()

	opts := tui.Options{}
	if ctx.Config != nil {
		opts.TimerTick = ctx.Config.Ticks.Timer()
		opts.ReconcileTick = ctx.Config.Ticks.Reconcile()
		opts.Currency = ctx.Config.Currency.Display
	}

	m := tui.NewModel(ctx.Tracker, ctx.Timetable, ctx.clock(), opts, ctx.Logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
