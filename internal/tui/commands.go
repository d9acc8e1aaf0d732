package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/timetable"
)

type timerTickMsg time.Time

type reconcileTickMsg time.Time

type reconciledMsg struct {
	// generation is the model's schedule generation when the command was
	// issued; a result from an older generation is stale.
	generation int
	schedule   models.DailySchedule
	changed    bool
	err        error
}

func timerTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func reconcileTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return reconcileTickMsg(t)
	})
}

// reconcileCmd reconciles and persists date off the event loop.
func reconcileCmd(tt *timetable.Service, date string, now, generation int) tea.Cmd {
	return func() tea.Msg {
		d, changed, err := tt.Reconcile(date, now)
		return reconciledMsg{generation: generation, schedule: d, changed: changed, err: err}
	}
}
