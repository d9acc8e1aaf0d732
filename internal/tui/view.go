package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/schedule"
	"github.com/julianstephens/studylit/internal/timer"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateTimer:
		content = m.viewTimer()
	case constants.StateSchedule:
		content = m.viewSchedule()
	case constants.StateToday:
		content = m.viewToday()
	case constants.StateAddBlock, constants.StateAddSession:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active != constants.StateTimer && active != constants.StateSchedule && active != constants.StateToday {
		active = m.previousState
	}
	var out []string
	for i, title := range []string{"Timer", "Schedule", "Today"} {
		if tabs[i] == active {
			out = append(out, activeTabStyle.Render(title))
		} else {
			out = append(out, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return dangerStyle.Render(" " + m.status)
	}
	return statusStyle.Render(" " + m.status)
}

// formatClock renders seconds as hh:mm:ss.
func formatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func (m Model) viewTimer() string {
	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewClock(),
		"",
		m.categories.View(),
	))
}

func (m Model) viewClock() string {
	r := m.reading
	if !r.Active {
		return mutedStyle.Render("No timer running. Select a category and press 's' or 'p'.")
	}

	name := r.CategoryID
	if c, err := m.tracker.GetCategory(r.CategoryID); err == nil {
		name = c.Name
	}

	lines := []string{titleStyle.Render(name), clockStyle.Render(formatClock(r.ElapsedSeconds))}
	if r.Pomodoro {
		phase := workStyle.Render("Work")
		if r.Phase == timer.PhaseBreak {
			phase = breakStyle.Render("Break")
		}
		lines = append(lines, fmt.Sprintf("%s  %s left  ·  %d cycle(s)", phase, formatClock(r.PhaseRemaining), r.Cycles))
	}
	if r.Paused {
		lines = append(lines, mutedStyle.Render("Paused. Press space to resume."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewSchedule() string {
	d := m.schedule
	title := d.Date
	if d.DayTheme != "" {
		title += ": " + d.DayTheme
	}
	if !d.IsCustomized {
		title += mutedStyle.Render("  (weekly template)")
	}

	now := m.nowMinute()
	var summary string
	if cur, ok := schedule.CurrentBlock(d.Blocks, now); ok {
		summary = fmt.Sprintf("Now: %s · %s left", cur.CategoryName, schedule.Remaining(cur, now))
	} else if next, ok := schedule.NextBlock(d.Blocks, now); ok {
		summary = fmt.Sprintf("Free time · next %s in %s", next.CategoryName, schedule.TimeUntil(next, now))
	} else {
		summary = "Nothing else scheduled today"
	}
	p := schedule.CountProgress(d.Blocks)
	summary += mutedStyle.Render(fmt.Sprintf("  ·  %.0f/%.0f done (%.0f%%)", p.Completed, p.Total, p.Percentage))

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(title),
		summary,
		"",
		m.timeline.View(),
	))
}

func (m Model) viewToday() string {
	f := m.focus
	var b strings.Builder
	b.WriteString(titleStyle.Render("Focus for "+f.Date) + "\n\n")
	if len(f.Entries) == 0 {
		b.WriteString(mutedStyle.Render("Nothing studied yet today.") + "\n")
		return docStyle.Render(b.String())
	}
	b.WriteString(m.chart.View() + "\n\n")
	for _, e := range f.Entries {
		line := fmt.Sprintf("%-20s %6.2fh  %s", e.Category.Name, e.Hours, m.money(e.EarnedUSD, e.EarnedMMK))
		if e.Category.DailyTarget > 0 {
			line += mutedStyle.Render(fmt.Sprintf("  %.0f%% of target", e.TargetPercent))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("\n%-20s %6.2fh  %s\n", "Total", f.TotalHours, m.money(f.EarnedUSD, f.EarnedMMK)))
	return docStyle.Render(b.String())
}

func (m Model) viewConfirmDelete() string {
	name := m.deleteID
	if c, err := m.tracker.GetCategory(m.deleteID); err == nil {
		name = c.Name
	}
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %s and all of its sessions?", name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
