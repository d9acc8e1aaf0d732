package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
	"github.com/julianstephens/studylit/internal/tui/components/categories"
)

// tabs are the states reachable with tab/shift+tab.
var tabs = []constants.SessionState{constants.StateTimer, constants.StateSchedule, constants.StateToday}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.categories.SetSize(msg.Width-4, max(msg.Height-16, 3))
		m.timeline.SetSize(msg.Width-4, max(msg.Height-8, 3))
		m.buildChart()
		return m, nil

	case timerTickMsg:
		m.onTimerTick()
		return m, timerTick(m.opts.TimerTick)

	case reconcileTickMsg:
		cmds := []tea.Cmd{reconcileTick(m.opts.ReconcileTick)}
		if !m.reconciling {
			m.reconciling = true
			cmds = append(cmds, reconcileCmd(m.timetable, m.timetable.Today(), m.nowMinute(), m.generation))
		}
		return m, tea.Batch(cmds...)

	case reconciledMsg:
		m.reconciling = false
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to reconcile schedule: %w", msg.err))
			return m, nil
		}
		if msg.changed {
			m.logger.Debug("schedule reconciled", "date", msg.schedule.Date)
		}
		if msg.generation != m.generation {
			return m, nil
		}
		m.schedule = msg.schedule
		m.timeline.SetSchedule(msg.schedule, m.nowMinute())
		return m, nil

	case categories.StartTimerMsg:
		m.startTimer(msg.ID, msg.Pomodoro)
		return m, nil

	case categories.LogSessionMsg:
		return m.openSessionForm(msg.ID)

	case categories.DeleteCategoryMsg:
		m.deleteID = msg.ID
		m.previousState = m.state
		m.state = constants.StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case constants.StateAddBlock, constants.StateAddSession:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateActive(msg)
	}
	if m.state == constants.StateTimer && m.categories.Filtering() {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m.quit()
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		m.state = m.nextTab(1)
		return m, nil
	case key.Matches(keyMsg, m.keys.ShiftTab):
		m.state = m.nextTab(-1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Pause):
		m.togglePause()
		return m, nil
	case key.Matches(keyMsg, m.keys.Stop):
		m.stopTimer()
		return m, nil
	}

	switch m.state {
	case constants.StateSchedule:
		switch {
		case key.Matches(keyMsg, m.keys.Add):
			return m.openBlockForm()
		case key.Matches(keyMsg, m.keys.Complete):
			m.markSelected(m.timetable.MarkCompleted, "completed")
			return m, nil
		case key.Matches(keyMsg, m.keys.Skip):
			m.markSelected(m.timetable.MarkSkipped, "skipped")
			return m, nil
		case key.Matches(keyMsg, m.keys.Focus):
			m.focusSelected(true)
			return m, nil
		case key.Matches(keyMsg, m.keys.Start):
			m.focusSelected(false)
			return m, nil
		}
	case constants.StateToday:
		if key.Matches(keyMsg, m.keys.Refresh) {
			m.refreshFocus()
			return m, nil
		}
	}

	return m.updateActive(msg)
}

// updateActive forwards msg to the component of the current tab.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case constants.StateTimer:
		m.categories, cmd = m.categories.Update(msg)
	case constants.StateSchedule:
		m.timeline, cmd = m.timeline.Update(msg)
	}
	return m, cmd
}

func (m Model) nextTab(dir int) constants.SessionState {
	for i, s := range tabs {
		if s == m.state {
			return tabs[(i+dir+len(tabs))%len(tabs)]
		}
	}
	return tabs[0]
}

func (m *Model) onTimerTick() {
	prev := m.reading
	m.reading = m.tracker.Tick()
	if m.reading.NewCycles > 0 {
		m.creditBlockPomodoros(m.reading.NewCycles)
		m.refreshCategories()
	}
	if prev.Active && prev.Phase != m.reading.Phase && m.reading.Phase != "" {
		m.setStatus("Pomodoro: %s phase", m.reading.Phase)
	}
}

// creditBlockPomodoros adds finished cycles to the in-progress block of the
// category being timed, if there is one.
func (m *Model) creditBlockPomodoros(n int) {
	cat, err := m.tracker.GetCategory(m.reading.CategoryID)
	if err != nil {
		return
	}
	for _, b := range m.schedule.Blocks {
		if b.Status != models.StatusInProgress || !strings.EqualFold(b.CategoryName, cat.Name) {
			continue
		}
		for range n {
			if err := m.timetable.AddPomodoro(m.schedule.Date, b.ID); err != nil {
				m.setError(fmt.Errorf("failed to credit pomodoro: %w", err))
				return
			}
		}
		m.reloadSchedule()
		return
	}
}

// startTimer reports whether the timer is now running for categoryID.
func (m *Model) startTimer(categoryID string, pomodoro bool) bool {
	if err := m.tracker.StartTimer(categoryID, pomodoro); err != nil {
		m.setError(err)
		return false
	}
	m.reading = m.tracker.Tick()
	cat, _ := m.tracker.GetCategory(categoryID)
	if pomodoro {
		m.setStatus("Pomodoro started for %s", cat.Name)
	} else {
		m.setStatus("Timer started for %s", cat.Name)
	}
	m.refreshCategories()
	m.refreshFocus()
	return true
}

func (m *Model) togglePause() {
	if !m.reading.Active {
		return
	}
	var err error
	if m.reading.Paused {
		err = m.tracker.ResumeTimer()
	} else {
		err = m.tracker.PauseTimer()
	}
	if err != nil {
		m.setError(err)
		return
	}
	m.reading = m.tracker.Tick()
}

// stopTimer saves the running session. On failure the timer keeps running
// so the user can retry.
func (m *Model) stopTimer() bool {
	if !m.reading.Active {
		return true
	}
	sess, err := m.tracker.StopTimer()
	if err != nil {
		m.setError(fmt.Errorf("failed to save session, timer still running: %w", err))
		return false
	}
	m.reading = m.tracker.Tick()
	if sess == nil {
		m.setStatus("No study time recorded")
	} else {
		m.setStatus("Saved %s of %s", schedule.FormatDuration(sess.Duration), sess.Name)
	}
	m.refreshCategories()
	m.refreshFocus()
	return true
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.reading.Active && !m.forceQuit {
		if !m.stopTimer() {
			m.forceQuit = true
			m.status += " (press q again to quit without saving)"
			return m, nil
		}
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) reloadSchedule() {
	now := m.nowMinute()
	d, _, err := m.timetable.Reconcile(m.timetable.Today(), now)
	if err != nil {
		m.setError(fmt.Errorf("failed to load schedule: %w", err))
		return
	}
	m.generation++
	m.schedule = d
	m.timeline.SetSchedule(d, now)
}

func (m *Model) markSelected(mark func(date, id string) error, verb string) {
	b, ok := m.timeline.Selected()
	if !ok {
		return
	}
	if err := mark(m.schedule.Date, b.ID); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("%s %s", b.CategoryName, verb)
	m.reloadSchedule()
}

// focusSelected starts the timer for the selected block's category and
// marks the block in progress. The block is only marked once the timer is
// running.
func (m *Model) focusSelected(pomodoro bool) {
	b, ok := m.timeline.Selected()
	if !ok {
		return
	}
	if b.Status.Sticky() {
		m.setError(fmt.Errorf("block %s is already %s", b.ID, b.Status))
		return
	}
	cat, ok := m.categoryNamed(b.CategoryName)
	if !ok {
		m.setError(fmt.Errorf("no category named %q", b.CategoryName))
		return
	}
	if !m.startTimer(cat.ID, pomodoro) {
		return
	}
	if err := m.timetable.MarkInProgress(m.schedule.Date, b.ID); err != nil {
		m.setError(err)
	}
	m.reloadSchedule()
}

func (m Model) openBlockForm() (tea.Model, tea.Cmd) {
	m.blockForm = &BlockFormModel{
		Type:     models.BlockType(constants.DefaultBlockType),
		Priority: models.Priority(constants.DefaultBlockPriority),
	}
	m.form = newBlockForm(m.blockForm)
	m.previousState = m.state
	m.state = constants.StateAddBlock
	return m, m.form.Init()
}

func (m Model) openSessionForm(categoryID string) (tea.Model, tea.Cmd) {
	cat, err := m.tracker.GetCategory(categoryID)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.sessionForm = &SessionFormModel{
		CategoryID: categoryID,
		Date:       clock.DateKey(m.clock.Now()),
	}
	m.form = newSessionForm(m.sessionForm, cat.Name)
	m.previousState = m.state
	m.state = constants.StateAddSession
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		return m.closeForm(), nil
	case huh.StateCompleted:
		var err error
		if m.state == constants.StateAddBlock {
			err = m.submitBlock()
		} else {
			err = m.submitSession()
		}
		if err != nil {
			m.setError(err)
		}
		return m.closeForm(), nil
	}
	return m, cmd
}

func (m Model) closeForm() Model {
	m.form = nil
	m.blockForm = nil
	m.sessionForm = nil
	m.state = m.previousState
	return m
}

func (m *Model) submitBlock() error {
	fm := m.blockForm
	b, conflicts, err := m.timetable.AddBlock(m.schedule.Date, schedule.BlockInput{
		StartTime:    strings.TrimSpace(fm.Start),
		EndTime:      strings.TrimSpace(fm.End),
		CategoryName: strings.TrimSpace(fm.Category),
		Type:         fm.Type,
		Priority:     fm.Priority,
		Description:  strings.TrimSpace(fm.Description),
	})
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		m.setStatus("Added %s %s (overlaps %d block(s))", schedule.FormatRange(b), b.CategoryName, len(conflicts))
	} else {
		m.setStatus("Added %s %s", schedule.FormatRange(b), b.CategoryName)
	}
	m.reloadSchedule()
	return nil
}

func (m *Model) submitSession() error {
	fm := m.sessionForm
	sess, err := m.tracker.AddPastSession(fm.CategoryID, strings.TrimSpace(fm.Date),
		strings.TrimSpace(fm.Start), strings.TrimSpace(fm.End), strings.TrimSpace(fm.Notes))
	if err != nil {
		return err
	}
	m.setStatus("Logged %s on %s", schedule.FormatDuration(sess.Duration), sess.Date)
	m.refreshCategories()
	m.refreshFocus()
	return nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(keyMsg.String()) {
	case "y":
		id := m.deleteID
		if m.tracker.HasActiveTimer(id) {
			m.setError(errors.New("stop the timer before deleting its category"))
		} else if err := m.tracker.DeleteCategory(id); err != nil {
			m.setError(err)
		} else {
			m.setStatus("Category deleted")
			m.refreshCategories()
			m.refreshFocus()
		}
	case "n", "esc", "q":
	default:
		return m, nil
	}
	m.deleteID = ""
	m.state = m.previousState
	return m, nil
}
