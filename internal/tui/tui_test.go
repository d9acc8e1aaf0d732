package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/testutil"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
	"github.com/julianstephens/studylit/internal/tui/components/categories"
)

type harness struct {
	tracker   *tracker.Service
	timetable *timetable.Service
	clock     *testutil.StubClock
	path      string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studylit.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init())
	clk := testutil.FixedClock()
	engine := timer.NewEngine(clk, timer.PomodoroConfig{Work: 25 * time.Minute, Break: 5 * time.Minute}, nil, nil)
	return harness{
		tracker:   tracker.NewService(store, engine, clk, testutil.NewStubIDGenerator(), 4000, nil),
		timetable: timetable.NewService(store, clk, testutil.NewStubIDGenerator(), nil),
		clock:     clk,
		path:      path,
	}
}

func (h harness) model() Model {
	return NewModel(h.tracker, h.timetable, h.clock, Options{}, nil)
}

func (h harness) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := h.tracker.CreateCategory(tracker.CategoryInput{Name: name, HourlyRateUSD: 10, DailyTarget: 2})
	require.NoError(t, err)
	return c
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update must return a Model")
	return out
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func findBlock(blocks []models.ScheduleBlock, start string) (models.ScheduleBlock, bool) {
	for _, b := range blocks {
		if b.StartTime == start {
			return b, true
		}
	}
	return models.ScheduleBlock{}, false
}

func TestNewModelDefaults(t *testing.T) {
	h := newHarness(t)
	m := h.model()

	assert.Equal(t, constants.StateTimer, m.state)
	assert.Equal(t, constants.DefaultTimerTick, m.opts.TimerTick)
	assert.Equal(t, constants.DefaultReconcileEvery, m.opts.ReconcileTick)
	assert.False(t, m.reading.Active)
	assert.Equal(t, "2025-10-20", m.schedule.Date)
	assert.NotEmpty(t, m.schedule.Blocks)
	assert.NotNil(t, m.Init())
}

func TestNewModelReconcilesInline(t *testing.T) {
	h := newHarness(t)
	h.clock.Set(h.clock.At(7, 0))

	m := h.model()
	b, ok := findBlock(m.schedule.Blocks, "06:30")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, b.Status)
	assert.True(t, m.schedule.IsCustomized, "a changed reconcile is persisted")
}

func TestTabCycle(t *testing.T) {
	h := newHarness(t)
	m := h.model()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, constants.StateSchedule, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, constants.StateToday, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, constants.StateTimer, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, constants.StateToday, m.state)
}

func TestStartPauseStop(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()

	m = update(t, m, categories.StartTimerMsg{ID: c.ID})
	require.True(t, m.reading.Active)
	assert.Equal(t, c.ID, m.reading.CategoryID)

	h.clock.Advance(30 * time.Minute)
	m = update(t, m, timerTickMsg(h.clock.Now()))
	assert.Equal(t, int64(1800), m.reading.ElapsedSeconds)

	m = update(t, m, runeKey(" "))
	assert.True(t, m.reading.Paused)
	h.clock.Advance(time.Hour)
	m = update(t, m, timerTickMsg(h.clock.Now()))
	assert.Equal(t, int64(1800), m.reading.ElapsedSeconds, "paused time is not counted")
	m = update(t, m, runeKey(" "))
	assert.False(t, m.reading.Paused)

	m = update(t, m, runeKey("x"))
	assert.False(t, m.reading.Active)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "Saved")
	assert.InDelta(t, 0.5, m.focus.TotalHours, 0.001)
}

func TestStopWithNoElapsedTime(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()

	m = update(t, m, categories.StartTimerMsg{ID: c.ID})
	m = update(t, m, runeKey("x"))
	assert.False(t, m.reading.Active)
	assert.Equal(t, "No study time recorded", m.status)

	sessions, err := h.tracker.SessionsByCategory(c.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestQuitSavesRunningTimer(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()

	m = update(t, m, categories.StartTimerMsg{ID: c.ID})
	h.clock.Advance(15 * time.Minute)

	next, cmd := m.Update(runeKey("q"))
	m = next.(Model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)

	sessions, err := h.tracker.SessionsByCategory(c.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.InDelta(t, 0.25, sessions[0].Duration, 0.001)
}

func TestReconcileTickIsSerialized(t *testing.T) {
	h := newHarness(t)
	m := h.model()

	next, cmd := m.Update(reconcileTickMsg(h.clock.Now()))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.reconciling)

	// A second tick while the first is in flight only reschedules.
	m = update(t, m, reconcileTickMsg(h.clock.Now()))
	assert.True(t, m.reconciling)

	h.clock.Set(h.clock.At(10, 0))
	msg := reconcileCmd(h.timetable, h.timetable.Today(), 600, m.generation)()
	m = update(t, m, msg)
	assert.False(t, m.reconciling)

	b, ok := findBlock(m.schedule.Blocks, "09:45")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, b.Status)
}

func TestStaleReconcileResultIsIgnored(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m.reconciling = true

	stale := reconciledMsg{generation: m.generation - 1, schedule: models.DailySchedule{Date: "1999-01-01"}}
	m = update(t, m, stale)
	assert.False(t, m.reconciling)
	assert.Equal(t, "2025-10-20", m.schedule.Date)
}

func TestCompleteSelectedBlock(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	sel, ok := m.timeline.Selected()
	require.True(t, ok)

	m = update(t, m, runeKey("c"))
	assert.False(t, m.statusErr, m.status)
	b, ok := findBlock(m.schedule.Blocks, sel.StartTime)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, b.Status)

	// Reconciling later never overwrites a completed block.
	h.clock.Set(h.clock.At(23, 0))
	m = update(t, m, reconcileCmd(h.timetable, h.timetable.Today(), 23*60, m.generation)())
	b, _ = findBlock(m.schedule.Blocks, sel.StartTime)
	assert.Equal(t, models.StatusCompleted, b.Status)
}

func TestFocusSelectedBlockStartsPomodoro(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	h.clock.Set(h.clock.At(7, 0))
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	sel, ok := m.timeline.Selected()
	require.True(t, ok)
	require.Equal(t, "Japanese", sel.CategoryName)

	m = update(t, m, runeKey("f"))
	require.True(t, m.reading.Active)
	assert.True(t, m.reading.Pomodoro)
	assert.Equal(t, c.ID, m.reading.CategoryID)

	h.clock.Advance(30 * time.Minute)
	m = update(t, m, timerTickMsg(h.clock.Now()))
	b, ok := findBlock(m.schedule.Blocks, sel.StartTime)
	require.True(t, ok)
	assert.Equal(t, 1, b.Pomodoros)
}

func TestStartSelectedBlockPlainTimer(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	h.clock.Set(h.clock.At(7, 0))
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	sel, ok := m.timeline.Selected()
	require.True(t, ok)

	m = update(t, m, runeKey("s"))
	assert.False(t, m.statusErr, m.status)
	require.True(t, m.reading.Active)
	assert.False(t, m.reading.Pomodoro)
	assert.Equal(t, c.ID, m.reading.CategoryID)

	b, ok := findBlock(m.schedule.Blocks, sel.StartTime)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, b.Status)
}

func TestStartSelectedBlockFailureLeavesBlockUntouched(t *testing.T) {
	h := newHarness(t)
	h.category(t, "Japanese")
	math := h.category(t, "Math")
	h.clock.Set(h.clock.At(7, 0))
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	sel, ok := m.timeline.Selected()
	require.True(t, ok)
	require.Equal(t, "09:45", sel.StartTime)
	require.Equal(t, models.StatusUpcoming, sel.Status)

	// the running Math session cannot be saved, so the new timer never starts
	require.NoError(t, h.tracker.StartTimer(math.ID, false))
	h.clock.Advance(10 * time.Minute)
	require.NoError(t, os.Mkdir(h.path+".tmp", 0o755))

	m = update(t, m, runeKey("s"))
	assert.True(t, m.statusErr)
	require.NoError(t, os.Remove(h.path+".tmp"))
	assert.True(t, h.tracker.HasActiveTimer(math.ID))

	d, err := h.timetable.Load(h.timetable.Today())
	require.NoError(t, err)
	b, ok := findBlock(d.Blocks, sel.StartTime)
	require.True(t, ok)
	assert.Equal(t, models.StatusUpcoming, b.Status)
}

func TestStartSelectedBlockRefusesCompletedBlock(t *testing.T) {
	h := newHarness(t)
	h.category(t, "Japanese")
	h.clock.Set(h.clock.At(7, 0))
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = update(t, m, runeKey("c"))
	require.False(t, m.statusErr, m.status)

	m = update(t, m, runeKey("s"))
	assert.True(t, m.statusErr)
	assert.False(t, m.reading.Active)
}

func TestConfirmDelete(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()

	m = update(t, m, categories.DeleteCategoryMsg{ID: c.ID})
	assert.Equal(t, constants.StateConfirmDelete, m.state)
	assert.Contains(t, m.View(), "Delete Japanese")

	m = update(t, m, runeKey("n"))
	assert.Equal(t, constants.StateTimer, m.state)
	_, err := h.tracker.GetCategory(c.ID)
	require.NoError(t, err)

	m = update(t, m, categories.DeleteCategoryMsg{ID: c.ID})
	m = update(t, m, runeKey("y"))
	assert.Equal(t, constants.StateTimer, m.state)
	_, err = h.tracker.GetCategory(c.ID)
	assert.ErrorIs(t, err, tracker.ErrCategoryNotFound)
}

func TestDeleteTimedCategoryIsRefused(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()

	m = update(t, m, categories.StartTimerMsg{ID: c.ID})
	m = update(t, m, categories.DeleteCategoryMsg{ID: c.ID})
	m = update(t, m, runeKey("y"))
	assert.True(t, m.statusErr)
	_, err := h.tracker.GetCategory(c.ID)
	assert.NoError(t, err)
}

func TestBlockFormEscCancels(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = update(t, m, runeKey("a"))
	require.Equal(t, constants.StateAddBlock, m.state)
	require.NotNil(t, m.form)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, constants.StateSchedule, m.state)
	assert.Nil(t, m.form)
}

func TestSubmitBlockReportsConflicts(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m.blockForm = &BlockFormModel{
		Start:    "09:00",
		End:      "10:00",
		Category: "English",
		Type:     models.BlockTypeStudy,
		Priority: models.PriorityLow,
	}

	require.NoError(t, m.submitBlock())
	assert.Contains(t, m.status, "overlaps")
	_, ok := findBlock(m.schedule.Blocks, "09:00")
	assert.True(t, ok)
}

func TestSubmitSession(t *testing.T) {
	h := newHarness(t)
	c := h.category(t, "Japanese")
	m := h.model()
	m.sessionForm = &SessionFormModel{CategoryID: c.ID, Date: "2025-10-20", Start: "06:00", End: "07:30"}

	require.NoError(t, m.submitSession())
	assert.InDelta(t, 1.5, m.focus.TotalHours, 0.001)
	assert.Contains(t, m.View(), "Timer")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateClock("09:00"))
	assert.NoError(t, validateClock(" 23:59 "))
	assert.Error(t, validateClock("24:00"))
	assert.Error(t, validateClock("9:60"))
	assert.NoError(t, validateDate("2025-10-20"))
	assert.Error(t, validateDate("20-10-2025"))
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatClock(tt.secs))
	}
}

func TestMoneyDisplay(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	assert.Equal(t, "$12.50", m.money(12.5, 50000))
	m.opts.Currency = "MMK"
	assert.Equal(t, "50000 MMK", m.money(12.5, 50000))
}

func TestViewsRender(t *testing.T) {
	h := newHarness(t)
	h.category(t, "Japanese")
	m := h.model()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Contains(t, m.View(), "Japanese")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "2025-10-20")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Nothing studied yet today.")
}

func TestKeyMapHelp(t *testing.T) {
	km := DefaultKeyMap()
	assert.Len(t, km.ShortHelp(), 3)
	assert.Len(t, km.FullHelp(), 2)
}
