package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
	"github.com/julianstephens/studylit/internal/tui/components/categories"
	"github.com/julianstephens/studylit/internal/tui/components/timeline"
)

// Options tunes the dashboard refresh cadences and money display.
type Options struct {
	// TimerTick drives the clock face and pomodoro phase changes.
	TimerTick time.Duration
	// ReconcileTick drives automatic block status updates.
	ReconcileTick time.Duration
	// Currency is "USD" or "MMK".
	Currency string
}

func (o Options) withDefaults() Options {
	if o.TimerTick <= 0 {
		o.TimerTick = constants.DefaultTimerTick
	}
	if o.ReconcileTick <= 0 {
		o.ReconcileTick = constants.DefaultReconcileEvery
	}
	return o
}

type BlockFormModel struct {
	Start       string
	End         string
	Category    string
	Type        models.BlockType
	Priority    models.Priority
	Description string
}

type SessionFormModel struct {
	CategoryID string
	Date       string
	Start      string
	End        string
	Notes      string
}

type Model struct {
	tracker   *tracker.Service
	timetable *timetable.Service
	clock     clock.Clock
	logger    *log.Logger
	opts      Options

	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	categories    categories.Model
	timeline      timeline.Model
	chart         barchart.Model

	schedule models.DailySchedule
	reading  timer.Reading
	focus    tracker.Focus

	form        *huh.Form
	blockForm   *BlockFormModel
	sessionForm *SessionFormModel
	deleteID    string

	// reconciling is set while a reconcile command is in flight so ticks
	// never stack up behind a slow store.
	reconciling bool
	generation  int
	status      string
	statusErr   bool
	quitting    bool
	forceQuit   bool
	width       int
	height      int
}

func NewModel(tr *tracker.Service, tt *timetable.Service, clk clock.Clock, opts Options, logger *log.Logger) Model {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := Model{
		tracker:    tr,
		timetable:  tt,
		clock:      clk,
		logger:     logger,
		opts:       opts.withDefaults(),
		state:      constants.StateTimer,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		categories: categories.New(nil, 0, 0),
		timeline:   timeline.New(0, 0),
		chart:      barchart.New(40, 10),
	}
	m.reading = tr.Tick()
	m.refreshCategories()
	m.refreshFocus()

	// The first reconcile runs inline so the schedule is correct before
	// the first frame.
	d, _, err := tt.Reconcile(tt.Today(), m.nowMinute())
	if err != nil {
		m.setError(fmt.Errorf("failed to load schedule: %w", err))
	} else {
		m.schedule = d
		m.timeline.SetSchedule(d, m.nowMinute())
	}
	return m
}

func (m Model) nowMinute() int {
	return clock.MinuteOfDay(m.clock.Now())
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateTimer:
		keys = append(keys, m.keys.Pause, m.keys.Stop)
	case constants.StateSchedule:
		keys = append(keys, m.keys.Add, m.keys.Complete, m.keys.Skip, m.keys.Focus, m.keys.Start)
	case constants.StateToday:
		keys = append(keys, m.keys.Refresh)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case constants.StateTimer:
		actions = []key.Binding{m.keys.Pause, m.keys.Stop}
	case constants.StateSchedule:
		actions = []key.Binding{m.keys.Add, m.keys.Complete, m.keys.Skip, m.keys.Focus, m.keys.Start}
	case constants.StateToday:
		actions = []key.Binding{m.keys.Refresh}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		timerTick(m.opts.TimerTick),
		reconcileTick(m.opts.ReconcileTick),
	)
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.logger.Error("dashboard action failed", "error", err)
}

func (m *Model) refreshCategories() {
	cats, err := m.tracker.ListCategories()
	if err != nil {
		m.setError(fmt.Errorf("failed to load categories: %w", err))
		return
	}
	visible := cats[:0]
	for _, c := range cats {
		if !c.Archived {
			visible = append(visible, c)
		}
	}
	timing := ""
	if m.reading.Active {
		timing = m.reading.CategoryID
	}
	m.categories.SetCategories(visible, timing)
}

func (m *Model) refreshFocus() {
	f, err := m.tracker.DailyFocus(clock.DateKey(m.clock.Now()))
	if err != nil {
		m.setError(fmt.Errorf("failed to load today's focus: %w", err))
		return
	}
	m.focus = f
	m.buildChart()
}

// categoryNamed finds an unarchived category by case-insensitive name.
func (m Model) categoryNamed(name string) (models.Category, bool) {
	cats, err := m.tracker.ListCategories()
	if err != nil {
		return models.Category{}, false
	}
	for _, c := range cats {
		if !c.Archived && strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.Category{}, false
}

func (m Model) money(usd, mmk float64) string {
	if strings.EqualFold(m.opts.Currency, "MMK") {
		return fmt.Sprintf("%.0f MMK", mmk)
	}
	return fmt.Sprintf("$%.2f", usd)
}
