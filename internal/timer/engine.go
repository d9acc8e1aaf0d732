package timer

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/notifier"
)

// Session is the state of the single active timer.
type Session struct {
	CategoryID string
	StartedAt  time.Time
	// TotalPaused is the wall time spent paused so far.
	TotalPaused time.Duration
	// PausedAtElapsed is the elapsed-seconds snapshot taken when pausing.
	PausedAtElapsed int64
	Paused          bool
	Pomodoro        bool
}

// Reading is the timer state at one instant.
type Reading struct {
	Active         bool
	CategoryID     string
	ElapsedSeconds int64
	Paused         bool
	Pomodoro       bool
	Phase          Phase
	PhaseSeconds   int64
	PhaseRemaining int64
	IsBreak        bool
	// Cycles is the total number of pomodoro cycles completed this session.
	Cycles int
	// NewCycles is how many cycles completed since the previous tick.
	NewCycles int
}

// Summary describes a session at the moment it is stopped.
type Summary struct {
	CategoryID string
	StartedAt  time.Time
	EndedAt    time.Time
	Elapsed    time.Duration
	Pomodoro   bool
	Cycles     int
}

// Hours is the productive length of the session.
func (s Summary) Hours() float64 {
	return s.Elapsed.Hours()
}

// Engine tracks one timed study session. Elapsed time is always derived from
// the start instant and the accumulated pause, never from tick counts, so a
// tick after a long suspension resyncs immediately. Engine is not safe for
// concurrent use; it is driven from a single event loop.
type Engine struct {
	clock    clock.Clock
	pomodoro PomodoroConfig
	notifier notifier.Notifier
	logger   *log.Logger

	session   *Session
	lastPhase Phase
	cycles    int
}

// NewEngine creates an idle engine. A nil notifier disables notifications
// and a nil logger discards log output.
func NewEngine(clk clock.Clock, cfg PomodoroConfig, n notifier.Notifier, logger *log.Logger) *Engine {
	if n == nil {
		n = notifier.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{clock: clk, pomodoro: cfg, notifier: n, logger: logger}
}

func (e *Engine) Active() bool {
	return e.session != nil
}

// Session returns a copy of the active session.
func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Start begins timing categoryID from zero. Any running session is
// discarded and returned so the caller can decide whether to persist it.
func (e *Engine) Start(categoryID string, pomodoro bool) (prev *Summary) {
	if e.session != nil {
		s := e.summaryAt(e.clock.Now())
		prev = &s
	}
	e.session = &Session{
		CategoryID: categoryID,
		StartedAt:  e.clock.Now(),
		Pomodoro:   pomodoro,
	}
	e.cycles = 0
	e.lastPhase = PhaseNone
	if pomodoro {
		e.lastPhase = PhaseWork
	}
	e.logger.Debug("timer started", "category", categoryID, "pomodoro", pomodoro)
	return prev
}

// Pause freezes elapsed time. It is a no-op when idle or already paused.
func (e *Engine) Pause() {
	if e.session == nil || e.session.Paused {
		return
	}
	e.session.PausedAtElapsed = e.elapsedAt(e.clock.Now())
	e.session.Paused = true
}

// Resume folds the time spent paused into TotalPaused. It is a no-op when
// idle or not paused.
func (e *Engine) Resume() {
	if e.session == nil || !e.session.Paused {
		return
	}
	s := e.session
	frozenAt := s.StartedAt.Add(time.Duration(s.PausedAtElapsed)*time.Second + s.TotalPaused)
	if spent := e.clock.Now().Sub(frozenAt); spent > 0 {
		s.TotalPaused += spent
	}
	s.Paused = false
}

// elapsedAt is floor((now - start - paused) / 1s), frozen while paused.
func (e *Engine) elapsedAt(now time.Time) int64 {
	s := e.session
	if s.Paused {
		return s.PausedAtElapsed
	}
	d := now.Sub(s.StartedAt) - s.TotalPaused
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Tick reads the timer at the clock's current time.
func (e *Engine) Tick() Reading {
	return e.TickAt(e.clock.Now())
}

// TickAt recomputes the timer at now. Pomodoro phase changes are reported
// to the notifier once per crossing, however large the gap since the
// previous tick.
func (e *Engine) TickAt(now time.Time) Reading {
	if e.session == nil {
		return Reading{}
	}
	s := e.session
	r := Reading{
		Active:         true,
		CategoryID:     s.CategoryID,
		ElapsedSeconds: e.elapsedAt(now),
		Paused:         s.Paused,
		Pomodoro:       s.Pomodoro,
	}
	if !s.Pomodoro {
		return r
	}

	p := Project(r.ElapsedSeconds, e.pomodoro)
	r.Phase = p.Phase
	r.PhaseSeconds = p.PhaseSeconds
	r.PhaseRemaining = p.PhaseRemaining
	r.IsBreak = p.Phase == PhaseBreak

	if p.Cycles > e.cycles {
		r.NewCycles = p.Cycles - e.cycles
		e.cycles = p.Cycles
	}
	r.Cycles = e.cycles

	if p.Phase != e.lastPhase {
		e.lastPhase = p.Phase
		e.announce(p.Phase)
	}
	return r
}

func (e *Engine) announce(phase Phase) {
	var title, body string
	switch phase {
	case PhaseBreak:
		title = constants.BreakStartTitle
		body = fmt.Sprintf(constants.BreakStartBody, int(e.pomodoro.Break/time.Minute))
	case PhaseWork:
		title, body = constants.BreakEndTitle, constants.BreakEndBody
	default:
		return
	}
	if err := e.notifier.Notify(title, body); err != nil {
		e.logger.Warn("pomodoro notification failed", "phase", phase, "error", err)
	}
}

// Peek summarises the running session without stopping it.
func (e *Engine) Peek() (Summary, bool) {
	if e.session == nil {
		return Summary{}, false
	}
	return e.summaryAt(e.clock.Now()), true
}

func (e *Engine) summaryAt(now time.Time) Summary {
	s := e.session
	return Summary{
		CategoryID: s.CategoryID,
		StartedAt:  s.StartedAt,
		EndedAt:    now,
		Elapsed:    time.Duration(e.elapsedAt(now)) * time.Second,
		Pomodoro:   s.Pomodoro,
		Cycles:     e.cycles,
	}
}

// Stop ends the session and returns its summary. State is cleared
// unconditionally; persisting the result is up to the caller.
func (e *Engine) Stop() (Summary, bool) {
	if e.session == nil {
		return Summary{}, false
	}
	sum := e.summaryAt(e.clock.Now())
	e.session = nil
	e.cycles = 0
	e.lastPhase = PhaseNone
	e.logger.Debug("timer stopped", "category", sum.CategoryID, "elapsed", sum.Elapsed)
	return sum, true
}
