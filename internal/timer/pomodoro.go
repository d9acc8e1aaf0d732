package timer

import "time"

// Phase is the part of a pomodoro cycle the timer is in.
type Phase string

const (
	PhaseNone  Phase = ""
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// PomodoroConfig is the length of the work and break parts of one cycle.
type PomodoroConfig struct {
	Work  time.Duration
	Break time.Duration
}

func (c PomodoroConfig) workSeconds() int64  { return int64(c.Work / time.Second) }
func (c PomodoroConfig) breakSeconds() int64 { return int64(c.Break / time.Second) }

// Projection places an elapsed time on the repeating work+break cycle.
type Projection struct {
	Phase Phase
	// PhaseSeconds counts seconds since the current phase began.
	PhaseSeconds int64
	// PhaseRemaining counts seconds until the phase flips.
	PhaseRemaining int64
	// Cycles is the number of full work+break cycles completed.
	Cycles int
}

// Project maps elapsed productive seconds onto the pomodoro cycle.
func Project(elapsed int64, cfg PomodoroConfig) Projection {
	work, brk := cfg.workSeconds(), cfg.breakSeconds()
	cycle := work + brk
	if cycle <= 0 || elapsed < 0 {
		return Projection{Phase: PhaseWork}
	}
	pos := elapsed % cycle
	p := Projection{Cycles: int(elapsed / cycle)}
	if pos < work {
		p.Phase = PhaseWork
		p.PhaseSeconds = pos
		p.PhaseRemaining = work - pos
	} else {
		p.Phase = PhaseBreak
		p.PhaseSeconds = pos - work
		p.PhaseRemaining = cycle - pos
	}
	return p
}
