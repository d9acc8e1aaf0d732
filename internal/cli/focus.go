package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/timer"
)

// FocusCmd runs the study timer in the foreground until interrupted.
type FocusCmd struct {
	Category string        `arg:"" help:"Category id or name."`
	Pomodoro bool          `short:"p" help:"Run in pomodoro mode."`
	For      time.Duration `help:"Stop automatically after this long (e.g. 45m)."`
	Block    string        `help:"Id of today's schedule block to mark in progress."`
	Complete bool          `help:"Mark the block completed once the session is saved."`
}

const stopRetries = 3

func (c *FocusCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}
	today := clock.DateKey(ctx.now())
	if c.Block != "" {
		if err := ctx.Timetable.MarkInProgress(today, c.Block); err != nil {
			return err
		}
	}
	if err := ctx.Tracker.StartTimer(cat.ID, c.Pomodoro); err != nil {
		return err
	}

	interval := constants.DefaultTimerTick
	if ctx.Config != nil {
		interval = ctx.Config.Ticks.Timer()
	}
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var deadline <-chan time.Time
	if c.For > 0 {
		t := time.NewTimer(c.For)
		defer t.Stop()
		deadline = t.C
	}

	ctx.printf("Focusing on %s. Press Ctrl+C to stop.\n", headerStyle.Render(cat.Name))
loop:
	for {
		select {
		case <-sigCtx.Done():
			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			r := ctx.Tracker.Tick()
			if c.Block != "" {
				for i := 0; i < r.NewCycles; i++ {
					if err := ctx.Timetable.AddPomodoro(today, c.Block); err != nil && ctx.Logger != nil {
						ctx.Logger.Warn("failed to credit pomodoro to block", "block", c.Block, "error", err)
					}
				}
			}
			ctx.printf("\r%s", renderReading(r))
		}
	}
	ctx.println()

	return c.finish(ctx, today)
}

// finish persists the session, retrying while the timer is kept alive.
func (c *FocusCmd) finish(ctx *Context, today string) error {
	var lastErr error
	for attempt := 1; attempt <= stopRetries; attempt++ {
		sess, err := ctx.Tracker.StopTimer()
		if err == nil {
			if sess == nil {
				ctx.println("No study time recorded.")
				return nil
			}
			ctx.printf("%s Saved %s of study\n", okStyle.Render("✓"), formatHours(sess.Duration))
			if c.Block != "" && c.Complete {
				if err := ctx.Timetable.MarkCompleted(today, c.Block); err != nil {
					return err
				}
				ctx.printf("%s Block %s completed\n", okStyle.Render("✓"), c.Block)
			}
			return nil
		}
		lastErr = err
		if ctx.Logger != nil {
			ctx.Logger.Warn("saving session failed", "attempt", attempt, "error", err)
		}
		if attempt < stopRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return fmt.Errorf("session could not be saved after %d attempts: %w", stopRetries, lastErr)
}

func formatElapsed(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}

// renderReading is the one-line status shown while a timer runs.
func renderReading(r timer.Reading) string {
	if !r.Active {
		return mutedStyle.Render("no active timer")
	}
	line := activeStyle.Render(formatElapsed(r.ElapsedSeconds))
	if r.Paused {
		line += mutedStyle.Render(" (paused)")
	}
	if r.Pomodoro {
		phase := okStyle.Render("work")
		if r.IsBreak {
			phase = warnStyle.Render("break")
		}
		line += fmt.Sprintf("  %s %s left  cycles %d", phase, formatElapsed(r.PhaseRemaining), r.Cycles)
	}
	return line
}
