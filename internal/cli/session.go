package cli

import (
	"fmt"

	"github.com/julianstephens/studylit/internal/models"
)

type SessionCmd struct {
	Add  SessionAddCmd  `cmd:"" help:"Log a past study session."`
	List SessionListCmd `cmd:"" help:"List study sessions."`
}

type SessionAddCmd struct {
	Category string `arg:"" help:"Category id or name."`
	Start    string `arg:"" help:"Start time (HH:MM)."`
	End      string `arg:"" help:"End time (HH:MM)."`
	Date     string `help:"Date of the session (YYYY-MM-DD, 'today' or 'yesterday')." default:"today"`
	Notes    string `help:"Free-form notes."`
}

func (c *SessionAddCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	sess, err := ctx.Tracker.AddPastSession(cat.ID, date, c.Start, c.End, c.Notes)
	if err != nil {
		return err
	}
	ctx.printf("%s Logged %s of %s on %s\n", okStyle.Render("✓"), formatHours(sess.Duration), cat.Name, sess.Date)
	return nil
}

type SessionListCmd struct {
	Category string `help:"Only sessions of this category (id or name)."`
	Date     string `help:"Only sessions on this date."`
}

func (c *SessionListCmd) Run(ctx *Context) error {
	var (
		sessions []models.Session
		err      error
	)
	switch {
	case c.Category != "":
		cat, rerr := ctx.resolveCategory(c.Category)
		if rerr != nil {
			return rerr
		}
		sessions, err = ctx.Tracker.SessionsByCategory(cat.ID)
	case c.Date != "":
		date, derr := ctx.parseDate(c.Date)
		if derr != nil {
			return derr
		}
		sessions, err = ctx.Tracker.SessionsByDate(date)
	default:
		sessions, err = ctx.Store.GetAllSessions()
	}
	if err != nil {
		return err
	}

	if c.Category != "" && c.Date != "" {
		date, derr := ctx.parseDate(c.Date)
		if derr != nil {
			return derr
		}
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.Date == date {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}

	if len(sessions) == 0 {
		ctx.println("No sessions found")
		return nil
	}

	total := 0.0
	ctx.println(headerStyle.Render("Sessions:"))
	for _, s := range sessions {
		kind := ""
		if s.IsPomodoro {
			kind = mutedStyle.Render(" (pomodoro)")
		}
		ctx.printf("  %s  %-28s %7s%s\n", s.Date, s.Name, formatHours(s.Duration), kind)
		if s.Notes != "" {
			ctx.printf("              %s\n", mutedStyle.Render(s.Notes))
		}
		total += s.Duration
	}
	ctx.printf("\n  %s\n", fmt.Sprintf("%d session(s), %s total", len(sessions), formatHours(total)))
	return nil
}
