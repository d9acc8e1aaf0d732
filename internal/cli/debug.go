package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/studylit/internal/tracker"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show storage path."`
	DumpSchedule *DebugDumpScheduleCmd `cmd:"" help:"Dump a day's schedule as JSON."`
	DumpCategory *DebugDumpCategoryCmd `cmd:"" help:"Dump a category and its sessions as JSON."`
	Timer        *DebugTimerCmd        `cmd:"" help:"Dump the in-process timer state as JSON."`
}

func (ctx *Context) printJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return ctx.printJSON(map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpScheduleCmd struct {
	Date string `arg:"" help:"Date of the schedule to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpScheduleCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(cmd.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Timetable.Load(date)
	if err != nil {
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	return ctx.printJSON(d)
}

type DebugDumpCategoryCmd struct {
	ID string `arg:"" help:"Id or name of the category to dump."`
}

func (cmd *DebugDumpCategoryCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(cmd.ID)
	if err != nil {
		if errors.Is(err, tracker.ErrCategoryNotFound) {
			return fmt.Errorf("category not found: %s", cmd.ID)
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	sessions, err := ctx.Tracker.SessionsByCategory(cat.ID)
	if err != nil {
		return fmt.Errorf("failed to get sessions: %w", err)
	}
	return ctx.printJSON(map[string]any{
		"category": cat,
		"sessions": sessions,
	})
}

type DebugTimerCmd struct{}

func (cmd *DebugTimerCmd) Run(ctx *Context) error {
	return ctx.printJSON(ctx.Tracker.Tick())
}
