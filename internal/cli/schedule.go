package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
	"github.com/julianstephens/studylit/internal/transfer"
)

type ScheduleCmd struct {
	Show     ScheduleShowCmd     `cmd:"" help:"Show the schedule of a day." default:"1"`
	Now      ScheduleNowCmd      `cmd:"" help:"Show the current and next block."`
	Add      ScheduleAddCmd      `cmd:"" help:"Add a block."`
	Edit     ScheduleEditCmd     `cmd:"" help:"Edit a block."`
	Delete   ScheduleDeleteCmd   `cmd:"" help:"Delete a block."`
	Complete ScheduleCompleteCmd `cmd:"" help:"Mark a block completed."`
	Skip     ScheduleSkipCmd     `cmd:"" help:"Mark a block skipped."`
	Start    ScheduleStartCmd    `cmd:"" help:"Mark a block in progress."`
	Theme    ScheduleThemeCmd    `cmd:"" help:"Set the theme of a day."`
	Reset    ScheduleResetCmd    `cmd:"" help:"Discard edits and return to the weekly template."`
	Copy     ScheduleCopyCmd     `cmd:"" help:"Copy the blocks of one day onto another."`
	Export   ScheduleExportCmd   `cmd:"" help:"Export a day as JSON to the clipboard or a file."`
	Import   ScheduleImportCmd   `cmd:"" help:"Import a day from JSON in the clipboard or a file."`
	Validate ScheduleValidateCmd `cmd:"" help:"Check a day for invalid and overlapping blocks."`
	Progress ScheduleProgressCmd `cmd:"" help:"Show completion progress of a day."`
	Cleanup  ScheduleCleanupCmd  `cmd:"" help:"Delete saved schedules older than the retention window."`
}

// DateFlag selects the day a schedule command works on.
type DateFlag struct {
	Date string `short:"d" help:"Day to work on (YYYY-MM-DD, 'today', 'tomorrow' or 'yesterday')." default:"today"`
}

// nowMinute is the minute of day to reconcile date against. Days other
// than today are shown as they are stored.
func (ctx *Context) nowMinute(date string) (int, bool) {
	now := ctx.now()
	if clock.DateKey(now) != date {
		return 0, false
	}
	return clock.MinuteOfDay(now), true
}

func (ctx *Context) printBlock(b models.ScheduleBlock, current bool) {
	marker := "  "
	if current {
		marker = activeStyle.Render("▶ ")
	}
	status := statusStyle(b.Status).Render(fmt.Sprintf("[%s]", b.Status))
	ctx.printf("%s%-13s %6s  %-18s %s", marker, schedule.FormatRange(b), schedule.FormatDuration(b.Duration), b.CategoryName, status)
	if b.Pomodoros > 0 {
		ctx.printf(" %d🍅", b.Pomodoros)
	}
	ctx.printf("  %s\n", mutedStyle.Render(b.ID))
	if b.Description != "" {
		ctx.printf("                  %s\n", mutedStyle.Render(b.Description))
	}
}

func (ctx *Context) printConflicts(conflicts []models.ScheduleBlock) {
	if len(conflicts) == 0 {
		return
	}
	ctx.println(warnStyle.Render(fmt.Sprintf("⚠ Overlaps %d block(s):", len(conflicts))))
	for _, c := range conflicts {
		ctx.printf("    %s %s\n", schedule.FormatRange(c), c.CategoryName)
	}
}

type ScheduleShowCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *ScheduleShowCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Timetable.Load(date)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s", capitalize(d.Day), d.Date)
	if d.DayTheme != "" {
		title += ": " + d.DayTheme
	}
	ctx.println(headerStyle.Render(title))
	if !d.IsCustomized {
		ctx.println(mutedStyle.Render("(weekly template)"))
	}
	ctx.println()

	if len(d.Blocks) == 0 {
		ctx.println("  No blocks scheduled")
		return nil
	}

	blocks := d.Blocks
	now, isToday := ctx.nowMinute(date)
	var current models.ScheduleBlock
	var hasCurrent bool
	if isToday {
		blocks, _ = schedule.Reconcile(blocks, now)
		current, hasCurrent = schedule.CurrentBlock(blocks, now)
	}
	for _, b := range schedule.Sorted(blocks) {
		ctx.printBlock(b, hasCurrent && b.ID == current.ID)
	}

	count, hours := schedule.CountProgress(blocks), schedule.TimeProgress(blocks)
	ctx.printf("\n  %d/%d blocks, %s of %s completed (%s)\n",
		int(count.Completed), int(count.Total),
		schedule.FormatDuration(hours.Completed), schedule.FormatDuration(hours.Total),
		formatPercent(hours.Percentage))
	return nil
}

type ScheduleNowCmd struct{}

func (c *ScheduleNowCmd) Run(ctx *Context) error {
	now := ctx.now()
	date, minute := clock.DateKey(now), clock.MinuteOfDay(now)
	d, err := ctx.Timetable.Load(date)
	if err != nil {
		return err
	}
	blocks, _ := schedule.Reconcile(d.Blocks, minute)

	if cur, ok := schedule.CurrentBlock(blocks, minute); ok {
		ctx.printf("%s %s %s  %s\n", headerStyle.Render("Now:"), cur.CategoryName,
			schedule.FormatRange(cur), mutedStyle.Render(schedule.Remaining(cur, minute)))
		if cur.Description != "" {
			ctx.printf("     %s\n", cur.Description)
		}
	} else {
		ctx.printf("%s %s\n", headerStyle.Render("Now:"), mutedStyle.Render("free time"))
		if prev, ok := schedule.PreviousBlock(blocks, minute); ok {
			ctx.printf("     last: %s %s [%s]\n", prev.CategoryName, schedule.FormatRange(prev), prev.Status)
		}
	}

	if next, ok := schedule.NextBlock(blocks, minute); ok {
		ctx.printf("%s %s %s  %s\n", headerStyle.Render("Next:"), next.CategoryName,
			schedule.FormatRange(next), mutedStyle.Render("in "+schedule.TimeUntil(next, minute)))
	} else {
		ctx.printf("%s %s\n", headerStyle.Render("Next:"), mutedStyle.Render("nothing else today"))
	}
	return nil
}

type ScheduleAddCmd struct {
	DateFlag `embed:""`
	Start       string `arg:"" help:"Start time (HH:MM)."`
	End         string `arg:"" help:"End time (HH:MM); earlier than start means overnight."`
	Category    string `arg:"" help:"Category name."`
	Type        string `short:"t" help:"Block type (study, break, hobby, activity, life)." default:"study"`
	Priority    string `short:"p" help:"Priority (high, medium, low)." default:"medium"`
	Description string `help:"Optional description."`
}

func (c *ScheduleAddCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	b, conflicts, err := ctx.Timetable.AddBlock(date, schedule.BlockInput{
		StartTime:    c.Start,
		EndTime:      c.End,
		CategoryName: c.Category,
		Type:         models.BlockType(c.Type),
		Priority:     models.Priority(c.Priority),
		Description:  c.Description,
	})
	if err != nil {
		return err
	}
	ctx.printf("%s Added %s %s (%s)\n", okStyle.Render("✓"), schedule.FormatRange(b), b.CategoryName, b.ID)
	ctx.printConflicts(conflicts)
	return nil
}

type ScheduleEditCmd struct {
	DateFlag `embed:""`
	ID          string `arg:"" help:"Block id."`
	Start       string `help:"New start time (HH:MM)."`
	End         string `help:"New end time (HH:MM)."`
	Category    string `help:"New category name."`
	Type        string `short:"t" help:"New block type."`
	Priority    string `short:"p" help:"New priority."`
	Description string `help:"New description."`
}

func (c *ScheduleEditCmd) patch() schedule.BlockPatch {
	var p schedule.BlockPatch
	if c.Start != "" {
		p.StartTime = &c.Start
	}
	if c.End != "" {
		p.EndTime = &c.End
	}
	if c.Category != "" {
		p.CategoryName = &c.Category
	}
	if c.Type != "" {
		t := models.BlockType(c.Type)
		p.Type = &t
	}
	if c.Priority != "" {
		pr := models.Priority(c.Priority)
		p.Priority = &pr
	}
	if c.Description != "" {
		p.Description = &c.Description
	}
	return p
}

func (c *ScheduleEditCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	b, conflicts, err := ctx.Timetable.UpdateBlock(date, c.ID, c.patch())
	if err != nil {
		return err
	}
	ctx.printf("%s Updated %s %s (%s)\n", okStyle.Render("✓"), schedule.FormatRange(b), b.CategoryName, schedule.FormatDuration(b.Duration))
	ctx.printConflicts(conflicts)
	return nil
}

type ScheduleDeleteCmd struct {
	DateFlag `embed:""`
	ID string `arg:"" help:"Block id."`
}

func (c *ScheduleDeleteCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Timetable.DeleteBlock(date, c.ID); err != nil {
		return err
	}
	ctx.printf("%s Deleted block %s\n", okStyle.Render("✓"), c.ID)
	return nil
}

type ScheduleCompleteCmd struct {
	DateFlag `embed:""`
	ID string `arg:"" help:"Block id."`
}

func (c *ScheduleCompleteCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Timetable.MarkCompleted(date, c.ID); err != nil {
		return err
	}
	ctx.printf("%s Completed %s\n", okStyle.Render("✓"), c.ID)
	return nil
}

type ScheduleSkipCmd struct {
	DateFlag `embed:""`
	ID string `arg:"" help:"Block id."`
}

func (c *ScheduleSkipCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Timetable.MarkSkipped(date, c.ID); err != nil {
		return err
	}
	ctx.printf("%s Skipped %s\n", okStyle.Render("✓"), c.ID)
	return nil
}

type ScheduleStartCmd struct {
	DateFlag `embed:""`
	ID string `arg:"" help:"Block id."`
}

func (c *ScheduleStartCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Timetable.MarkInProgress(date, c.ID); err != nil {
		return err
	}
	ctx.printf("%s Started %s\n", okStyle.Render("✓"), c.ID)
	return nil
}

type ScheduleThemeCmd struct {
	DateFlag `embed:""`
	Theme string `arg:"" help:"Theme of the day; empty clears it."`
}

func (c *ScheduleThemeCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Timetable.SetDayTheme(date, c.Theme); err != nil {
		return err
	}
	ctx.printf("%s Theme of %s set\n", okStyle.Render("✓"), date)
	return nil
}

type ScheduleResetCmd struct {
	DateFlag `embed:""`
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ScheduleResetCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	if !c.Yes && !ctx.confirm(fmt.Sprintf("Discard all changes to %s?", date)) {
		ctx.println("Reset cancelled.")
		return nil
	}
	d, err := ctx.Timetable.ResetToDefault(date)
	if err != nil {
		return err
	}
	ctx.printf("%s %s reset to the %s template (%d blocks)\n", okStyle.Render("✓"), date, d.Day, len(d.Blocks))
	return nil
}

type ScheduleCopyCmd struct {
	From string `arg:"" help:"Day to copy from."`
	To   string `arg:"" optional:"" help:"Day to copy onto." default:"today"`
}

func (c *ScheduleCopyCmd) Run(ctx *Context) error {
	from, err := ctx.parseDate(c.From)
	if err != nil {
		return err
	}
	to, err := ctx.parseDate(c.To)
	if err != nil {
		return err
	}
	d, err := ctx.Timetable.CopyFromDate(from, to)
	if err != nil {
		return err
	}
	ctx.printf("%s Copied %d block(s) from %s to %s\n", okStyle.Render("✓"), len(d.Blocks), from, to)
	return nil
}

type ScheduleExportCmd struct {
	DateFlag `embed:""`
	File string `short:"f" help:"Write to this file instead of the clipboard ('-' for clipboard)."`
}

func (c *ScheduleExportCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	src := transfer.Source{Path: c.File, Clipboard: ctx.clipboard()}
	if err := transfer.Export(ctx.Timetable, src, date); err != nil {
		return err
	}
	dest := "clipboard"
	if c.File != "" && c.File != "-" {
		dest = c.File
	}
	ctx.printf("%s Exported %s to %s\n", okStyle.Render("✓"), date, dest)
	return nil
}

type ScheduleImportCmd struct {
	DateFlag `embed:""`
	File string `short:"f" help:"Read from this file instead of the clipboard ('-' for clipboard)."`
}

func (c *ScheduleImportCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	src := transfer.Source{Path: c.File, Clipboard: ctx.clipboard()}
	d, err := transfer.Import(ctx.Timetable, src, date)
	if err != nil {
		return err
	}
	ctx.printf("%s Imported %d block(s) into %s\n", okStyle.Render("✓"), len(d.Blocks), date)
	return nil
}

type ScheduleValidateCmd struct {
	DateFlag `embed:""`
}

func (c *ScheduleValidateCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	res, pairs, err := ctx.Timetable.Validate(date)
	if err != nil {
		return err
	}

	ctx.printf("Validating %s...\n\n", date)
	if !res.HasIssues() && len(pairs) == 0 {
		ctx.println(okStyle.Render("✓ No issues found"))
		return nil
	}
	if res.HasIssues() {
		ctx.println(res.FormatReport())
	}
	if len(pairs) > 0 {
		ctx.println(warnStyle.Render(fmt.Sprintf("⚠ %d overlapping pair(s):", len(pairs))))
		for _, p := range pairs {
			ctx.printf("    %s %s  <->  %s %s\n",
				schedule.FormatRange(p[0]), p[0].CategoryName,
				schedule.FormatRange(p[1]), p[1].CategoryName)
		}
	}
	// Overlaps are allowed; only invalid blocks fail the command.
	return res.Err()
}

type ScheduleProgressCmd struct {
	DateFlag `embed:""`
}

func (c *ScheduleProgressCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Timetable.Load(date)
	if err != nil {
		return err
	}
	count, hours := schedule.CountProgress(d.Blocks), schedule.TimeProgress(d.Blocks)
	ctx.printf("%s\n", headerStyle.Render("Progress for "+date))
	ctx.printf("  Blocks: %d/%d  %s  %s\n", int(count.Completed), int(count.Total), progressBar(count.Percentage, 20), formatPercent(count.Percentage))
	ctx.printf("  Time:   %s/%s  %s  %s\n", schedule.FormatDuration(hours.Completed), schedule.FormatDuration(hours.Total), progressBar(hours.Percentage, 20), formatPercent(hours.Percentage))
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return okStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

type ScheduleCleanupCmd struct {
	Days int `help:"Retention window in days (defaults to the configured value)."`
}

func (c *ScheduleCleanupCmd) Run(ctx *Context) error {
	days := c.Days
	if days <= 0 && ctx.Config != nil {
		days = ctx.Config.RetentionDays
	}
	n, err := ctx.Timetable.Cleanup(days)
	if err != nil {
		return err
	}
	ctx.printf("%s Removed %d old schedule(s)\n", okStyle.Render("✓"), n)
	return nil
}
