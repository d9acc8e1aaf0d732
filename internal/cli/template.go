package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
)

type TemplateCmd struct {
	Show   TemplateShowCmd   `cmd:"" help:"Show the weekly template." default:"1"`
	Export TemplateExportCmd `cmd:"" help:"Write the weekly template as JSON."`
	Import TemplateImportCmd `cmd:"" help:"Replace the weekly template from JSON."`
}

var weekOrder = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type TemplateShowCmd struct {
	Day string `arg:"" optional:"" help:"Only show this weekday."`
}

func (c *TemplateShowCmd) Run(ctx *Context) error {
	t, err := ctx.Timetable.Template()
	if err != nil {
		return err
	}
	days := weekOrder
	if c.Day != "" {
		day := strings.ToLower(c.Day)
		if _, ok := t.Days[day]; !ok {
			return fmt.Errorf("no template for %q", c.Day)
		}
		days = []string{day}
	}

	for i, day := range days {
		td := t.Days[day]
		title := capitalize(day)
		if td.Theme != "" {
			title += ": " + td.Theme
		}
		if i > 0 {
			ctx.println()
		}
		ctx.println(headerStyle.Render(title))
		if len(td.Blocks) == 0 {
			ctx.println("  No blocks")
			continue
		}
		total := 0.0
		for _, b := range schedule.Sorted(td.Blocks) {
			ctx.printf("  %-13s %6s  %s\n", schedule.FormatRange(b), schedule.FormatDuration(b.Duration), b.CategoryName)
			total += b.Duration
		}
		ctx.printf("  %s\n", mutedStyle.Render(schedule.FormatDuration(total)+" planned"))
	}
	return nil
}

type TemplateExportCmd struct {
	File string `short:"f" help:"Write to this file instead of stdout."`
}

func (c *TemplateExportCmd) Run(ctx *Context) error {
	t, err := ctx.Timetable.Template()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if c.File == "" || c.File == "-" {
		ctx.println(string(data))
		return nil
	}
	if err := os.WriteFile(c.File, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.File, err)
	}
	ctx.printf("%s Template written to %s\n", okStyle.Render("✓"), c.File)
	return nil
}

type TemplateImportCmd struct {
	File string `arg:"" help:"JSON file holding the weekly template."`
}

func (c *TemplateImportCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	var t models.WeeklyTemplate
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if t.Version == 0 {
		t.Version = constants.TemplateVersion
	}
	for day, td := range t.Days {
		for i := range td.Blocks {
			b := &td.Blocks[i]
			b.Duration = schedule.Duration(b.StartTime, b.EndTime)
			if b.Type == "" {
				b.Type = constants.DefaultBlockType
			}
			if b.Priority == "" {
				b.Priority = constants.DefaultBlockPriority
			}
			b.Status = models.StatusUpcoming
		}
		t.Days[day] = td
	}
	if err := ctx.Timetable.SaveTemplate(t); err != nil {
		return err
	}
	ctx.printf("%s Template imported (%d days)\n", okStyle.Render("✓"), len(t.Days))
	return nil
}
