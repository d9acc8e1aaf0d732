package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/tracker"
)

type CategoryCmd struct {
	Add      CategoryAddCmd      `cmd:"" help:"Add a study category."`
	List     CategoryListCmd     `cmd:"" help:"List categories with progress and earnings."`
	Edit     CategoryEditCmd     `cmd:"" help:"Edit a category."`
	Delete   CategoryDeleteCmd   `cmd:"" help:"Delete a category and its sessions."`
	Withdraw CategoryWithdrawCmd `cmd:"" help:"Withdraw earnings once the monthly target is met."`
	Archive  CategoryArchiveCmd  `cmd:"" help:"Archive or unarchive a category."`
}

// formatMoney renders an amount in the configured display currency.
func (ctx *Context) formatMoney(usd, mmk float64) string {
	if ctx.Config != nil && strings.EqualFold(ctx.Config.Currency.Display, "MMK") {
		return fmt.Sprintf("%.0f MMK", mmk)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2fh", h)
}

type CategoryAddCmd struct {
	Name     string  `arg:"" help:"Category name."`
	Emoji    string  `help:"Emoji shown next to the name."`
	Priority string  `help:"Priority (high, medium, low)." enum:"high,medium,low" default:"medium"`
	Rate     float64 `help:"Hourly rate in USD."`
	RateMMK  float64 `name:"rate-mmk" help:"Hourly rate in MMK (defaults to the USD rate converted)."`
	Total    float64 `help:"Total target in hours."`
	Monthly  float64 `help:"Monthly target in hours."`
	Daily    float64 `help:"Daily target in hours."`
}

func (c *CategoryAddCmd) Run(ctx *Context) error {
	cat, err := ctx.Tracker.CreateCategory(tracker.CategoryInput{
		Name:          c.Name,
		Emoji:         c.Emoji,
		Priority:      models.Priority(c.Priority),
		HourlyRateUSD: c.Rate,
		HourlyRateMMK: c.RateMMK,
		TotalTarget:   c.Total,
		MonthlyTarget: c.Monthly,
		DailyTarget:   c.Daily,
	})
	if err != nil {
		return err
	}
	ctx.printf("%s Added category %s (%s)\n", okStyle.Render("✓"), cat.Name, cat.ID)
	return nil
}

type CategoryListCmd struct {
	All bool `help:"Include archived categories."`
}

func (c *CategoryListCmd) Run(ctx *Context) error {
	cats, err := ctx.Tracker.ListCategories()
	if err != nil {
		return err
	}

	shown := 0
	for _, cat := range cats {
		if cat.Archived && !c.All {
			continue
		}
		if shown == 0 {
			ctx.println(headerStyle.Render("Categories:"))
		}
		shown++

		name := cat.Name
		if cat.Emoji != "" {
			name = cat.Emoji + " " + name
		}
		if cat.Archived {
			name += mutedStyle.Render(" (archived)")
		}
		if ctx.Tracker.HasActiveTimer(cat.ID) {
			name += activeStyle.Render(" [timing]")
		}
		ctx.printf("  %s  %s\n", name, mutedStyle.Render(cat.ID))
		ctx.printf("      today %s", formatHours(cat.TodayStudied))
		if cat.DailyTarget > 0 {
			ctx.printf(" / %s", formatHours(cat.DailyTarget))
		}
		ctx.printf("  month %s", formatHours(cat.MonthStudied))
		if cat.MonthlyTarget > 0 {
			ctx.printf(" / %s", formatHours(cat.MonthlyTarget))
		}
		ctx.printf("  total %s", formatHours(cat.TotalStudied))
		if cat.TotalTarget > 0 {
			ctx.printf(" / %s", formatHours(cat.TotalTarget))
		}
		ctx.printf("\n      earned %s  pomodoros %d", ctx.formatMoney(cat.EarnedUSD, cat.EarnedMMK), cat.PomodoroCount)
		if cat.CanWithdraw {
			ctx.printf("  %s", okStyle.Render("withdrawable"))
		}
		ctx.println()
	}
	if shown == 0 {
		ctx.println("No categories found")
	}
	return nil
}

type CategoryEditCmd struct {
	Category string  `arg:"" help:"Category id or name."`
	Name     string  `help:"New name."`
	Emoji    string  `help:"New emoji."`
	Priority string  `help:"New priority (high, medium, low)."`
	Rate     float64 `help:"New hourly rate in USD." default:"-1"`
	RateMMK  float64 `name:"rate-mmk" help:"New hourly rate in MMK." default:"-1"`
	Total    float64 `help:"New total target in hours." default:"-1"`
	Monthly  float64 `help:"New monthly target in hours." default:"-1"`
	Daily    float64 `help:"New daily target in hours." default:"-1"`
}

func (c *CategoryEditCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}

	in := tracker.CategoryInput{
		Name:          cat.Name,
		Emoji:         cat.Emoji,
		Priority:      cat.Priority,
		HourlyRateUSD: cat.HourlyRateUSD,
		HourlyRateMMK: cat.HourlyRateMMK,
		TotalTarget:   cat.TotalTarget,
		MonthlyTarget: cat.MonthlyTarget,
		DailyTarget:   cat.DailyTarget,
	}
	if c.Name != "" {
		in.Name = c.Name
	}
	if c.Emoji != "" {
		in.Emoji = c.Emoji
	}
	if c.Priority != "" {
		in.Priority = models.Priority(c.Priority)
	}
	if c.Rate >= 0 {
		in.HourlyRateUSD = c.Rate
		if c.RateMMK < 0 {
			in.HourlyRateMMK = 0
		}
	}
	if c.RateMMK >= 0 {
		in.HourlyRateMMK = c.RateMMK
	}
	if c.Total >= 0 {
		in.TotalTarget = c.Total
	}
	if c.Monthly >= 0 {
		in.MonthlyTarget = c.Monthly
	}
	if c.Daily >= 0 {
		in.DailyTarget = c.Daily
	}

	updated, err := ctx.Tracker.UpdateCategory(cat.ID, in)
	if err != nil {
		return err
	}
	ctx.printf("%s Updated category %s\n", okStyle.Render("✓"), updated.Name)
	return nil
}

type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category id or name."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CategoryDeleteCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}
	if !c.Yes && !ctx.confirm(fmt.Sprintf("Delete %s and all of its sessions?", cat.Name)) {
		ctx.println("Delete cancelled.")
		return nil
	}
	if err := ctx.Tracker.DeleteCategory(cat.ID); err != nil {
		return err
	}
	ctx.printf("%s Deleted category %s\n", okStyle.Render("✓"), cat.Name)
	return nil
}

type CategoryWithdrawCmd struct {
	Category string `arg:"" help:"Category id or name."`
}

func (c *CategoryWithdrawCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}
	w, err := ctx.Tracker.Withdraw(cat.ID)
	if err != nil {
		return err
	}
	ctx.printf("%s Withdrew $%.2f (%.0f MMK) from %s\n", okStyle.Render("✓"), w.USD, w.MMK, cat.Name)
	return nil
}

type CategoryArchiveCmd struct {
	Category string `arg:"" help:"Category id or name."`
	Undo     bool   `help:"Unarchive instead."`
}

func (c *CategoryArchiveCmd) Run(ctx *Context) error {
	cat, err := ctx.resolveCategory(c.Category)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.SetArchived(cat.ID, !c.Undo); err != nil {
		return err
	}
	verb := "Archived"
	if c.Undo {
		verb = "Unarchived"
	}
	ctx.printf("%s %s %s\n", okStyle.Render("✓"), verb, cat.Name)
	return nil
}
