package cli

type TodayCmd struct {
	Date string `arg:"" optional:"" help:"Date to summarise (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *TodayCmd) Run(ctx *Context) error {
	date, err := ctx.parseDate(c.Date)
	if err != nil {
		return err
	}
	focus, err := ctx.Tracker.DailyFocus(date)
	if err != nil {
		return err
	}

	ctx.printf("%s\n\n", headerStyle.Render("Focus for "+date))
	if len(focus.Entries) == 0 {
		ctx.println("  Nothing studied yet")
		return nil
	}

	for _, e := range focus.Entries {
		name := e.Category.Name
		if e.Category.Emoji != "" {
			name = e.Category.Emoji + " " + name
		}
		ctx.printf("  %-24s %7s  %s", name, formatHours(e.Hours), ctx.formatMoney(e.EarnedUSD, e.EarnedMMK))
		if e.Category.DailyTarget > 0 {
			style := warnStyle
			if e.TargetPercent >= 100 {
				style = okStyle
			}
			ctx.printf("  %s", style.Render(formatPercent(e.TargetPercent)+" of daily target"))
		}
		ctx.println()
	}
	ctx.printf("\n  Total %s  earned %s\n", formatHours(focus.TotalHours), ctx.formatMoney(focus.EarnedUSD, focus.EarnedMMK))
	return nil
}
