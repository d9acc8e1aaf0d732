package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
)

func validateClock(s string) error {
	if !schedule.ValidClock(strings.TrimSpace(s)) {
		return errors.New("use HH:MM (00:00-23:59)")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func newBlockForm(fm *BlockFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Start").
				Placeholder("09:00").
				Value(&fm.Start).
				Validate(validateClock),
			huh.NewInput().
				Title("End").
				Description("Earlier than start for an overnight block").
				Placeholder("11:00").
				Value(&fm.End).
				Validate(validateClock),
			huh.NewInput().
				Title("Category").
				Value(&fm.Category).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("category is required")
					}
					return nil
				}),
			huh.NewSelect[models.BlockType]().
				Title("Type").
				Options(
					huh.NewOption("Study", models.BlockTypeStudy),
					huh.NewOption("Break", models.BlockTypeBreak),
					huh.NewOption("Hobby", models.BlockTypeHobby),
					huh.NewOption("Activity", models.BlockTypeActivity),
					huh.NewOption("Life", models.BlockTypeLife),
				).
				Value(&fm.Type),
			huh.NewSelect[models.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("High", models.PriorityHigh),
					huh.NewOption("Medium", models.PriorityMedium),
					huh.NewOption("Low", models.PriorityLow),
				).
				Value(&fm.Priority),
			huh.NewInput().
				Title("Description").
				CharLimit(constants.MaxBlockDescriptionSize).
				Value(&fm.Description),
		),
	).WithTheme(huh.ThemeDracula())
}

func newSessionForm(fm *SessionFormModel, categoryName string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Log past session").
				Description(categoryName),
			huh.NewInput().
				Title("Date").
				Value(&fm.Date).
				Validate(validateDate),
			huh.NewInput().
				Title("Start").
				Placeholder("09:00").
				Value(&fm.Start).
				Validate(validateClock),
			huh.NewInput().
				Title("End").
				Placeholder("10:30").
				Value(&fm.End).
				Validate(validateClock),
			huh.NewInput().
				Title("Notes").
				Value(&fm.Notes),
		),
	).WithTheme(huh.ThemeDracula())
}
