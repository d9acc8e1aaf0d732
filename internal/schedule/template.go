package schedule

import (
	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
)

func tb(start, end, category string, prio models.Priority, desc string) models.ScheduleBlock {
	return models.ScheduleBlock{
		StartTime:    start,
		EndTime:      end,
		CategoryName: category,
		Duration:     Duration(start, end),
		Type:         models.BlockTypeStudy,
		Priority:     prio,
		Description:  desc,
		Status:       models.StatusUpcoming,
	}
}

// DefaultTemplate is the built-in weekly study plan used until the user
// saves their own.
func DefaultTemplate() models.WeeklyTemplate {
	const (
		jp     = "Japanese"
		devops = "Cloud DevOps"
		thesis = "Master Thesis"
		en     = "English"
		high   = models.PriorityHigh
		med    = models.PriorityMedium
		low    = models.PriorityLow
	)
	return models.WeeklyTemplate{
		Version: constants.TemplateVersion,
		Days: map[string]models.DayTemplate{
			"monday": {Blocks: []models.ScheduleBlock{
				tb("06:30", "09:30", jp, high, "Grammar, vocabulary, reading"),
				tb("09:45", "11:45", jp, high, "Listening, speaking"),
				tb("13:00", "16:00", devops, high, "Tutorial, hands-on practice"),
				tb("16:15", "17:15", thesis, med, "Research/writing"),
			}},
			"tuesday": {Blocks: []models.ScheduleBlock{
				tb("07:00", "08:00", jp, med, "Review previous day"),
				tb("09:00", "14:00", devops, high, "Deep dive, projects"),
				tb("15:00", "18:00", en, med, "Speaking, writing practice"),
			}},
			"wednesday": {Blocks: []models.ScheduleBlock{
				tb("06:30", "11:30", jp, high, "Intensive study session"),
				tb("13:00", "14:30", devops, low, "Light review"),
				tb("15:00", "18:00", thesis, high, "Writing, research"),
			}},
			"thursday": {Blocks: []models.ScheduleBlock{
				tb("07:00", "08:30", jp, med, "Morning review"),
				tb("09:00", "13:00", devops, high, "Practical work"),
				tb("14:00", "18:00", en, high, "Comprehensive practice"),
			}},
			"friday": {Blocks: []models.ScheduleBlock{
				tb("06:30", "12:30", jp, high, "Extended study session"),
				tb("14:00", "15:00", en, low, "Quick review"),
				tb("15:30", "17:30", thesis, med, "Weekly progress"),
			}},
			"saturday": {Blocks: []models.ScheduleBlock{
				tb("08:00", "10:00", jp, med, "Weekend practice"),
				tb("10:30", "15:30", devops, high, "Weekend deep dive"),
				tb("16:00", "17:00", en, low, "Light practice"),
			}},
			"sunday": {Blocks: []models.ScheduleBlock{
				tb("08:00", "09:30", jp, low, "Relaxed study"),
				tb("10:00", "11:30", devops, low, "Light review"),
				tb("14:00", "15:00", en, low, "Casual practice"),
				tb("15:30", "18:30", thesis, med, "Weekend planning"),
			}},
		},
	}
}

// Materialize copies a template day into fresh blocks: new ids, status
// reset to upcoming, durations recomputed.
func Materialize(ids clock.IDGenerator, blocks []models.ScheduleBlock) []models.ScheduleBlock {
	out := make([]models.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		b.ID = blockID(ids, b.CategoryName)
		b.Status = models.StatusUpcoming
		b.Duration = Duration(b.StartTime, b.EndTime)
		b.Pomodoros = 0
		out = append(out, b)
	}
	return out
}
