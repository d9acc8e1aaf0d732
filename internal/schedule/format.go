package schedule

import (
	"fmt"
	"math"
	"strconv"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
)

func FormatRange(b models.ScheduleBlock) string {
	return fmt.Sprintf("%s - %s", b.StartTime, b.EndTime)
}

// FormatDuration renders block hours as "45min" or "1.5h".
func FormatDuration(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%dmin", int(math.Round(hours*60)))
	}
	return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
}

func formatMinutes(m int) string {
	if h := m / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, m%60)
	}
	return fmt.Sprintf("%dm", m)
}

// TimeUntil describes how long until b starts, or "Now" once it has.
func TimeUntil(b models.ScheduleBlock, now int) string {
	diff := ToMinutes(b.StartTime) - now
	if diff <= 0 {
		return "Now"
	}
	return formatMinutes(diff)
}

// Remaining describes how much of b is left at now. Overnight blocks are
// measured against their post-midnight end.
func Remaining(b models.ScheduleBlock, now int) string {
	start := ToMinutes(b.StartTime)
	end := extendEnd(start, ToMinutes(b.EndTime))
	if now < start && end > constants.MinutesPerDay {
		now += constants.MinutesPerDay
	}
	diff := end - now
	if diff <= 0 {
		return "Finished"
	}
	return formatMinutes(diff) + " remaining"
}
