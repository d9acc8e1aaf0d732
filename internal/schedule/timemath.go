package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether s is a 24h HH:MM time of day.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ParseClock converts a validated HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	if !ValidClock(s) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM (00:00-23:59)", s)
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m, nil
}

// ToMinutes converts HH:MM to minutes since midnight. Input is assumed
// to be validated at the boundary; malformed strings yield 0.
func ToMinutes(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		return 0
	}
	return m
}

// FormatClock renders minutes since midnight as HH:MM, wrapping past 24h.
func FormatClock(minutes int) string {
	minutes = ((minutes % constants.MinutesPerDay) + constants.MinutesPerDay) % constants.MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// extendEnd returns end shifted past midnight when the range is overnight.
func extendEnd(start, end int) int {
	if end < start {
		return end + constants.MinutesPerDay
	}
	return end
}

// IsOvernight reports whether a range wraps past midnight.
func IsOvernight(start, end string) bool {
	return ToMinutes(end) < ToMinutes(start)
}

// DurationMinutes is the length of [start,end) in minutes, overnight-aware.
func DurationMinutes(start, end int) int {
	return extendEnd(start, end) - start
}

// Duration is the length of a block in hours. It is the only authority
// for block length; stored durations are always recomputed from it.
func Duration(start, end string) float64 {
	return float64(DurationMinutes(ToMinutes(start), ToMinutes(end))) / 60
}

// IsWithin reports whether current lies in the closed range [start,end],
// treating end < start as a range that continues past midnight.
func IsWithin(current, start, end int) bool {
	endExt := extendEnd(start, end)
	if current >= start {
		return current <= endExt
	}
	return current+constants.MinutesPerDay <= endExt
}

// IsActive is the half-open variant of IsWithin used for status
// reconciliation: a block stops being active at its end minute.
func IsActive(current, start, end int) bool {
	endExt := extendEnd(start, end)
	if current >= start {
		return current < endExt
	}
	return current+constants.MinutesPerDay < endExt
}

type span struct {
	start, end int
}

func blockSpan(b models.ScheduleBlock) span {
	s := ToMinutes(b.StartTime)
	return span{start: s, end: extendEnd(s, ToMinutes(b.EndTime))}
}

func (a span) overlaps(b span) bool {
	return a.start < b.end && b.start < a.end
}

func (a span) shift(d int) span {
	return span{start: a.start + d, end: a.end + d}
}

// rangesOverlap compares two ranges on a two-day axis. An overnight range
// also occupies the early minutes of the next day, so each side is checked
// against the other shifted by one day.
func rangesOverlap(a, b span) bool {
	return a.overlaps(b) ||
		a.shift(constants.MinutesPerDay).overlaps(b) ||
		a.overlaps(b.shift(constants.MinutesPerDay))
}
