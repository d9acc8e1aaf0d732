package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock is the single source of "now" for the timer and the schedule.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock. Values carry a monotonic reading, so
// differences between them are immune to wall-clock adjustments.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// IDGenerator produces unique identifiers for blocks, categories and sessions.
type IDGenerator interface {
	New() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) New() string {
	return uuid.New().String()
}

// MinuteOfDay returns the number of minutes since local midnight for t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DateKey formats t as the per-day storage key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
