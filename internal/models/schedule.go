package models

import "time"

type BlockType string

const (
	BlockTypeStudy    BlockType = "study"
	BlockTypeBreak    BlockType = "break"
	BlockTypeHobby    BlockType = "hobby"
	BlockTypeActivity BlockType = "activity"
	BlockTypeLife     BlockType = "life"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeStudy, BlockTypeBreak, BlockTypeHobby, BlockTypeActivity, BlockTypeLife:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank orders priorities for sort tie-breaks; lower ranks sort first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type BlockStatus string

const (
	StatusUpcoming   BlockStatus = "upcoming"
	StatusInProgress BlockStatus = "in-progress"
	StatusCompleted  BlockStatus = "completed"
	StatusSkipped    BlockStatus = "skipped"
)

// Sticky reports whether the status was set by the user and must never be
// overwritten by reconciliation.
func (s BlockStatus) Sticky() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// ScheduleBlock is a planned, time-boxed activity within one day. The JSON
// field names are the export/import wire format.
type ScheduleBlock struct {
	ID           string      `json:"id"`
	StartTime    string      `json:"startTime"` // HH:MM format
	EndTime      string      `json:"endTime"`   // HH:MM format; before StartTime means overnight
	CategoryName string      `json:"categoryName"`
	Duration     float64     `json:"duration"` // hours, derived from StartTime/EndTime
	Type         BlockType   `json:"type"`
	Priority     Priority    `json:"priority"`
	Status       BlockStatus `json:"status"`
	Description  string      `json:"description,omitempty"`
	Pomodoros    int         `json:"pomodoros,omitempty"`
}

// ScheduleRecord is the persisted shape of one calendar day.
type ScheduleRecord struct {
	Blocks   []ScheduleBlock `json:"blocks"`
	DayTheme string          `json:"dayTheme,omitempty"`
}

// DailySchedule is the materialised view of one calendar day.
type DailySchedule struct {
	Date         string          `json:"date"` // YYYY-MM-DD format
	Day          string          `json:"day"`  // lowercase weekday name
	DayTheme     string          `json:"dayTheme,omitempty"`
	Blocks       []ScheduleBlock `json:"blocks"`
	IsCustomized bool            `json:"isCustomized"`
}

// Record strips the derived fields for persistence.
func (d DailySchedule) Record() ScheduleRecord {
	return ScheduleRecord{Blocks: d.Blocks, DayTheme: d.DayTheme}
}

// DayTemplate is the default block set for one weekday.
type DayTemplate struct {
	Theme  string          `json:"theme,omitempty"`
	Blocks []ScheduleBlock `json:"blocks"`
}

// WeeklyTemplate maps lowercase weekday names to their default blocks.
type WeeklyTemplate struct {
	Version int                    `json:"version"`
	Days    map[string]DayTemplate `json:"days"`
}

// DayName returns the lowercase weekday name used as a template key.
func DayName(wd time.Weekday) string {
	switch wd {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}
