package constants

import "time"

// Defaults for the focus timer and scheduling.
const (
	DefaultWorkMinutes      = 25
	DefaultBreakMinutes     = 5
	DefaultTimerTick        = 250 * time.Millisecond
	DefaultReconcileEvery   = 30 * time.Second
	DefaultRetentionDays    = 30
	DefaultUSDToMMK         = 4200.0
	DefaultCurrency         = "USD"
	TemplateVersion         = 1
	DefaultBlockType        = "study"
	DefaultBlockPriority    = "medium"
	DefaultSessionNameFmt   = "%s session"
	MaxCategoryNameLength   = 64
	MaxBlockDescriptionSize = 280
)

// Notification titles emitted on pomodoro phase transitions.
const (
	BreakStartTitle = "Break Time!"
	BreakStartBody  = "Time for a %d-minute break."
	BreakEndTitle   = "Break Over!"
	BreakEndBody    = "Time to get back to work."
)
