package models

import "time"

// Category is a subject of study with its targets and accumulated totals.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Emoji         string    `json:"emoji,omitempty"`
	Priority      Priority  `json:"priority"`
	HourlyRateUSD float64   `json:"hourly_rate_usd"`
	HourlyRateMMK float64   `json:"hourly_rate_mmk"`
	TotalTarget   float64   `json:"total_target"`   // hours
	MonthlyTarget float64   `json:"monthly_target"` // hours
	DailyTarget   float64   `json:"daily_target"`   // hours
	TotalStudied  float64   `json:"total_studied"`
	MonthStudied  float64   `json:"month_studied"`
	TodayStudied  float64   `json:"today_studied"`
	EarnedUSD     float64   `json:"earned_usd"`
	EarnedMMK     float64   `json:"earned_mmk"`
	PaidHours     float64   `json:"paid_hours"` // studied hours already withdrawn
	CanWithdraw   bool      `json:"can_withdraw"`
	PomodoroCount int       `json:"pomodoro_count"`
	Archived      bool      `json:"archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Recalculate refreshes the fields derived from studied hours. Only hours
// not yet paid out by a withdrawal earn money.
func (c *Category) Recalculate() {
	unpaid := max(c.TotalStudied-c.PaidHours, 0)
	c.EarnedUSD = unpaid * c.HourlyRateUSD
	c.EarnedMMK = unpaid * c.HourlyRateMMK
	c.CanWithdraw = c.MonthlyTarget > 0 && c.MonthStudied >= c.MonthlyTarget
}

// AddStudy credits hours of study to the category.
func (c *Category) AddStudy(hours float64, today bool) {
	c.TotalStudied += hours
	c.MonthStudied += hours
	if today {
		c.TodayStudied += hours
	}
	c.Recalculate()
}

// Session is one persisted block of studied time.
type Session struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Duration   float64   `json:"duration"` // hours
	Date       string    `json:"date"`     // YYYY-MM-DD format
	IsPomodoro bool      `json:"is_pomodoro"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
