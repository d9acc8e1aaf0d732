package storage

import (
	"errors"

	"github.com/julianstephens/studylit/internal/models"
)

// ErrNotFound is returned by getters when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Provider is the persistence boundary for categories, sessions and
// schedules. Every backend satisfies it; the backend is chosen once at
// construction.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Categories
	CreateCategory(models.Category) error
	UpdateCategory(models.Category) error
	GetCategory(id string) (models.Category, error)
	GetAllCategories() ([]models.Category, error)
	// DeleteCategory removes the category and its sessions.
	DeleteCategory(id string) error

	// Sessions
	CreateSession(models.Session) error
	GetSession(id string) (models.Session, error)
	GetSessionsByCategory(categoryID string) ([]models.Session, error)
	GetSessionsByDate(date string) ([]models.Session, error)
	GetAllSessions() ([]models.Session, error)
	DeleteSession(id string) error

	// Schedules, keyed by YYYY-MM-DD date
	SaveSchedule(date string, record models.ScheduleRecord) error
	GetSchedule(date string) (models.ScheduleRecord, error)
	DeleteSchedule(date string) error
	ListScheduleDates() ([]string, error)
	// DeleteSchedulesBefore removes every schedule dated strictly before date
	// and returns how many were removed.
	DeleteSchedulesBefore(date string) (int, error)

	// Weekly template
	GetTemplate() (models.WeeklyTemplate, error)
	SaveTemplate(models.WeeklyTemplate) error

	// Utils
	GetConfigPath() string
}
