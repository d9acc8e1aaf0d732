// Package tracker owns categories, study sessions and the active timer.
package tracker

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/validation"
)

var (
	ErrNoActiveTimer    = errors.New("no active timer")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNotWithdrawable  = errors.New("monthly target not reached")
)

// CategoryInput is the user-editable part of a category.
type CategoryInput struct {
	Name          string
	Emoji         string
	Priority      models.Priority
	HourlyRateUSD float64
	// HourlyRateMMK defaults to HourlyRateUSD converted at the configured rate.
	HourlyRateMMK float64
	TotalTarget   float64
	MonthlyTarget float64
	DailyTarget   float64
}

// Service ties the timer engine to persisted categories and sessions.
type Service struct {
	store     storage.Provider
	engine    *timer.Engine
	clock     clock.Clock
	ids       clock.IDGenerator
	validator *validation.Validator
	usdToMMK  float64
	logger    *log.Logger

	// uncredited holds finished pomodoro cycles per category that could
	// not be saved yet.
	uncredited map[string]int
}

func NewService(store storage.Provider, engine *timer.Engine, clk clock.Clock, ids clock.IDGenerator, usdToMMK float64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if usdToMMK <= 0 {
		usdToMMK = constants.DefaultUSDToMMK
	}
	return &Service{
		store:      store,
		engine:     engine,
		clock:      clk,
		ids:        ids,
		validator:  validation.New(),
		usdToMMK:   usdToMMK,
		logger:     logger,
		uncredited: make(map[string]int),
	}
}

func (s *Service) today() string {
	return clock.DateKey(s.clock.Now())
}

func (s *Service) category(id string) (models.Category, error) {
	c, err := s.store.GetCategory(id)
	if errors.Is(err, storage.ErrNotFound) {
		return c, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return c, err
}

func (s *Service) apply(c *models.Category, in CategoryInput) {
	c.Name = strings.TrimSpace(in.Name)
	c.Emoji = in.Emoji
	c.Priority = in.Priority
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	c.HourlyRateUSD = in.HourlyRateUSD
	c.HourlyRateMMK = in.HourlyRateMMK
	if c.HourlyRateMMK == 0 {
		c.HourlyRateMMK = in.HourlyRateUSD * s.usdToMMK
	}
	c.TotalTarget = in.TotalTarget
	c.MonthlyTarget = in.MonthlyTarget
	c.DailyTarget = in.DailyTarget
	c.Recalculate()
}

func (s *Service) CreateCategory(in CategoryInput) (models.Category, error) {
	existing, err := s.store.GetAllCategories()
	if err != nil {
		return models.Category{}, err
	}
	now := s.clock.Now()
	c := models.Category{ID: s.ids.New(), CreatedAt: now, UpdatedAt: now}
	s.apply(&c, in)
	if err := s.validator.ValidateCategory(c, existing).Err(); err != nil {
		return models.Category{}, err
	}
	if err := s.store.CreateCategory(c); err != nil {
		return models.Category{}, err
	}
	s.logger.Info("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateCategory replaces the editable fields and recomputes earnings.
// Studied totals are kept.
func (s *Service) UpdateCategory(id string, in CategoryInput) (models.Category, error) {
	c, err := s.category(id)
	if err != nil {
		return c, err
	}
	existing, err := s.store.GetAllCategories()
	if err != nil {
		return c, err
	}
	s.apply(&c, in)
	if err := s.validator.ValidateCategory(c, existing).Err(); err != nil {
		return models.Category{}, err
	}
	c.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCategory(c); err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (s *Service) GetCategory(id string) (models.Category, error) {
	return s.category(id)
}

// ListCategories returns every category with TodayStudied derived from
// today's sessions, so the counter never carries over from a previous day.
func (s *Service) ListCategories() ([]models.Category, error) {
	cats, err := s.store.GetAllCategories()
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.GetSessionsByDate(s.today())
	if err != nil {
		return nil, err
	}
	hours := make(map[string]float64, len(cats))
	for _, sess := range sessions {
		hours[sess.CategoryID] += sess.Duration
	}
	for i := range cats {
		cats[i].TodayStudied = hours[cats[i].ID]
	}
	return cats, nil
}

// SetArchived hides or restores a category without touching its history.
func (s *Service) SetArchived(id string, archived bool) error {
	c, err := s.category(id)
	if err != nil {
		return err
	}
	c.Archived = archived
	c.UpdatedAt = s.clock.Now()
	return s.store.UpdateCategory(c)
}

// DeleteCategory removes a category and its sessions. A running timer for
// it is discarded.
func (s *Service) DeleteCategory(id string) error {
	if s.HasActiveTimer(id) {
		s.engine.Stop()
	}
	err := s.store.DeleteCategory(id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return err
}

// Withdrawal is the amount paid out by Withdraw.
type Withdrawal struct {
	CategoryID string
	USD        float64
	MMK        float64
}

// Withdraw pays out the earnings of a category once its monthly target is
// met and starts a new month of study.
func (s *Service) Withdraw(id string) (Withdrawal, error) {
	c, err := s.category(id)
	if err != nil {
		return Withdrawal{}, err
	}
	if !c.CanWithdraw {
		return Withdrawal{}, fmt.Errorf("%w: %s", ErrNotWithdrawable, c.Name)
	}
	w := Withdrawal{CategoryID: id, USD: c.EarnedUSD, MMK: c.EarnedMMK}
	c.PaidHours = c.TotalStudied
	c.EarnedUSD, c.EarnedMMK = 0, 0
	c.MonthStudied = 0
	c.CanWithdraw = false
	c.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCategory(c); err != nil {
		return Withdrawal{}, err
	}
	s.logger.Info("withdrawn", "category", c.Name, "usd", w.USD, "mmk", w.MMK)
	return w, nil
}

func (s *Service) HasActiveTimer(categoryID string) bool {
	sess, ok := s.engine.Session()
	return ok && sess.CategoryID == categoryID
}

// StartTimer starts timing a category. A session already running for
// another category is saved first; if that fails it keeps running and the
// new one is not started.
func (s *Service) StartTimer(categoryID string, pomodoro bool) error {
	if _, err := s.category(categoryID); err != nil {
		return err
	}
	if s.engine.Active() {
		if _, err := s.StopTimer(); err != nil {
			return fmt.Errorf("failed to save running session: %w", err)
		}
	}
	s.engine.Start(categoryID, pomodoro)
	s.logger.Info("timer started", "category", categoryID, "pomodoro", pomodoro)
	return nil
}

func (s *Service) PauseTimer() error {
	if !s.engine.Active() {
		return ErrNoActiveTimer
	}
	s.engine.Pause()
	return nil
}

func (s *Service) ResumeTimer() error {
	if !s.engine.Active() {
		return ErrNoActiveTimer
	}
	s.engine.Resume()
	return nil
}

// Tick reads the timer and credits finished pomodoro cycles to the
// category. Cycles that fail to save are retried on later ticks.
func (s *Service) Tick() timer.Reading {
	r := s.engine.Tick()
	if r.NewCycles > 0 {
		s.uncredited[r.CategoryID] += r.NewCycles
	}
	s.flushPomodoros()
	return r
}

// PendingPomodoros reports finished cycles not yet saved for a category.
func (s *Service) PendingPomodoros(categoryID string) int {
	return s.uncredited[categoryID]
}

func (s *Service) flushPomodoros() {
	for id, n := range s.uncredited {
		err := s.creditPomodoros(id, n)
		switch {
		case err == nil:
			delete(s.uncredited, id)
		case errors.Is(err, ErrCategoryNotFound):
			s.logger.Warn("dropping pomodoros for deleted category", "category", id, "cycles", n)
			delete(s.uncredited, id)
		default:
			s.logger.Warn("failed to record pomodoro, will retry", "category", id, "cycles", n, "error", err)
		}
	}
}

func (s *Service) creditPomodoros(categoryID string, n int) error {
	c, err := s.category(categoryID)
	if err != nil {
		return err
	}
	c.PomodoroCount += n
	c.UpdatedAt = s.clock.Now()
	return s.store.UpdateCategory(c)
}

// StopTimer persists the running session and only then clears the timer.
// When persisting fails the timer keeps running and the error is returned so
// the user can retry. A session with no elapsed time is discarded and nil is
// returned.
func (s *Service) StopTimer() (*models.Session, error) {
	sum, ok := s.engine.Peek()
	if !ok {
		return nil, ErrNoActiveTimer
	}
	if sum.Elapsed <= 0 {
		s.engine.Stop()
		s.logger.Info("timer stopped with no study time recorded", "category", sum.CategoryID)
		return nil, nil
	}

	sess, err := s.record(sum.CategoryID, sum.Hours(), clock.DateKey(sum.EndedAt), sum.Pomodoro, "")
	if err != nil {
		s.logger.Error("failed to save session, timer still running", "category", sum.CategoryID, "error", err)
		return nil, err
	}
	s.engine.Stop()
	s.flushPomodoros()
	return &sess, nil
}

// record saves a session and credits it to its category. If the category
// update fails the session is removed again so totals stay consistent.
func (s *Service) record(categoryID string, hours float64, date string, pomodoro bool, notes string) (models.Session, error) {
	c, err := s.category(categoryID)
	if err != nil {
		return models.Session{}, err
	}
	sess := models.Session{
		ID:         s.ids.New(),
		CategoryID: categoryID,
		Name:       fmt.Sprintf(constants.DefaultSessionNameFmt, c.Name),
		Duration:   hours,
		Date:       date,
		IsPomodoro: pomodoro,
		Notes:      notes,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.CreateSession(sess); err != nil {
		return models.Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	c.AddStudy(hours, date == s.today())
	c.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCategory(c); err != nil {
		if derr := s.store.DeleteSession(sess.ID); derr != nil {
			s.logger.Error("failed to roll back session", "session", sess.ID, "error", derr)
		}
		return models.Session{}, fmt.Errorf("failed to update category: %w", err)
	}
	s.logger.Info("session saved", "category", c.Name, "hours", hours, "date", date)
	return sess, nil
}

// AddPastSession logs study done without the timer. The range must be
// positive and may not cross midnight.
func (s *Service) AddPastSession(categoryID, date, start, end, notes string) (models.Session, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return models.Session{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	if err := s.validator.ValidateSessionRange(start, end).Err(); err != nil {
		return models.Session{}, err
	}
	minutes := schedule.ToMinutes(end) - schedule.ToMinutes(start)
	return s.record(categoryID, float64(minutes)/60, date, false, strings.TrimSpace(notes))
}

func (s *Service) SessionsByCategory(categoryID string) ([]models.Session, error) {
	return s.store.GetSessionsByCategory(categoryID)
}

func (s *Service) SessionsByDate(date string) ([]models.Session, error) {
	return s.store.GetSessionsByDate(date)
}

// FocusEntry is one category's share of a day's study.
type FocusEntry struct {
	Category  models.Category
	Hours     float64
	EarnedUSD float64
	EarnedMMK float64
	// TargetPercent is Hours against the daily target, 0 when none is set.
	TargetPercent float64
}

// Focus summarises the study of a single day.
type Focus struct {
	Date       string
	Entries    []FocusEntry
	TotalHours float64
	EarnedUSD  float64
	EarnedMMK  float64
}

// DailyFocus breaks down the study of date by category, most studied first.
// Categories with no study that day are left out.
func (s *Service) DailyFocus(date string) (Focus, error) {
	sessions, err := s.store.GetSessionsByDate(date)
	if err != nil {
		return Focus{}, err
	}
	cats, err := s.store.GetAllCategories()
	if err != nil {
		return Focus{}, err
	}
	byID := make(map[string]models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	hours := make(map[string]float64)
	for _, sess := range sessions {
		hours[sess.CategoryID] += sess.Duration
	}

	f := Focus{Date: date}
	for id, h := range hours {
		c, ok := byID[id]
		if !ok || h <= 0 {
			continue
		}
		e := FocusEntry{
			Category:  c,
			Hours:     h,
			EarnedUSD: h * c.HourlyRateUSD,
			EarnedMMK: h * c.HourlyRateMMK,
		}
		if c.DailyTarget > 0 {
			e.TargetPercent = h / c.DailyTarget * 100
		}
		f.Entries = append(f.Entries, e)
		f.TotalHours += h
		f.EarnedUSD += e.EarnedUSD
		f.EarnedMMK += e.EarnedMMK
	}
	sort.Slice(f.Entries, func(i, j int) bool {
		if f.Entries[i].Hours != f.Entries[j].Hours {
			return f.Entries[i].Hours > f.Entries[j].Hours
		}
		return f.Entries[i].Category.Name < f.Entries[j].Category.Name
	})
	return f, nil
}
