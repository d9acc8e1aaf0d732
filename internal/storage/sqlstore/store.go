// Package sqlstore implements the data methods of storage.Provider on top of
// database/sql. Backend packages embed Store and add their own lifecycle.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/studylit/internal/migration"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/storage"
)

// Store holds the open handle. The zero value reports "storage not loaded"
// from every method.
type Store struct {
	DB      *sql.DB
	Dialect migration.Dialect
}

var errNotLoaded = errors.New("storage not loaded")

func (s *Store) q(query string) string {
	return s.Dialect.Rebind(query)
}

func (s *Store) ready() error {
	if s.DB == nil {
		return errNotLoaded
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

const categoryColumns = `id, name, emoji, priority, hourly_rate_usd, hourly_rate_mmk,
	total_target, monthly_target, daily_target, total_studied, month_studied, today_studied,
	earned_usd, earned_mmk, paid_hours, can_withdraw, pomodoro_count, archived, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (models.Category, error) {
	var c models.Category
	var priority, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.Emoji, &priority, &c.HourlyRateUSD, &c.HourlyRateMMK,
		&c.TotalTarget, &c.MonthlyTarget, &c.DailyTarget, &c.TotalStudied, &c.MonthStudied, &c.TodayStudied,
		&c.EarnedUSD, &c.EarnedMMK, &c.PaidHours, &c.CanWithdraw, &c.PomodoroCount, &c.Archived, &createdAt, &updatedAt)
	if err != nil {
		return c, err
	}
	c.Priority = models.Priority(priority)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func categoryArgs(c models.Category) []any {
	return []any{c.ID, c.Name, c.Emoji, string(c.Priority), c.HourlyRateUSD, c.HourlyRateMMK,
		c.TotalTarget, c.MonthlyTarget, c.DailyTarget, c.TotalStudied, c.MonthStudied, c.TodayStudied,
		c.EarnedUSD, c.EarnedMMK, c.PaidHours, c.CanWithdraw, c.PomodoroCount, c.Archived,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt)}
}

func (s *Store) CreateCategory(c models.Category) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.Exec(s.q(`INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), categoryArgs(c)...)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *Store) UpdateCategory(c models.Category) error {
	if err := s.ready(); err != nil {
		return err
	}
	args := categoryArgs(c)
	// id moves from first to last for the WHERE clause
	args = append(args[1:], c.ID)
	res, err := s.DB.Exec(s.q(`UPDATE categories SET name = ?, emoji = ?, priority = ?,
		hourly_rate_usd = ?, hourly_rate_mmk = ?, total_target = ?, monthly_target = ?, daily_target = ?,
		total_studied = ?, month_studied = ?, today_studied = ?, earned_usd = ?, earned_mmk = ?,
		paid_hours = ?, can_withdraw = ?, pomodoro_count = ?, archived = ?, created_at = ?, updated_at = ?
		WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectRow(res, "category", c.ID)
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) GetCategory(id string) (models.Category, error) {
	if err := s.ready(); err != nil {
		return models.Category{}, err
	}
	row := s.DB.QueryRow(s.q(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`), id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	return c, err
}

func (s *Store) GetAllCategories() ([]models.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCategory(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.q(`DELETE FROM sessions WHERE category_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	res, err := tx.Exec(s.q(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := expectRow(res, "category", id); err != nil {
		return err
	}
	return tx.Commit()
}

const sessionColumns = `id, category_id, name, duration, date, is_pomodoro, notes, created_at`

func scanSession(row scanner) (models.Session, error) {
	var sess models.Session
	var createdAt string
	err := row.Scan(&sess.ID, &sess.CategoryID, &sess.Name, &sess.Duration, &sess.Date,
		&sess.IsPomodoro, &sess.Notes, &createdAt)
	if err != nil {
		return sess, err
	}
	sess.CreatedAt = parseTime(createdAt)
	return sess, nil
}

func (s *Store) CreateSession(sess models.Session) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.Exec(s.q(`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.CategoryID, sess.Name, sess.Duration, sess.Date, sess.IsPomodoro, sess.Notes,
		formatTime(sess.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id string) (models.Session, error) {
	if err := s.ready(); err != nil {
		return models.Session{}, err
	}
	sess, err := scanSession(s.DB.QueryRow(s.q(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return sess, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return sess, err
}

func (s *Store) querySessions(where string, args ...any) ([]models.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(s.q(`SELECT `+sessionColumns+` FROM sessions `+where+` ORDER BY date, created_at`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) GetSessionsByCategory(categoryID string) ([]models.Session, error) {
	return s.querySessions(`WHERE category_id = ?`, categoryID)
}

func (s *Store) GetSessionsByDate(date string) ([]models.Session, error) {
	return s.querySessions(`WHERE date = ?`, date)
}

func (s *Store) GetAllSessions() ([]models.Session, error) {
	return s.querySessions(``)
}

func (s *Store) DeleteSession(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.DB.Exec(s.q(`DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectRow(res, "session", id)
}

func (s *Store) SaveSchedule(date string, record models.ScheduleRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	blocks := record.Blocks
	if blocks == nil {
		blocks = []models.ScheduleBlock{}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}
	_, err = s.DB.Exec(s.q(`INSERT INTO schedules (date, day_theme, blocks, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET day_theme = excluded.day_theme, blocks = excluded.blocks,
		updated_at = excluded.updated_at`),
		date, record.DayTheme, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save schedule %s: %w", date, err)
	}
	return nil
}

func (s *Store) GetSchedule(date string) (models.ScheduleRecord, error) {
	if err := s.ready(); err != nil {
		return models.ScheduleRecord{}, err
	}
	var rec models.ScheduleRecord
	var raw string
	err := s.DB.QueryRow(s.q(`SELECT day_theme, blocks FROM schedules WHERE date = ?`), date).Scan(&rec.DayTheme, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("schedule %s: %w", date, storage.ErrNotFound)
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Blocks); err != nil {
		return rec, fmt.Errorf("failed to decode schedule %s: %w", date, err)
	}
	return rec, nil
}

func (s *Store) DeleteSchedule(date string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.Exec(s.q(`DELETE FROM schedules WHERE date = ?`), date)
	return err
}

func (s *Store) ListScheduleDates() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(`SELECT date FROM schedules ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) DeleteSchedulesBefore(date string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res, err := s.DB.Exec(s.q(`DELETE FROM schedules WHERE date < ?`), date)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up schedules: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) GetTemplate() (models.WeeklyTemplate, error) {
	if err := s.ready(); err != nil {
		return models.WeeklyTemplate{}, err
	}
	var t models.WeeklyTemplate
	var raw string
	err := s.DB.QueryRow(`SELECT version, days FROM templates WHERE id = 1`).Scan(&t.Version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("template: %w", storage.ErrNotFound)
	}
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(raw), &t.Days); err != nil {
		return t, fmt.Errorf("failed to decode template: %w", err)
	}
	return t, nil
}

func (s *Store) SaveTemplate(t models.WeeklyTemplate) error {
	if err := s.ready(); err != nil {
		return err
	}
	raw, err := json.Marshal(t.Days)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	_, err = s.DB.Exec(s.q(`INSERT INTO templates (id, version, days, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET version = excluded.version, days = excluded.days,
		updated_at = excluded.updated_at`),
		t.Version, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}
