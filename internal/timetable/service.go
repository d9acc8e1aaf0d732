// Package timetable manages the per-date schedule lifecycle on top of the
// pure block math in package schedule.
package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/schedule"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/validation"
)

// Service loads, edits and persists daily schedules. Read-modify-write
// cycles are serialized so a background reconcile never overwrites an edit.
type Service struct {
	mu        sync.Mutex
	store     storage.Provider
	clock     clock.Clock
	ids       clock.IDGenerator
	validator *validation.Validator
	logger    *log.Logger
}

func NewService(store storage.Provider, clk clock.Clock, ids clock.IDGenerator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		store:     store,
		clock:     clk,
		ids:       ids,
		validator: validation.New(),
		logger:    logger,
	}
}

// Today returns the date key for the service clock.
func (s *Service) Today() string {
	return clock.DateKey(s.clock.Now())
}

func dayOf(date string) (string, error) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return models.DayName(t.Weekday()), nil
}

// Template returns the stored weekly template, or the built-in default
// when none has been saved.
func (s *Service) Template() (models.WeeklyTemplate, error) {
	t, err := s.store.GetTemplate()
	if errors.Is(err, storage.ErrNotFound) {
		return schedule.DefaultTemplate(), nil
	}
	if err != nil {
		return models.WeeklyTemplate{}, fmt.Errorf("failed to load template: %w", err)
	}
	return t, nil
}

// SaveTemplate validates every block of every day before storing.
func (s *Service) SaveTemplate(t models.WeeklyTemplate) error {
	var issues []validation.Issue
	for day, d := range t.Days {
		if _, ok := weekdays[day]; !ok {
			issues = append(issues, validation.Issue{Type: validation.IssueInvalidPayload, Field: "days", Message: fmt.Sprintf("unknown weekday %q", day)})
			continue
		}
		for _, b := range d.Blocks {
			res := s.validator.ValidateBlock(validation.FieldsOf(b))
			for _, is := range res.Issues {
				is.Message = fmt.Sprintf("%s %s: %s", day, schedule.FormatRange(b), is.Message)
				issues = append(issues, is)
			}
		}
	}
	if len(issues) > 0 {
		return (validation.Result{Issues: issues}).Err()
	}
	if t.Version == 0 {
		t.Version = constants.TemplateVersion
	}
	return s.store.SaveTemplate(t)
}

var weekdays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// dayIDs numbers template blocks per date so an uncustomised day keeps the
// same ids across loads.
type dayIDs struct {
	date string
	n    int
}

func (g *dayIDs) New() string {
	g.n++
	return fmt.Sprintf("%s-%d", strings.ReplaceAll(g.date, "-", ""), g.n)
}

// Load returns the saved schedule for date, or the template day for its
// weekday when nothing has been saved.
func (s *Service) Load(date string) (models.DailySchedule, error) {
	day, err := dayOf(date)
	if err != nil {
		return models.DailySchedule{}, err
	}

	rec, err := s.store.GetSchedule(date)
	if err == nil {
		return models.DailySchedule{
			Date:         date,
			Day:          day,
			DayTheme:     rec.DayTheme,
			Blocks:       rec.Blocks,
			IsCustomized: true,
		}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.DailySchedule{}, fmt.Errorf("failed to load schedule %s: %w", date, err)
	}

	tmpl, err := s.Template()
	if err != nil {
		return models.DailySchedule{}, err
	}
	td := tmpl.Days[day]
	return models.DailySchedule{
		Date:     date,
		Day:      day,
		DayTheme: td.Theme,
		Blocks:   schedule.Materialize(&dayIDs{date: date}, td.Blocks),
	}, nil
}

// Save persists a schedule as customised.
func (s *Service) Save(d models.DailySchedule) error {
	if _, err := dayOf(d.Date); err != nil {
		return err
	}
	if err := s.store.SaveSchedule(d.Date, d.Record()); err != nil {
		return err
	}
	s.logger.Debug("schedule saved", "date", d.Date, "blocks", len(d.Blocks))
	return nil
}

// mutate loads date, applies fn and saves the result.
func (s *Service) mutate(date string, fn func(d *models.DailySchedule) error) (models.DailySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.Load(date)
	if err != nil {
		return d, err
	}
	if err := fn(&d); err != nil {
		return d, err
	}
	if err := s.Save(d); err != nil {
		return d, err
	}
	d.IsCustomized = true
	return d, nil
}

// AddBlock validates and appends a new block. Overlapping blocks are
// returned as conflicts; they never prevent the write.
func (s *Service) AddBlock(date string, in schedule.BlockInput) (models.ScheduleBlock, []models.ScheduleBlock, error) {
	res := s.validator.ValidateBlock(validation.BlockFields{
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		CategoryName: in.CategoryName,
		Type:         in.Type,
		Priority:     in.Priority,
		Description:  in.Description,
	})
	if err := res.Err(); err != nil {
		return models.ScheduleBlock{}, nil, err
	}

	var created models.ScheduleBlock
	var conflicts []models.ScheduleBlock
	_, err := s.mutate(date, func(d *models.DailySchedule) error {
		created = schedule.CreateBlock(s.ids, in)
		conflicts = schedule.DetectConflicts(d.Blocks, created)
		d.Blocks = append(d.Blocks, created)
		return nil
	})
	if err != nil {
		return models.ScheduleBlock{}, nil, err
	}
	if len(conflicts) > 0 {
		s.logger.Info("block added with conflicts", "date", date, "block", created.ID, "conflicts", len(conflicts))
	}
	return created, conflicts, nil
}

// UpdateBlock applies a patch after validating the merged block.
// Conflicts are reported the same way as for AddBlock.
func (s *Service) UpdateBlock(date, id string, p schedule.BlockPatch) (models.ScheduleBlock, []models.ScheduleBlock, error) {
	var updated models.ScheduleBlock
	var conflicts []models.ScheduleBlock
	_, err := s.mutate(date, func(d *models.DailySchedule) error {
		cur, ok := schedule.FindBlock(d.Blocks, id)
		if !ok {
			return fmt.Errorf("%w: %s", schedule.ErrBlockNotFound, id)
		}
		merged := schedule.ApplyPatch(cur, p)
		if err := s.validator.ValidateBlock(validation.FieldsOf(merged)).Err(); err != nil {
			return err
		}
		blocks, b, err := schedule.UpdateBlock(d.Blocks, id, p)
		if err != nil {
			return err
		}
		d.Blocks, updated = blocks, b
		conflicts = schedule.DetectConflicts(d.Blocks, updated)
		return nil
	})
	if err != nil {
		return models.ScheduleBlock{}, nil, err
	}
	return updated, conflicts, nil
}

func (s *Service) DeleteBlock(date, id string) error {
	_, err := s.mutate(date, func(d *models.DailySchedule) error {
		if _, ok := schedule.FindBlock(d.Blocks, id); !ok {
			return fmt.Errorf("%w: %s", schedule.ErrBlockNotFound, id)
		}
		d.Blocks = schedule.DeleteBlock(d.Blocks, id)
		return nil
	})
	return err
}

func (s *Service) setBlocks(date, id string, fn func([]models.ScheduleBlock, string) ([]models.ScheduleBlock, error)) error {
	_, err := s.mutate(date, func(d *models.DailySchedule) error {
		blocks, err := fn(d.Blocks, id)
		if err != nil {
			return err
		}
		d.Blocks = blocks
		return nil
	})
	return err
}

func (s *Service) MarkCompleted(date, id string) error {
	return s.setBlocks(date, id, schedule.MarkCompleted)
}

func (s *Service) MarkSkipped(date, id string) error {
	return s.setBlocks(date, id, schedule.MarkSkipped)
}

// MarkInProgress starts a block by hand, returning any other running block
// to upcoming.
func (s *Service) MarkInProgress(date, id string) error {
	return s.setBlocks(date, id, schedule.MarkInProgress)
}

// AddPomodoro credits one finished pomodoro cycle to a block.
func (s *Service) AddPomodoro(date, id string) error {
	return s.setBlocks(date, id, schedule.AddPomodoro)
}

func (s *Service) SetDayTheme(date, theme string) error {
	_, err := s.mutate(date, func(d *models.DailySchedule) error {
		d.DayTheme = strings.TrimSpace(theme)
		return nil
	})
	return err
}

// ResetToDefault drops any saved schedule for date and returns the template
// day.
func (s *Service) ResetToDefault(date string) (models.DailySchedule, error) {
	if _, err := dayOf(date); err != nil {
		return models.DailySchedule{}, err
	}
	if err := s.store.DeleteSchedule(date); err != nil {
		return models.DailySchedule{}, fmt.Errorf("failed to reset schedule %s: %w", date, err)
	}
	return s.Load(date)
}

// CopyFromDate saves the blocks of one day onto another with new ids and
// every status reset to upcoming.
func (s *Service) CopyFromDate(from, to string) (models.DailySchedule, error) {
	src, err := s.Load(from)
	if err != nil {
		return models.DailySchedule{}, err
	}
	return s.mutate(to, func(d *models.DailySchedule) error {
		d.Blocks = schedule.Materialize(s.ids, src.Blocks)
		for i := range d.Blocks {
			d.Blocks[i].Pomodoros = 0
		}
		d.DayTheme = src.DayTheme
		return nil
	})
}

// Reconcile brings block statuses in line with the minute of day now and
// persists only when something changed.
func (s *Service) Reconcile(date string, now int) (models.DailySchedule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.Load(date)
	if err != nil {
		return d, false, err
	}
	blocks, changed := schedule.Reconcile(d.Blocks, now)
	if !changed {
		return d, false, nil
	}
	d.Blocks = blocks
	if err := s.Save(d); err != nil {
		return d, false, err
	}
	d.IsCustomized = true
	return d, true, nil
}

// Cleanup deletes saved schedules older than retentionDays before today.
func (s *Service) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = constants.DefaultRetentionDays
	}
	cutoff := clock.DateKey(s.clock.Now().AddDate(0, 0, -retentionDays))
	n, err := s.store.DeleteSchedulesBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("cleaned up old schedules", "removed", n, "before", cutoff)
	}
	return n, nil
}

// ExportPayload is the clipboard and file format of one day's schedule.
type ExportPayload struct {
	Date     string                 `json:"date,omitempty"`
	DayTheme string                 `json:"dayTheme,omitempty"`
	Blocks   []models.ScheduleBlock `json:"blocks"`
}

func (s *Service) Export(date string) ([]byte, error) {
	d, err := s.Load(date)
	if err != nil {
		return nil, err
	}
	blocks := d.Blocks
	if blocks == nil {
		blocks = []models.ScheduleBlock{}
	}
	return json.MarshalIndent(ExportPayload{Date: d.Date, DayTheme: d.DayTheme, Blocks: blocks}, "", "  ")
}

type importPayload struct {
	Date     string                   `json:"date"`
	DayTheme *string                  `json:"dayTheme"`
	Blocks   []validation.ImportBlock `json:"blocks"`
}

// decodeImport accepts a bare array of blocks or an object with a blocks
// property.
func decodeImport(data []byte) (importPayload, error) {
	var p importPayload
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &p.Blocks); err != nil {
			return p, fmt.Errorf("invalid schedule format: %w", err)
		}
		return p, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return p, fmt.Errorf("invalid schedule format: %w", err)
	}
	if p.Blocks == nil {
		return p, errors.New("invalid schedule format: expected an array of blocks or an object with a blocks property")
	}
	return p, nil
}

// Import replaces the schedule of date with the supplied blocks. The batch
// is validated as a whole and nothing is written if any block is invalid.
func (s *Service) Import(date string, data []byte) (models.DailySchedule, error) {
	p, err := decodeImport(data)
	if err != nil {
		return models.DailySchedule{}, err
	}
	if err := s.validator.ValidateImportDate(p.Date, date).Err(); err != nil {
		return models.DailySchedule{}, err
	}
	if err := s.validator.ValidateImport(p.Blocks).Err(); err != nil {
		return models.DailySchedule{}, err
	}

	seen := make(map[string]bool, len(p.Blocks))
	blocks := make([]models.ScheduleBlock, 0, len(p.Blocks))
	for _, ib := range p.Blocks {
		b := s.fromImport(ib)
		if b.ID == "" || seen[b.ID] {
			b.ID = schedule.CreateBlock(s.ids, schedule.BlockInput{CategoryName: b.CategoryName}).ID
		}
		seen[b.ID] = true
		blocks = append(blocks, b)
	}

	d, err := s.mutate(date, func(d *models.DailySchedule) error {
		d.Blocks = blocks
		if p.DayTheme != nil {
			d.DayTheme = strings.TrimSpace(*p.DayTheme)
		}
		return nil
	})
	if err != nil {
		return d, err
	}
	s.logger.Info("schedule imported", "date", date, "blocks", len(blocks))
	return d, nil
}

func (s *Service) fromImport(ib validation.ImportBlock) models.ScheduleBlock {
	typ := models.BlockType(ib.Type)
	if !typ.Valid() {
		typ = constants.DefaultBlockType
	}
	prio := models.Priority(ib.Priority)
	if !prio.Valid() {
		prio = constants.DefaultBlockPriority
	}
	desc := ib.Description
	if desc == "" {
		desc = fmt.Sprintf(constants.DefaultSessionNameFmt, ib.CategoryName)
	}
	return models.ScheduleBlock{
		ID:           ib.ID,
		StartTime:    ib.StartTime,
		EndTime:      ib.EndTime,
		CategoryName: strings.TrimSpace(ib.CategoryName),
		Duration:     schedule.Duration(ib.StartTime, ib.EndTime),
		Type:         typ,
		Priority:     prio,
		Status:       models.StatusUpcoming,
		Description:  desc,
		Pomodoros:    ib.Pomodoros,
	}
}

// Validate checks a saved or template day without changing it: every block
// is validated and every overlapping pair is reported once.
func (s *Service) Validate(date string) (validation.Result, [][2]models.ScheduleBlock, error) {
	d, err := s.Load(date)
	if err != nil {
		return validation.Result{}, nil, err
	}
	var res validation.Result
	for i, b := range d.Blocks {
		for _, is := range s.validator.ValidateBlock(validation.FieldsOf(b)).Issues {
			is.Index = i + 1
			res.Issues = append(res.Issues, is)
		}
	}
	var pairs [][2]models.ScheduleBlock
	for i, b := range d.Blocks {
		for _, c := range schedule.DetectConflicts(d.Blocks[i+1:], b) {
			pairs = append(pairs, [2]models.ScheduleBlock{b, c})
		}
	}
	return res, pairs, nil
}
