package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
)

type jsonData struct {
	Version    int                              `json:"version"`
	Categories map[string]models.Category       `json:"categories"`
	Sessions   map[string]models.Session        `json:"sessions"`
	Schedules  map[string]models.ScheduleRecord `json:"schedules"`
	Template   *models.WeeklyTemplate           `json:"template,omitempty"`
}

// JSONStore keeps everything in a single JSON document, rewritten on every
// change. It suits small personal datasets and makes the data easy to inspect.
type JSONStore struct {
	mu   sync.Mutex
	path string
	data *jsonData
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

var errNotLoaded = errors.New("storage not loaded")

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data := &jsonData{Version: 1}
	data.ensureMaps()
	if err := s.save(data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *JSONStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	data := &jsonData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	data.ensureMaps()
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (d *jsonData) ensureMaps() {
	if d.Categories == nil {
		d.Categories = make(map[string]models.Category)
	}
	if d.Sessions == nil {
		d.Sessions = make(map[string]models.Session)
	}
	if d.Schedules == nil {
		d.Schedules = make(map[string]models.ScheduleRecord)
	}
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (d *jsonData) clone() *jsonData {
	c := *d
	c.Categories = maps.Clone(d.Categories)
	c.Sessions = maps.Clone(d.Sessions)
	c.Schedules = maps.Clone(d.Schedules)
	if d.Template != nil {
		t := *d.Template
		c.Template = &t
	}
	return &c
}

// commit applies fn to a copy of the data and swaps it in only once the
// copy is on disk. A failed write leaves the in-memory state untouched.
// The caller holds s.mu.
func (s *JSONStore) commit(fn func(d *jsonData) error) error {
	if s.data == nil {
		return errNotLoaded
	}
	next := s.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// save writes to a temp file and renames it so a crash never leaves a
// truncated document behind.
func (s *JSONStore) save(data *jsonData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) CreateCategory(c models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		if _, ok := d.Categories[c.ID]; ok {
			return fmt.Errorf("category %s already exists", c.ID)
		}
		d.Categories[c.ID] = c
		return nil
	})
}

func (s *JSONStore) UpdateCategory(c models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		if _, ok := d.Categories[c.ID]; !ok {
			return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
		}
		d.Categories[c.ID] = c
		return nil
	})
}

func (s *JSONStore) GetCategory(id string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return models.Category{}, errNotLoaded
	}
	c, ok := s.data.Categories[id]
	if !ok {
		return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *JSONStore) GetAllCategories() ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, errNotLoaded
	}
	out := make([]models.Category, 0, len(s.data.Categories))
	for _, c := range s.data.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *JSONStore) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		if _, ok := d.Categories[id]; !ok {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		delete(d.Categories, id)
		for sid, sess := range d.Sessions {
			if sess.CategoryID == id {
				delete(d.Sessions, sid)
			}
		}
		return nil
	})
}

func (s *JSONStore) CreateSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		if _, ok := d.Categories[sess.CategoryID]; !ok {
			return fmt.Errorf("category %s: %w", sess.CategoryID, ErrNotFound)
		}
		d.Sessions[sess.ID] = sess
		return nil
	})
}

func (s *JSONStore) GetSession(id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return models.Session{}, errNotLoaded
	}
	sess, ok := s.data.Sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

func (s *JSONStore) filterSessions(keep func(models.Session) bool) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, errNotLoaded
	}
	var out []models.Session
	for _, sess := range s.data.Sessions {
		if keep(sess) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *JSONStore) GetSessionsByCategory(categoryID string) ([]models.Session, error) {
	return s.filterSessions(func(sess models.Session) bool { return sess.CategoryID == categoryID })
}

func (s *JSONStore) GetSessionsByDate(date string) ([]models.Session, error) {
	return s.filterSessions(func(sess models.Session) bool { return sess.Date == date })
}

func (s *JSONStore) GetAllSessions() ([]models.Session, error) {
	return s.filterSessions(func(models.Session) bool { return true })
}

func (s *JSONStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		if _, ok := d.Sessions[id]; !ok {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		delete(d.Sessions, id)
		return nil
	})
}

func (s *JSONStore) SaveSchedule(date string, record models.ScheduleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Blocks = slices.Clone(record.Blocks)
	return s.commit(func(d *jsonData) error {
		d.Schedules[date] = record
		return nil
	})
}

func (s *JSONStore) GetSchedule(date string) (models.ScheduleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return models.ScheduleRecord{}, errNotLoaded
	}
	rec, ok := s.data.Schedules[date]
	if !ok {
		return models.ScheduleRecord{}, fmt.Errorf("schedule %s: %w", date, ErrNotFound)
	}
	rec.Blocks = slices.Clone(rec.Blocks)
	return rec, nil
}

func (s *JSONStore) DeleteSchedule(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return errNotLoaded
	}
	if _, ok := s.data.Schedules[date]; !ok {
		return nil
	}
	return s.commit(func(d *jsonData) error {
		delete(d.Schedules, date)
		return nil
	})
}

func (s *JSONStore) ListScheduleDates() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, errNotLoaded
	}
	dates := make([]string, 0, len(s.data.Schedules))
	for d := range s.data.Schedules {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *JSONStore) DeleteSchedulesBefore(date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0, errNotLoaded
	}
	n := 0
	for d := range s.data.Schedules {
		if d < date {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	err := s.commit(func(d *jsonData) error {
		for day := range d.Schedules {
			if day < date {
				delete(d.Schedules, day)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *JSONStore) GetTemplate() (models.WeeklyTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return models.WeeklyTemplate{}, errNotLoaded
	}
	if s.data.Template == nil {
		return models.WeeklyTemplate{}, fmt.Errorf("template: %w", ErrNotFound)
	}
	return *s.data.Template, nil
}

func (s *JSONStore) SaveTemplate(t models.WeeklyTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(func(d *jsonData) error {
		d.Template = &t
		return nil
	})
}
