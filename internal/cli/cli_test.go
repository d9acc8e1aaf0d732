package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/studylit/internal/config"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/testutil"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
)

type memClipboard struct {
	text string
}

func (m *memClipboard) ReadAll() (string, error) { return m.text, nil }
func (m *memClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

// steppingClock moves forward by step on every read.
type steppingClock struct {
	*testutil.StubClock
	step time.Duration
}

func (c steppingClock) Now() time.Time {
	c.Advance(c.step)
	return c.StubClock.Now()
}

type testEnv struct {
	ctx   *Context
	out   *bytes.Buffer
	clock *testutil.StubClock
	dir   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewJSONStore(filepath.Join(dir, "studylit.json"))
	require.NoError(t, store.Init())

	clk := testutil.FixedClock()
	engine := timer.NewEngine(clk, timer.PomodoroConfig{Work: 25 * time.Minute, Break: 5 * time.Minute}, nil, nil)
	out := &bytes.Buffer{}
	return testEnv{
		ctx: &Context{
			Store:      store,
			Tracker:    tracker.NewService(store, engine, clk, testutil.NewStubIDGenerator(), 4000, nil),
			Timetable:  timetable.NewService(store, clk, testutil.NewStubIDGenerator(), nil),
			Config:     config.Default(dir),
			ConfigPath: filepath.Join(dir, "config.toml"),
			Clock:      clk,
			Clipboard:  &memClipboard{},
			Out:        out,
		},
		out:   out,
		clock: clk,
		dir:   dir,
	}
}

func (e testEnv) addCategory(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := e.ctx.Tracker.CreateCategory(tracker.CategoryInput{Name: name, HourlyRateUSD: 10, MonthlyTarget: 1, DailyTarget: 2})
	require.NoError(t, err)
	return c
}

func TestParseDate(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "2025-10-20", false},
		{"today", "2025-10-20", false},
		{"Tomorrow", "2025-10-21", false},
		{"yesterday", "2025-10-19", false},
		{"2025-01-02", "2025-01-02", false},
		{"01/02/2025", "", true},
	}
	for _, tt := range tests {
		got, err := env.ctx.parseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.ctx.In = strings.NewReader("yes\n")
	assert.True(t, env.ctx.confirm("Proceed?"))
	env.ctx.In = strings.NewReader("\n")
	assert.False(t, env.ctx.confirm("Proceed?"))
	env.ctx.In = strings.NewReader("")
	assert.False(t, env.ctx.confirm("Proceed?"))
}

func TestCategoryAddAndList(t *testing.T) {
	env := newTestEnv(t)

	add := &CategoryAddCmd{Name: "Japanese", Priority: "high", Rate: 10, Daily: 2}
	require.NoError(t, add.Run(env.ctx))
	assert.Contains(t, env.out.String(), "Added category Japanese")

	env.out.Reset()
	require.NoError(t, (&CategoryListCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Japanese")
}

func TestCategoryEditKeepsUnsetFields(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCategory(t, "Japanese")

	edit := &CategoryEditCmd{
		Category: "japanese",
		Name:     "Nihongo",
		Rate:     -1,
		RateMMK:  -1,
		Total:    -1,
		Monthly:  -1,
		Daily:    -1,
	}
	require.NoError(t, edit.Run(env.ctx))

	got, err := env.ctx.Tracker.GetCategory(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nihongo", got.Name)
	assert.Equal(t, 10.0, got.HourlyRateUSD)
	assert.Equal(t, 2.0, got.DailyTarget)
}

func TestCategoryDeleteNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCategory(t, "Japanese")

	env.ctx.In = strings.NewReader("n\n")
	require.NoError(t, (&CategoryDeleteCmd{Category: c.ID}).Run(env.ctx))
	_, err := env.ctx.Tracker.GetCategory(c.ID)
	require.NoError(t, err)

	require.NoError(t, (&CategoryDeleteCmd{Category: c.ID, Yes: true}).Run(env.ctx))
	_, err = env.ctx.Tracker.GetCategory(c.ID)
	assert.ErrorIs(t, err, tracker.ErrCategoryNotFound)
}

func TestCategoryWithdraw(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCategory(t, "Japanese")

	err := (&CategoryWithdrawCmd{Category: c.ID}).Run(env.ctx)
	assert.ErrorIs(t, err, tracker.ErrNotWithdrawable)

	_, err = env.ctx.Tracker.AddPastSession(c.ID, "2025-10-20", "06:00", "07:30", "")
	require.NoError(t, err)
	require.NoError(t, (&CategoryWithdrawCmd{Category: c.ID}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Withdrew $15.00")
}

func TestSessionAddAndList(t *testing.T) {
	env := newTestEnv(t)
	env.addCategory(t, "Japanese")

	add := &SessionAddCmd{Category: "Japanese", Start: "06:00", End: "07:00", Date: "today", Notes: "kanji"}
	require.NoError(t, add.Run(env.ctx))
	assert.Contains(t, env.out.String(), "Logged 1.00h of Japanese on 2025-10-20")

	env.out.Reset()
	require.NoError(t, (&SessionListCmd{Date: "today"}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "1 session(s)")

	env.out.Reset()
	require.NoError(t, (&SessionListCmd{Date: "yesterday"}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "No sessions found")
}

func TestSessionAddRejectsBadTimes(t *testing.T) {
	env := newTestEnv(t)
	env.addCategory(t, "Japanese")

	add := &SessionAddCmd{Category: "Japanese", Start: "07:00", End: "25:00", Date: "today"}
	assert.Error(t, add.Run(env.ctx))
}

func TestTodayCmd(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&TodayCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Nothing studied yet")

	c := env.addCategory(t, "Japanese")
	_, err := env.ctx.Tracker.AddPastSession(c.ID, "2025-10-20", "06:00", "07:00", "")
	require.NoError(t, err)

	env.out.Reset()
	require.NoError(t, (&TodayCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Japanese")
	assert.Contains(t, env.out.String(), "50%")
}

func TestFocusCmdSavesSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.addCategory(t, "Japanese")

	clk := steppingClock{StubClock: env.clock, step: time.Minute}
	engine := timer.NewEngine(clk, timer.PomodoroConfig{Work: 25 * time.Minute, Break: 5 * time.Minute}, nil, nil)
	env.ctx.Tracker = tracker.NewService(env.ctx.Store, engine, clk, testutil.NewStubIDGenerator(), 4000, nil)
	env.ctx.Config.Ticks.TimerMillis = 10

	cmd := &FocusCmd{Category: "Japanese", For: 50 * time.Millisecond}
	require.NoError(t, cmd.Run(env.ctx))
	assert.Contains(t, env.out.String(), "Focusing on")
	assert.Contains(t, env.out.String(), "Saved")

	sessions, err := env.ctx.Tracker.SessionsByCategory(c.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Greater(t, sessions[0].Duration, 0.0)
}

func TestFocusCmdWithNoElapsedTime(t *testing.T) {
	env := newTestEnv(t)
	env.addCategory(t, "Japanese")

	cmd := &FocusCmd{Category: "Japanese", For: 20 * time.Millisecond}
	require.NoError(t, cmd.Run(env.ctx))
	assert.Contains(t, env.out.String(), "No study time recorded.")
}

func TestScheduleAddReportsConflicts(t *testing.T) {
	env := newTestEnv(t)

	add := &ScheduleAddCmd{
		DateFlag: DateFlag{Date: "today"},
		Start:    "09:00",
		End:      "10:00",
		Category: "English",
		Type:     "study",
		Priority: "low",
	}
	require.NoError(t, add.Run(env.ctx))
	assert.Contains(t, env.out.String(), "Added 09:00")
	assert.Contains(t, env.out.String(), "Overlaps 2 block(s)")
}

func TestScheduleAddRejectsZeroLengthBlock(t *testing.T) {
	env := newTestEnv(t)

	add := &ScheduleAddCmd{
		DateFlag: DateFlag{Date: "today"},
		Start:    "09:00",
		End:      "09:00",
		Category: "English",
		Type:     "study",
		Priority: "low",
	}
	assert.Error(t, add.Run(env.ctx))
}

func TestScheduleCompleteAndShow(t *testing.T) {
	env := newTestEnv(t)
	d, err := env.ctx.Timetable.Load("2025-10-20")
	require.NoError(t, err)
	require.NotEmpty(t, d.Blocks)
	id := d.Blocks[0].ID

	require.NoError(t, (&ScheduleCompleteCmd{DateFlag: DateFlag{Date: "today"}, ID: id}).Run(env.ctx))

	env.out.Reset()
	require.NoError(t, (&ScheduleShowCmd{Date: "today"}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "completed")
	assert.NotContains(t, env.out.String(), "(weekly template)")
}

func TestScheduleShowUsesTemplate(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&ScheduleShowCmd{Date: "today"}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "(weekly template)")
	assert.Contains(t, env.out.String(), "Japanese")
}

func TestScheduleNow(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Set(env.clock.At(10, 0))

	require.NoError(t, (&ScheduleNowCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Now:")
	assert.Contains(t, env.out.String(), "Japanese")
}

func TestScheduleExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, (&ScheduleExportCmd{DateFlag: DateFlag{Date: "today"}}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "to clipboard")

	require.NoError(t, (&ScheduleImportCmd{DateFlag: DateFlag{Date: "today"}}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Imported 4 block(s) into 2025-10-20")

	// The exported payload is pinned to its own date.
	err := (&ScheduleImportCmd{DateFlag: DateFlag{Date: "tomorrow"}}).Run(env.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import data is for 2025-10-20")

	file := filepath.Join(env.dir, "day.json")
	require.NoError(t, (&ScheduleExportCmd{DateFlag: DateFlag{Date: "today"}, File: file}).Run(env.ctx))
	_, err = os.Stat(file)
	assert.NoError(t, err)
}

func TestScheduleValidate(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&ScheduleValidateCmd{DateFlag: DateFlag{Date: "today"}}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "No issues found")
}

func TestTemplateShowSingleDay(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&TemplateShowCmd{Day: "Monday"}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Monday")
	assert.NotContains(t, env.out.String(), "Tuesday")

	assert.Error(t, (&TemplateShowCmd{Day: "someday"}).Run(env.ctx))
}

func TestTemplateExportImport(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.dir, "template.json")

	require.NoError(t, (&TemplateExportCmd{File: file}).Run(env.ctx))
	require.NoError(t, (&TemplateImportCmd{File: file}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Template imported (7 days)")
}

func TestInitCmdWritesConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&InitCmd{}).Run(env.ctx))

	_, err := os.Stat(env.ctx.ConfigPath)
	assert.NoError(t, err)
	assert.Contains(t, env.out.String(), "Initialized")
}

func TestDoctorPassesOnFreshStore(t *testing.T) {
	env := newTestEnv(t)
	env.ctx.Config.Notifications.Enabled = false

	err := (&DoctorCmd{}).Run(env.ctx)
	require.NoError(t, err, env.out.String())
	assert.Contains(t, env.out.String(), "All diagnostics passed!")
	assert.Contains(t, env.out.String(), "Backups present: WARNING")
}

func TestBackupCreateAndList(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, (&BackupCreateCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "Backup created")

	env.out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(env.ctx))
	assert.Contains(t, env.out.String(), "1 total")
}
