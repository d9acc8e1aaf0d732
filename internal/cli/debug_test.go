package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/studylit/internal/storage/sqlite"
	"github.com/julianstephens/studylit/internal/testutil"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
)

func setupTestDebugDB(t *testing.T) (*Context, *bytes.Buffer, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath, nil)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	clk := testutil.FixedClock()
	engine := timer.NewEngine(clk, timer.PomodoroConfig{}, nil, nil)
	out := &bytes.Buffer{}
	ctx := &Context{
		Store:     store,
		Tracker:   tracker.NewService(store, engine, clk, testutil.NewStubIDGenerator(), 4000, nil),
		Timetable: timetable.NewService(store, clk, testutil.NewStubIDGenerator(), nil),
		Clock:     clk,
		Out:       out,
	}

	cleanup := func() {
		store.Close()
	}

	return ctx, out, cleanup
}

func TestDebugDBPathCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &DebugDBPathCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("debug db-path command failed: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !strings.HasSuffix(result["path"], "test.db") {
		t.Errorf("expected path to end in test.db, got %q", result["path"])
	}
}

func TestDebugDumpCategoryCmd_Success(t *testing.T) {
	ctx, out, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cat, err := ctx.Tracker.CreateCategory(tracker.CategoryInput{Name: "Japanese", HourlyRateUSD: 10})
	if err != nil {
		t.Fatalf("failed to add test category: %v", err)
	}
	if _, err := ctx.Tracker.AddPastSession(cat.ID, "2025-10-20", "06:00", "07:00", ""); err != nil {
		t.Fatalf("failed to add test session: %v", err)
	}

	// Lookup by name works as well as by id.
	cmd := &DebugDumpCategoryCmd{ID: "japanese"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("debug dump-category command failed: %v", err)
	}

	var result struct {
		Category struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
		Sessions []json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.Category.ID != cat.ID {
		t.Errorf("expected category %s, got %s", cat.ID, result.Category.ID)
	}
	if len(result.Sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(result.Sessions))
	}
}

func TestDebugDumpCategoryCmd_NotFound(t *testing.T) {
	ctx, _, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &DebugDumpCategoryCmd{ID: "nonexistent"}
	err := cmd.Run(ctx)
	if err == nil {
		t.Fatal("expected error for non-existent category, got nil")
	}
	if !strings.Contains(err.Error(), "category not found") {
		t.Errorf("expected 'category not found' error, got: %v", err)
	}
}

func TestDebugDumpScheduleCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &DebugDumpScheduleCmd{Date: "today"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("debug dump-schedule command failed: %v", err)
	}

	var result struct {
		Date   string            `json:"date"`
		Day    string            `json:"day"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.Date != "2025-10-20" || result.Day != "monday" {
		t.Errorf("unexpected day %s %s", result.Date, result.Day)
	}
	if len(result.Blocks) == 0 {
		t.Error("expected the template blocks for monday")
	}
}

func TestDebugDumpScheduleCmd_InvalidDate(t *testing.T) {
	ctx, _, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &DebugDumpScheduleCmd{Date: "2025/10/20"}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected error for invalid date, got nil")
	}
}

func TestDebugTimerCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &DebugTimerCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("debug timer command failed: %v", err)
	}
	if !strings.Contains(out.String(), `"Active": false`) {
		t.Errorf("expected an idle timer, got %s", out.String())
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDebugDB(t)
	defer cleanup()

	cmd := &MigrateCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("migrate command failed: %v", err)
	}
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("expected schema to be up to date after init, got %q", out.String())
	}
}
