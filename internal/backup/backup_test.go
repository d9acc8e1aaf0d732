package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/testutil"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "studylit.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test_data (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test_data (id, name) VALUES (1, 'a'), (2, 'b')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM test_data").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	clk := testutil.FixedClock()
	mgr := NewManager(dbPath, clk, nil)

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if want := "studylit-20251020-093000.db"; filepath.Base(backupPath) != want {
		t.Errorf("expected %s, got %s", want, filepath.Base(backupPath))
	}
	if got := countRows(t, backupPath); got != 2 {
		t.Errorf("expected 2 rows in backup, got %d", got)
	}
}

func TestCreate_MissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"), testutil.FixedClock(), nil)
	if _, err := mgr.Create(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	clk := testutil.FixedClock()
	mgr := NewManager(dbPath, clk, nil)

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backup %d is newer than backup %d", i, i-1)
		}
	}
	oldest := time.Date(2025, 10, 20, 9, 35, 0, 0, time.Local)
	if !backups[len(backups)-1].Timestamp.Equal(oldest) {
		t.Errorf("expected oldest kept backup at %v, got %v", oldest, backups[len(backups)-1].Timestamp)
	}
}

func TestList(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, testutil.FixedClock(), nil)

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups initially, got %d", len(backups))
	}

	if err := os.MkdirAll(mgr.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
	}

	backups, err = mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for _, b := range backups {
		if b.Size == 0 || b.Timestamp.IsZero() {
			t.Errorf("incomplete backup info: %+v", b)
		}
	}
}

func TestUniqueFilenamesWithinOneSecond(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, testutil.FixedClock(), nil)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		p, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		name := filepath.Base(p)
		if seen[name] {
			t.Errorf("duplicate backup filename: %s", name)
		}
		seen[name] = true
	}
	if !seen["studylit-20251020-093000-4.db"] {
		t.Errorf("expected counter suffix, got %v", seen)
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	clk := testutil.FixedClock()
	mgr := NewManager(dbPath, clk, nil)

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO test_data (id, name) VALUES (3, 'c')"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	clk.Advance(time.Minute)
	previous, err := mgr.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("expected 2 rows after restore, got %d", got)
	}
	if previous == "" {
		t.Fatal("expected a backup of the replaced database")
	}
	if got := countRows(t, previous); got != 3 {
		t.Errorf("expected pre-restore backup to hold 3 rows, got %d", got)
	}
}

func TestRestore_RejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, testutil.FixedClock(), nil)

	invalid := filepath.Join(t.TempDir(), "invalid.db")
	if err := os.WriteFile(invalid, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(invalid); err == nil {
		t.Error("expected error for invalid backup")
	}
	if _, err := mgr.Restore(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("expected error for missing backup")
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("database must be untouched, got %d rows", got)
	}
}

func TestJSONStoreIsCopied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studylit.json")
	if err := os.WriteFile(path, []byte(`{"version":1}`), 0600); err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(path, testutil.FixedClock(), nil)

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Ext(backupPath) != ".json" {
		t.Errorf("expected .json backup, got %s", backupPath)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":1}` {
		t.Errorf("unexpected backup content %q", data)
	}
}
