package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Runs the built binary through a full study day against a throwaway
// sqlite database. Expects ../../bin/studylit or STUDYLIT_BIN_DIR.
func TestEndToEndWorkflow(t *testing.T) {
	cliPath := findBinary(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "studylit", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	config := fmt.Sprintf(`[storage]
type = "sqlite"
path = %q

[notifications]
enabled = false
`, filepath.Join(tempDir, "studylit", "studylit.db"))
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	env := isolatedEnv(tempDir)
	run := func(args ...string) string {
		t.Helper()
		return runCmd(t, cliPath, env, append([]string{"--config", configPath}, args...)...)
	}

	t.Log("Initializing storage...")
	out := run("init")
	if !strings.Contains(out, "Initialized sqlite storage") {
		t.Fatalf("unexpected init output: %s", out)
	}

	t.Log("Adding a category and a session...")
	run("category", "add", "Japanese", "--rate", "10", "--daily", "2")
	out = run("session", "add", "Japanese", "06:00", "07:30", "--date", "2030-01-07")
	if !strings.Contains(out, "Logged") {
		t.Fatalf("unexpected session output: %s", out)
	}

	out = run("today", "2030-01-07")
	if !strings.Contains(out, "Japanese") || !strings.Contains(out, "75%") {
		t.Errorf("today summary is missing the session: %s", out)
	}

	t.Log("Editing a schedule...")
	out = run("schedule", "show", "-d", "2030-01-07")
	if !strings.Contains(out, "(weekly template)") {
		t.Errorf("expected an untouched day to show the template: %s", out)
	}
	out = run("schedule", "add", "-d", "2030-01-07", "20:00", "21:00", "Reading")
	if !strings.Contains(out, "Added 20:00 - 21:00 Reading") {
		t.Errorf("unexpected schedule add output: %s", out)
	}

	exportPath := filepath.Join(tempDir, "day.json")
	run("schedule", "export", "-d", "2030-01-07", "-f", exportPath)
	out = run("schedule", "import", "-d", "2030-01-07", "-f", exportPath)
	if !strings.Contains(out, "Imported") {
		t.Errorf("unexpected import output: %s", out)
	}

	var dump struct {
		Date         string `json:"date"`
		IsCustomized bool   `json:"isCustomized"`
		Blocks       []struct {
			CategoryName string `json:"categoryName"`
		} `json:"blocks"`
	}
	out = run("debug", "dump-schedule", "2030-01-07")
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("dump-schedule is not JSON: %v\n%s", err, out)
	}
	if !dump.IsCustomized {
		t.Error("expected the edited day to be customized")
	}
	found := false
	for _, b := range dump.Blocks {
		if b.CategoryName == "Reading" {
			found = true
		}
	}
	if !found {
		t.Errorf("imported schedule lost the Reading block: %+v", dump.Blocks)
	}

	t.Log("Running maintenance commands...")
	run("backup", "create")
	run("migrate")
	out = run("doctor")
	if !strings.Contains(out, "All diagnostics passed!") {
		t.Errorf("doctor reported problems: %s", out)
	}
}

func findBinary(t *testing.T) string {
	t.Helper()
	binDir := os.Getenv("STUDYLIT_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "studylit")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Please build it first.", cliPath)
	}
	return cliPath
}

// isolatedEnv points HOME at tempDir so nothing touches the real config.
func isolatedEnv(tempDir string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "XDG_CONFIG_HOME=") || strings.HasPrefix(e, "STUDYLIT_") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", tempDir),
	)
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}
