package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/studylit/internal/constants"
)

const trayExecutable = "studylit-tray"

// WebhookPayload is the body posted to the tray application.
type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// Tray posts notifications to a running tray process. The tray advertises
// itself with a "port|pid|secret" lockfile in LockDir.
type Tray struct {
	LockDir     string
	Client      *http.Client
	findProcess func(int) (ps.Process, error)
}

func NewTray(lockDir string) *Tray {
	return &Tray{
		LockDir:     lockDir,
		Client:      &http.Client{Timeout: constants.NotifyTimeout},
		findProcess: ps.FindProcess,
	}
}

func (t *Tray) Notify(title, body string) error {
	port, secret, err := t.findTray(filepath.Join(t.LockDir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}
	text := title
	if body != "" {
		text = title + " " + body
	}
	return t.send(port, secret, WebhookPayload{Text: text, DurationMs: constants.NotificationDurationMs})
}

// Available reports why the tray cannot be reached, or nil when it can.
func (t *Tray) Available() error {
	_, _, err := t.findTray(filepath.Join(t.LockDir, constants.NotifierLockfileName))
	return err
}

func (t *Tray) findTray(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New(trayExecutable + " is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := t.findProcess(pid)
	if err != nil || process == nil {
		return "", "", errors.New(trayExecutable + " process not running")
	}
	if !strings.HasPrefix(process.Executable(), trayExecutable) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, trayExecutable, process.Executable())
	}
	return port, secret, nil
}

func (t *Tray) send(port, secret string, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, "http://127.0.0.1:"+port, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Studylit-Secret", secret)

	res, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
