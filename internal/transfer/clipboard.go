// Package transfer moves schedules between studylit and the system
// clipboard or files.
package transfer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/julianstephens/studylit/internal/models"
)

// Clipboard is the subset of clipboard access transfer needs.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("clipboard is not supported on this system")
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// Schedules is the part of the timetable service used for transfers.
type Schedules interface {
	Export(date string) ([]byte, error)
	Import(date string, data []byte) (models.DailySchedule, error)
}

// Source names where a schedule is read from or written to. An empty path
// or "-" means the clipboard.
type Source struct {
	Path      string
	Clipboard Clipboard
}

func (s Source) usesClipboard() bool {
	return s.Path == "" || s.Path == "-"
}

// Export writes the schedule of date to src.
func Export(svc Schedules, src Source, date string) error {
	data, err := svc.Export(date)
	if err != nil {
		return err
	}
	if src.usesClipboard() {
		if err := src.Clipboard.WriteAll(string(data)); err != nil {
			return fmt.Errorf("failed to copy schedule to clipboard: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(src.Path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", src.Path, err)
	}
	return nil
}

// Import replaces the schedule of date with the JSON read from src.
func Import(svc Schedules, src Source, date string) (models.DailySchedule, error) {
	var data []byte
	if src.usesClipboard() {
		text, err := src.Clipboard.ReadAll()
		if err != nil {
			return models.DailySchedule{}, fmt.Errorf("failed to read clipboard: %w", err)
		}
		data = []byte(text)
	} else {
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return models.DailySchedule{}, fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
		data = raw
	}
	if strings.TrimSpace(string(data)) == "" {
		return models.DailySchedule{}, errors.New("nothing to import")
	}
	return svc.Import(date, data)
}
