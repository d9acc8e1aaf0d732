package notifier

import (
	"errors"

	"github.com/charmbracelet/log"
)

// Notifier delivers a short user-facing message. Callers treat delivery as
// fire-and-forget: errors are for logging only.
type Notifier interface {
	Notify(title, body string) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// Log writes notifications to a logger.
type Log struct {
	Logger *log.Logger
}

func (l Log) Notify(title, body string) error {
	if l.Logger != nil {
		l.Logger.Info(title, "body", body)
	}
	return nil
}

// Multi fans a notification out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(title, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
