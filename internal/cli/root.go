package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/studylit/internal/backup"
	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/config"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/models"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
	"github.com/julianstephens/studylit/internal/transfer"
)

// Context carries the collaborators every command runs against. It is
// assembled once in main.
type Context struct {
	Store      storage.Provider
	Tracker    *tracker.Service
	Timetable  *timetable.Service
	Config     *config.Config
	ConfigPath string
	Clock      clock.Clock
	Logger     *log.Logger
	Clipboard  transfer.Clipboard

	// Out and In default to stdout and stdin.
	Out io.Writer
	In  io.Reader
}

func (ctx *Context) out() io.Writer {
	if ctx.Out == nil {
		return os.Stdout
	}
	return ctx.Out
}

func (ctx *Context) in() io.Reader {
	if ctx.In == nil {
		return os.Stdin
	}
	return ctx.In
}

func (ctx *Context) printf(format string, args ...any) {
	fmt.Fprintf(ctx.out(), format, args...)
}

func (ctx *Context) println(args ...any) {
	fmt.Fprintln(ctx.out(), args...)
}

func (ctx *Context) clock() clock.Clock {
	if ctx.Clock == nil {
		return clock.Real{}
	}
	return ctx.Clock
}

func (ctx *Context) now() time.Time {
	return ctx.clock().Now()
}

func (ctx *Context) clipboard() transfer.Clipboard {
	if ctx.Clipboard == nil {
		return transfer.SystemClipboard{}
	}
	return ctx.Clipboard
}

// confirm asks a yes/no question and defaults to no.
func (ctx *Context) confirm(prompt string) bool {
	ctx.printf("%s (y/N): ", prompt)
	reader := bufio.NewReader(ctx.in())
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// parseDate accepts YYYY-MM-DD, "today", "tomorrow" and "yesterday". An
// empty string means today.
func (ctx *Context) parseDate(s string) (string, error) {
	now := ctx.now()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return clock.DateKey(now), nil
	case "tomorrow":
		return clock.DateKey(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return clock.DateKey(now.AddDate(0, 0, -1)), nil
	}
	if _, err := time.Parse(constants.DateFormat, s); err != nil {
		return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD, 'today', 'tomorrow' or 'yesterday'", s)
	}
	return s, nil
}

// resolveCategory looks a category up by id, then by case-insensitive name.
func (ctx *Context) resolveCategory(ref string) (models.Category, error) {
	c, err := ctx.Tracker.GetCategory(ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, tracker.ErrCategoryNotFound) {
		return models.Category{}, err
	}
	cats, err := ctx.Tracker.ListCategories()
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("%w: %s", tracker.ErrCategoryNotFound, ref)
}

func (ctx *Context) backups() *backup.Manager {
	return backup.NewManager(ctx.Store.GetConfigPath(), ctx.clock(), ctx.Logger)
}

// supportsBackup reports whether the store is a local file.
func (ctx *Context) supportsBackup() bool {
	path := ctx.Store.GetConfigPath()
	return path != "" && path != "postgresql"
}

// PerformAutomaticBackup snapshots the store before an interactive session.
// Failures are logged and never block startup.
func (ctx *Context) PerformAutomaticBackup() {
	if !ctx.supportsBackup() {
		return
	}
	path, err := ctx.backups().Create()
	if err != nil {
		if ctx.Logger != nil {
			ctx.Logger.Warn("automatic backup failed", "error", err)
		}
		return
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("automatic backup created", "path", path)
	}
}

// PerformCleanup drops schedules older than the retention window.
func (ctx *Context) PerformCleanup() {
	if ctx.Config == nil {
		return
	}
	n, err := ctx.Timetable.Cleanup(ctx.Config.RetentionDays)
	if ctx.Logger == nil {
		return
	}
	if err != nil {
		ctx.Logger.Warn("schedule cleanup failed", "error", err)
		return
	}
	if n > 0 {
		ctx.Logger.Info("removed old schedules", "count", n, "retention_days", ctx.Config.RetentionDays)
	}
}
