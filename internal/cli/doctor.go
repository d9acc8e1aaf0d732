package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/keyring"
	"github.com/julianstephens/studylit/internal/notifier"
)

// schemaVersioner is implemented by the SQL backends.
type schemaVersioner interface {
	SchemaVersion() (current, latest int, err error)
}

type migrator interface {
	Migrate() (int, error)
}

type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		ctx.println("This storage backend has no schema to migrate.")
		return nil
	}
	n, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if n == 0 {
		ctx.println("Database schema is up to date.")
		return nil
	}
	ctx.printf("%s Applied %d migration(s)\n", okStyle.Render("✓"), n)
	return nil
}

type DoctorCmd struct{}

type check struct {
	name string
	run  func(*Context) error
	// warn marks checks whose failure is only reported.
	warn bool
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	dbReachable := false
	if err := ctx.Store.Load(); err != nil {
		ctx.printf("%s Storage reachable: FAIL\n", dangerStyle.Render("✗"))
		ctx.printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.printf("%s Storage reachable: OK\n", okStyle.Render("✓"))
		dbReachable = true
	}

	checks := []check{
		{name: "Schema version", run: checkSchemaVersion},
		{name: "Backups present", run: checkBackupsPresent, warn: true},
		{name: "Data validation", run: checkValidation},
		{name: "Tray notifier", run: checkTray, warn: true},
		{name: "Keyring", run: checkKeyring, warn: true},
		{name: "Clock/timezone", run: checkClockTimezone},
	}
	for _, c := range checks {
		if !dbReachable && c.name != "Clock/timezone" && c.name != "Tray notifier" {
			ctx.printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.printf("%s %s: OK\n", okStyle.Render("✓"), c.name)
		case c.warn:
			ctx.printf("%s %s: WARNING\n", warnStyle.Render("⚠"), c.name)
			ctx.printf("   %v\n", err)
		default:
			ctx.printf("%s %s: FAIL\n", dangerStyle.Render("✗"), c.name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	sv, ok := ctx.Store.(schemaVersioner)
	if !ok {
		return nil
	}
	current, latest, err := sv.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run '%s migrate')", current, latest, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	if !ctx.supportsBackup() {
		return nil
	}
	backups, err := ctx.backups().List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found, consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkValidation(ctx *Context) error {
	cats, err := ctx.Store.GetAllCategories()
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	names := make(map[string]bool, len(cats))
	for _, c := range cats {
		key := strings.ToLower(c.Name)
		if names[key] {
			return fmt.Errorf("duplicate category name: %s", c.Name)
		}
		names[key] = true
	}

	res, _, err := ctx.Timetable.Validate(ctx.Timetable.Today())
	if err != nil {
		return fmt.Errorf("failed to validate today's schedule: %w", err)
	}
	return res.Err()
}

func checkTray(ctx *Context) error {
	if ctx.Config == nil || !ctx.Config.Notifications.Enabled || !ctx.Config.Notifications.Tray {
		return nil
	}
	return notifier.NewTray(ctx.Config.Notifications.LockDir).Available()
}

func checkKeyring(ctx *Context) error {
	if ctx.Config == nil || ctx.Config.Storage.Type != "postgres" {
		return nil
	}
	_, err := keyring.GetConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no connection string in keyring; using %s or the config file", constants.ConnectionEnvVar)
	}
	return err
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		ctx.println("   Note: timezone is UTC")
	}
	return nil
}
