package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/studylit/internal/cli"
	"github.com/julianstephens/studylit/internal/clock"
	"github.com/julianstephens/studylit/internal/config"
	"github.com/julianstephens/studylit/internal/constants"
	apperrors "github.com/julianstephens/studylit/internal/errors"
	"github.com/julianstephens/studylit/internal/keyring"
	"github.com/julianstephens/studylit/internal/logger"
	"github.com/julianstephens/studylit/internal/notifier"
	"github.com/julianstephens/studylit/internal/storage"
	"github.com/julianstephens/studylit/internal/storage/postgres"
	"github.com/julianstephens/studylit/internal/storage/sqlite"
	"github.com/julianstephens/studylit/internal/timer"
	"github.com/julianstephens/studylit/internal/timetable"
	"github.com/julianstephens/studylit/internal/tracker"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/studylit/config.toml"`
	Debug   bool   `help:"Log at debug level and mirror the log to stderr."`

	Init      cli.InitCmd     `cmd:"" help:"Initialize studylit storage."`
	Tui       cli.TuiCmd      `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Category  cli.CategoryCmd `cmd:"" help:"Manage study categories."`
	Session   cli.SessionCmd  `cmd:"" help:"Record and list study sessions."`
	Focus     cli.FocusCmd    `cmd:"" help:"Run a focus timer for a category."`
	Today     cli.TodayCmd    `cmd:"" help:"Show today's study summary."`
	Schedule  cli.ScheduleCmd `cmd:"" help:"View and edit daily schedules."`
	Template  cli.TemplateCmd `cmd:"" help:"View and edit the weekly template."`
	Backup    cli.BackupCmd   `cmd:"" help:"Manage database backups."`
	ConfigCmd cli.ConfigCmd   `cmd:"" name:"config" help:"Manage the configuration file and credentials."`
	Doctor    cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Migrate   cli.MigrateCmd  `cmd:"" help:"Run database migrations."`
	DebugCmd  cli.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

// noLoad lists the commands that manage storage themselves.
var noLoad = map[string]bool{
	"init":    true,
	"config":  true,
	"doctor":  true,
	"migrate": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Study-time tracker with a focus timer and daily schedules"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	configPath, err := config.ExpandHome(CLI.Config)
	if err != nil {
		apperrors.Fatal(nil, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		apperrors.Fatal(nil, err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	lg, err := logger.New(logger.Config{Debug: cfg.Debug, ConfigDir: filepath.Dir(configPath)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		lg = logger.Discard()
	}
	defer lg.Close()

	store, err := openStore(cfg, lg)
	if err != nil {
		apperrors.Fatal(lg.Logger, err)
	}
	defer store.Close()

	var n notifier.Notifier = notifier.Nop{}
	if cfg.Notifications.Enabled {
		multi := notifier.Multi{notifier.Log{Logger: lg.Logger}}
		if cfg.Notifications.Tray {
			multi = append(multi, notifier.NewTray(cfg.Notifications.LockDir))
		}
		n = multi
	}

	clk := clock.Real{}
	ids := clock.UUIDGenerator{}
	engine := timer.NewEngine(clk, timer.PomodoroConfig{
		Work:  cfg.Pomodoro.Work(),
		Break: cfg.Pomodoro.Break(),
	}, n, lg.Logger)

	appCtx := &cli.Context{
		Store:      store,
		Tracker:    tracker.NewService(store, engine, clk, ids, cfg.Currency.USDToMMK, lg.Logger),
		Timetable:  timetable.NewService(store, clk, ids, lg.Logger),
		Config:     cfg,
		ConfigPath: configPath,
		Clock:      clk,
		Logger:     lg.Logger,
	}

	command := strings.Fields(ctx.Command())
	if len(command) > 0 && !noLoad[command[0]] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(lg.Logger, err)
		}
	}

	lg.Debug("running command", "command", ctx.Command(), "storage", cfg.Storage.Type)
	if err := ctx.Run(appCtx); err != nil {
		apperrors.Fatal(lg.Logger, err)
	}
}

func openStore(cfg *config.Config, lg *logger.Logger) (storage.Provider, error) {
	switch cfg.Storage.Type {
	case "json":
		return storage.NewJSONStore(cfg.Storage.Path), nil
	case "postgres":
		if cfg.Storage.ConnectionString != "" {
			if _, err := postgres.ValidateConnString(cfg.Storage.ConnectionString); err != nil {
				if errors.Is(err, postgres.ErrEmbeddedCredentials) {
					return nil, fmt.Errorf("storage.connection_string must not embed a password: store it with '%s config set-connection' or set %s", constants.AppName, constants.ConnectionEnvVar)
				}
				return nil, err
			}
		}
		connStr, err := keyring.ResolveConnectionString(cfg.Storage.ConnectionString)
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr, lg.Logger), nil
	default:
		return sqlite.NewStore(cfg.Storage.Path, lg.Logger), nil
	}
}
