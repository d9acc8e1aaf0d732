package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/studylit/internal/constants"
)

// Config is the studylit configuration file.
type Config struct {
	Debug         bool           `toml:"debug"`
	RetentionDays int            `toml:"retention_days"`
	Storage       StorageConfig  `toml:"storage"`
	Pomodoro      PomodoroConfig `toml:"pomodoro"`
	Ticks         TickConfig     `toml:"ticks"`
	Currency      CurrencyConfig `toml:"currency"`
	Notifications NotifyConfig   `toml:"notifications"`
}

// StorageConfig selects the storage backend.
// The Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"`           // "sqlite" (default), "json" or "postgres"
	Path string `toml:"path,omitempty"` // sqlite and json only
	// ConnectionString must not embed a password; see keyring.
	ConnectionString string `toml:"connection_string,omitempty"`
}

type PomodoroConfig struct {
	WorkMinutes  int `toml:"work_minutes"`
	BreakMinutes int `toml:"break_minutes"`
}

func (p PomodoroConfig) Work() time.Duration  { return time.Duration(p.WorkMinutes) * time.Minute }
func (p PomodoroConfig) Break() time.Duration { return time.Duration(p.BreakMinutes) * time.Minute }

// TickConfig holds the two independent refresh cadences of the dashboard.
type TickConfig struct {
	TimerMillis      int `toml:"timer_ms"`
	ReconcileSeconds int `toml:"reconcile_seconds"`
}

func (t TickConfig) Timer() time.Duration {
	return time.Duration(t.TimerMillis) * time.Millisecond
}

func (t TickConfig) Reconcile() time.Duration {
	return time.Duration(t.ReconcileSeconds) * time.Second
}

type CurrencyConfig struct {
	USDToMMK float64 `toml:"usd_to_mmk"`
	Display  string  `toml:"display"` // "USD" or "MMK"
}

type NotifyConfig struct {
	Enabled bool   `toml:"enabled"`
	Tray    bool   `toml:"tray"`
	LockDir string `toml:"lock_dir,omitempty"`
}

// Default returns a Config with every field set to its default.
func Default(configDir string) *Config {
	return &Config{
		RetentionDays: constants.DefaultRetentionDays,
		Storage: StorageConfig{
			Type: "sqlite",
			Path: filepath.Join(configDir, constants.DefaultDBFile),
		},
		Pomodoro: PomodoroConfig{
			WorkMinutes:  constants.DefaultWorkMinutes,
			BreakMinutes: constants.DefaultBreakMinutes,
		},
		Ticks: TickConfig{
			TimerMillis:      int(constants.DefaultTimerTick / time.Millisecond),
			ReconcileSeconds: int(constants.DefaultReconcileEvery / time.Second),
		},
		Currency: CurrencyConfig{
			USDToMMK: constants.DefaultUSDToMMK,
			Display:  constants.DefaultCurrency,
		},
		Notifications: NotifyConfig{Enabled: true, Tray: true, LockDir: configDir},
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults(configDir string) {
	d := Default(configDir)
	if c.RetentionDays <= 0 {
		c.RetentionDays = d.RetentionDays
	}
	if c.Storage.Type == "" {
		c.Storage.Type = d.Storage.Type
	}
	if c.Storage.Path == "" && c.Storage.Type != "postgres" {
		c.Storage.Path = d.Storage.Path
		if c.Storage.Type == "json" {
			c.Storage.Path = filepath.Join(configDir, constants.AppName+".json")
		}
	}
	if c.Pomodoro.WorkMinutes <= 0 {
		c.Pomodoro.WorkMinutes = d.Pomodoro.WorkMinutes
	}
	if c.Pomodoro.BreakMinutes <= 0 {
		c.Pomodoro.BreakMinutes = d.Pomodoro.BreakMinutes
	}
	if c.Ticks.TimerMillis <= 0 {
		c.Ticks.TimerMillis = d.Ticks.TimerMillis
	}
	if c.Ticks.ReconcileSeconds <= 0 {
		c.Ticks.ReconcileSeconds = d.Ticks.ReconcileSeconds
	}
	if c.Currency.USDToMMK <= 0 {
		c.Currency.USDToMMK = d.Currency.USDToMMK
	}
	if c.Currency.Display == "" {
		c.Currency.Display = d.Currency.Display
	}
	if c.Notifications.LockDir == "" {
		c.Notifications.LockDir = d.Notifications.LockDir
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Type {
	case "sqlite", "json":
	case "postgres":
		if c.Storage.ConnectionString == "" {
			errs = append(errs, errors.New("storage.connection_string is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	if d := strings.ToUpper(c.Currency.Display); d != "USD" && d != "MMK" {
		errs = append(errs, fmt.Errorf("unknown display currency %q", c.Currency.Display))
	}
	return errors.Join(errs...)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config file at path, falling back to defaults when it does
// not exist. Missing fields take their defaults.
func Load(path string) (*Config, error) {
	configDir := filepath.Dir(path)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(configDir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	cfg.applyDefaults(configDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a default config file, refusing to overwrite an existing one.
func Init(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config file already exists at %s", path)
	}
	cfg := Default(filepath.Dir(path))
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
