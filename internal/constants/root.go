package constants

import "time"

// SessionState represents the current view of the TUI application
type SessionState int

const (
	AppName            = "studylit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/studylit"
	DefaultDBFile      = "studylit.db"
	DefaultConfigFile  = "config.toml"
	ConnectionEnvVar   = "STUDYLIT_DB_CONNECTION"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	MinutesPerDay = 24 * 60

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "studylit-"

	// Notify constants
	NotifierLockfileName   = "studylit-notifier.lock"
	NotificationDurationMs = 5000
	NotifyTimeout          = 2 * time.Second
)

const (
	StateTimer SessionState = iota
	StateSchedule
	StateToday
	StateAddBlock
	StateAddSession
	StateConfirmDelete
)
