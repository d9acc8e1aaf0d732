package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/studylit/internal/constants"
)

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr receives a copy of the log in debug mode. Defaults to os.Stderr.
	Stderr io.Writer
}

// Logger wraps a charmbracelet logger together with its rotating log file.
type Logger struct {
	*log.Logger
	file *lumberjack.Logger
}

// New creates a logger writing to <ConfigDir>/logs/studylit.log. In debug
// mode it also mirrors to stderr and reports callers.
func New(cfg Config) (*Logger, error) {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.InfoLevel
	var writer io.Writer = fileWriter
	if cfg.Debug {
		level = log.DebugLevel
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writer = io.MultiWriter(stderr, fileWriter)
	}

	return &Logger{
		Logger: log.NewWithOptions(writer, log.Options{
			ReportCaller:    cfg.Debug,
			ReportTimestamp: true,
			Level:           level,
			Prefix:          constants.AppName,
		}),
		file: fileWriter,
	}, nil
}

// Discard returns a logger that writes nowhere, for tests and for commands
// that run before the config directory exists.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard)}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
