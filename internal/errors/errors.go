package errors

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Report logs err and prints it to w. It returns false when err is nil.
func Report(logger *log.Logger, w io.Writer, err error) bool {
	if err == nil {
		return false
	}
	if logger != nil {
		logger.Error("Command execution failed", "error", err)
	}
	fmt.Fprintln(w, Format(err))
	return true
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(logger *log.Logger, err error) {
	if Report(logger, os.Stderr, err) {
		os.Exit(1)
	}
}
