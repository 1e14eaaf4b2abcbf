// Package logger provides the process-wide leveled logger. Console output goes
// to stderr; when a log folder is configured every entry is also written to a
// file at DEBUG level.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

const (
	module      = "bugracer"
	logFileName = "bugracer.log"
	timeFormat  = "2006/01/02 15:04:05"
)

var (
	mu      sync.Mutex
	logger  *logging.Logger
	logFile *os.File
)

func init() {
	// Quiet default until InitLogger runs, so library users and tests only see problems.
	InitLogger(logging.WARNING, "")
}

// InitLogger installs the console backend at the given level and, when logDir
// is not empty, a DEBUG file backend under logDir.
func InitLogger(level logging.Level, logDir string) {
	mu.Lock()
	defer mu.Unlock()

	newLogger := logging.MustGetLogger(module)
	backends := make([]logging.Backend, 0, 2)

	console := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), newFormatter(true))
	leveled := logging.AddModuleLevel(console)
	leveled.SetLevel(level, module)
	backends = append(backends, leveled)

	if logDir != "" {
		if fileBackend := initFileBackend(logDir); fileBackend != nil {
			leveledFile := logging.AddModuleLevel(fileBackend)
			leveledFile.SetLevel(logging.DEBUG, module)
			backends = append(backends, leveledFile)
		}
	}

	newLogger.SetBackend(logging.MultiLogger(backends...))
	logger = newLogger
}

func initFileBackend(logDir string) logging.Backend {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}
	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// ParseLevel maps a config value such as "debug" or "warn" to a level.
func ParseLevel(s string) (logging.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return logging.INFO, nil
	case "debug":
		return logging.DEBUG, nil
	case "notice":
		return logging.NOTICE, nil
	case "warn", "warning":
		return logging.WARNING, nil
	case "error":
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %q", s)
}

// CloseLogger closes the log file, if any.
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func current() *logging.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func Debug(args ...any) {
	current().Debug(args...)
}

func Debugf(format string, args ...any) {
	current().Debugf(format, args...)
}

func Info(args ...any) {
	current().Info(args...)
}

func Infof(format string, args ...any) {
	current().Infof(format, args...)
}

func Notice(args ...any) {
	current().Notice(args...)
}

func Noticef(format string, args ...any) {
	current().Noticef(format, args...)
}

func Warning(args ...any) {
	current().Warning(args...)
}

func Warningf(format string, args ...any) {
	current().Warningf(format, args...)
}

func Error(args ...any) {
	current().Error(args...)
}

func Errorf(format string, args ...any) {
	current().Errorf(format, args...)
}
