package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Logger provides leveled logging (info/warning/error) to stdout/stderr and,
// when a log directory is set, to per-level files.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string
	files      []*os.File
	mu         sync.Mutex
}

// NewLogger creates a console-only Logger when logDir is empty, otherwise it
// ensures the directory exists and tees every level into its own file.
func NewLogger(logDir string) (*Logger, error) {
	l := &Logger{logDir: logDir}

	infoWriter := io.Writer(os.Stdout)
	warningWriter := io.Writer(os.Stdout)
	errorWriter := io.Writer(os.Stderr)

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create log directory")
		}

		infoFile, err := l.openLogFile("info.log")
		if err != nil {
			return nil, err
		}
		warningFile, err := l.openLogFile("warning.log")
		if err != nil {
			l.Close()
			return nil, err
		}
		errorFile, err := l.openLogFile("error.log")
		if err != nil {
			l.Close()
			return nil, err
		}

		infoWriter = io.MultiWriter(os.Stdout, infoFile)
		warningWriter = io.MultiWriter(os.Stdout, warningFile)
		errorWriter = io.MultiWriter(os.Stderr, errorFile)
	}

	l.setupLoggers(infoWriter, warningWriter, errorWriter)
	return l, nil
}

// New builds a Logger on top of arbitrary writers.
func New(info, warning, errOut io.Writer) *Logger {
	l := &Logger{}
	l.setupLoggers(info, warning, errOut)
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, io.Discard, io.Discard)
}

func (l *Logger) setupLoggers(info, warning, errOut io.Writer) {
	l.infoLog = log.New(info, "ℹ️  INFO    ", log.Ldate|log.Ltime)
	l.warningLog = log.New(warning, "⚠️  WARNING ", log.Ldate|log.Ltime)
	l.errorLog = log.New(errOut, "❌ ERROR   ", log.Ldate|log.Ltime)
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(name string) (*os.File, error) {
	path := filepath.Join(l.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	l.files = append(l.files, file)
	return file, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Close closes any open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	for _, f := range l.files {
		err = multierr.Append(err, f.Close())
	}
	l.files = nil
	return err
}
