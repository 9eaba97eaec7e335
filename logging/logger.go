// Package logging provides the structured-event sink the session core
// writes through (application.Logger) and its production file-backed
// implementation: one append-only file per run, named with the moment the
// process started.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/diodelass/Teamech-Desktop/application"
)

// FileLogger appends one line per call to the append-only log file opened
// for this run, under $HOME/.teamech-logs/desktop/. Each line is formatted
// "[<unix-millis>][<local-iso>] <message>".
type FileLogger struct {
	mu    sync.Mutex
	file  *os.File
	clock application.Clock
}

// NewFileLogger creates (and creates parent directories for) the log file
// for the current run: $HOME/.teamech-logs/desktop/<YYYY-MM-DD
// HH:MM:SS>-teamech-desktop.log, stamped with the moment the logger opens.
// The handle is held for the process lifetime.
func NewFileLogger(homeDir string, clock application.Clock) (*FileLogger, error) {
	dir := filepath.Join(homeDir, ".teamech-logs", "desktop")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", dir, err)
	}

	stamp := clock.Now().Format("2006-01-02 15:04:05")
	path := filepath.Join(dir, fmt.Sprintf("%s-teamech-desktop.log", stamp))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", path, err)
	}

	return &FileLogger{file: f, clock: clock}, nil
}

func (l *FileLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	message := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("[%d][%s] %s\n", now.UnixMilli(), now.Format("2006-01-02T15:04:05-07:00"), message)
	_, _ = l.file.WriteString(line)
}

// Close releases the log file handle.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
