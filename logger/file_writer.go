package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrWriterClosed is returned by DailyFileWriter.Write after Close.
var ErrWriterClosed = errors.New("log writer is closed")

const dateLayout = "2006-01-02"

// DailyFileWriter appends to {name}_{date}.log in a directory and switches to
// a new file on the first write of each day. Safe for concurrent use.
type DailyFileWriter struct {
	name string
	dir  string
	now  func() time.Time

	mu     sync.Mutex
	file   *os.File
	date   string
	closed bool
}

// NewDailyFileWriter opens today's log file in dir, which must exist.
//
// Parameters:
//   - name: Prefix of the log file names; "gomoku" when empty
//   - dir: Directory for log files
//
// Returns:
//   - The writer, or an error if the file could not be opened
func NewDailyFileWriter(name, dir string) (*DailyFileWriter, error) {
	return newDailyFileWriter(name, dir, time.Now)
}

func newDailyFileWriter(name, dir string, now func() time.Time) (*DailyFileWriter, error) {
	if name == "" {
		name = "gomoku"
	}

	w := &DailyFileWriter{name: name, dir: dir, now: now}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.openLocked(now().Format(dateLayout)); err != nil {
		return nil, err
	}

	return w, nil
}

// Write implements io.Writer.
func (w *DailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrWriterClosed
	}

	if date := w.now().Format(dateLayout); date != w.date {
		if err := w.openLocked(date); err != nil {
			return 0, err
		}
	}

	return w.file.Write(p)
}

// Path returns the file currently written to.
func (w *DailyFileWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pathFor(w.date)
}

// Close closes the current file. Later writes fail with ErrWriterClosed.
func (w *DailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil

	return err
}

func (w *DailyFileWriter) pathFor(date string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.log", w.name, date))
}

// openLocked switches to the file for date; caller holds w.mu.
func (w *DailyFileWriter) openLocked(date string) error {
	path := w.pathFor(date)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	if w.file != nil {
		_ = w.file.Close()
	}
	w.file = f
	w.date = date

	return nil
}
