// Package logger provides the structured logging interface used across the
// client, backed by zerolog. Loggers can write JSON lines, human-readable
// console output, and optionally a copy to a daily log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for building a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled, structured log entries.
type Logger interface {
	// Debug logs a message at debug level with optional structured fields.
	Debug(msg string, fields ...Field)

	// Info logs a message at info level with optional structured fields.
	Info(msg string, fields ...Field)

	// Warn logs a message at warn level with optional structured fields.
	Warn(msg string, fields ...Field)

	// Error logs a message at error level with optional structured fields.
	Error(msg string, fields ...Field)

	// With returns a derived Logger that adds fields to every entry. The
	// receiver is unchanged.
	//
	// Parameters:
	//   - fields: Key-value pairs to attach to the derived logger
	//
	// Returns:
	//   - A new Logger with the specified fields
	With(fields ...Field) Logger

	// Close releases resources held by the logger (e.g. file handles). Derived
	// loggers do not own the file and their Close is a no-op. It is safe to
	// call multiple times.
	Close() error
}

// Options configures Open.
type Options struct {
	// Name is added as the "app" field and used for log file names.
	Name string
	// Level is a zerolog level name such as "debug" or "info".
	Level string
	// Console selects human-readable output instead of JSON lines.
	Console bool
	// Dir, when set, also writes JSON lines to a daily file in this directory.
	Dir string
	// Out is the primary destination; os.Stderr when nil.
	Out io.Writer
}

type zerologLogger struct {
	logger zerolog.Logger
	file   *DailyFileWriter
}

// New returns a Logger writing JSON lines to w.
//
// Parameters:
//   - w: Destination for log entries
//   - level: Minimum level to write
//
// Returns:
//   - A Logger backed by zerolog
func New(w io.Writer, level zerolog.Level) Logger {
	return &zerologLogger{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// NewConsole returns a Logger writing colourless human-readable lines to w.
func NewConsole(w io.Writer, level zerolog.Level) Logger {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return New(cw, level)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

// ParseLevel parses a level name, case-insensitively. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}

	return level, nil
}

// Open builds a Logger from opts. When opts.Dir is set the directory is
// created if needed and entries are also appended to a daily file there.
//
// Parameters:
//   - opts: Output configuration
//
// Returns:
//   - The Logger; callers must Close it to release the log file
//   - An error if the level is invalid or the log file cannot be opened
func Open(opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "15:04:05"}
	}

	var file *DailyFileWriter
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err = NewDailyFileWriter(opts.Name, opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, file)
	}

	zl := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Name != "" {
		zl = zl.Str("app", opts.Name)
	}

	return &zerologLogger{logger: zl.Logger(), file: file}, nil
}

func (z *zerologLogger) Debug(msg string, fields ...Field) {
	z.logger.Debug().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...Field) {
	z.logger.Info().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...Field) {
	z.logger.Warn().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...Field) {
	z.logger.Error().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{logger: z.logger.With().Fields(toMap(fields)).Logger()}
}

func (z *zerologLogger) Close() error {
	if z.file == nil {
		return nil
	}

	return z.file.Close()
}

func toMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			m[f.Key] = err.Error()
			continue
		}
		m[f.Key] = f.Value
	}

	return m
}
