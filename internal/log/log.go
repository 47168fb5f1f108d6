// Package log provides structured, colored logging for mintgate.
//
// Logs go to stderr so command output on stdout stays machine-readable.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Gate    zerolog.Logger
	Ledger  zerolog.Logger
	Runtime zerolog.Logger
	Storage zerolog.Logger
	Keys    zerolog.Logger
)

const consoleTimeFormat = "15:04:05"

// logFile is the --log-file handle opened by Init, closed by Close.
var logFile *os.File

func init() {
	setLogger(NewConsoleLogger(os.Stderr, "info"))
}

// Init replaces the global logger. Console output is colored unless
// jsonOutput is set. A non-empty file additionally receives JSON lines
// until Close.
func Init(level string, jsonOutput bool, file string) error {
	if err := Close(); err != nil {
		return err
	}
	var w io.Writer = os.Stderr
	if !jsonOutput {
		w = consoleWriter(os.Stderr)
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = zerolog.MultiLevelWriter(w, f)
	}
	setLogger(build(w, level))
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return build(consoleWriter(w), level)
}

// NewJSONLogger creates a logger that writes one JSON object per line.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return build(w, level)
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
}

func build(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// parseLevel maps a level name to a zerolog level, falling back to info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func setLogger(l zerolog.Logger) {
	Logger = l
	Gate = WithComponent("gate")
	Ledger = WithComponent("ledger")
	Runtime = WithComponent("runtime")
	Storage = WithComponent("storage")
	Keys = WithComponent("keys")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithMint returns base with a mint field.
func WithMint(base zerolog.Logger, mint string) zerolog.Logger {
	return base.With().Str("mint", mint).Logger()
}

// Close closes the log file opened by Init, if any, and falls back to
// console output.
func Close() error {
	if logFile == nil {
		return nil
	}
	setLogger(NewConsoleLogger(os.Stderr, Logger.GetLevel().String()))
	err := logFile.Close()
	logFile = nil
	return err
}

// Disable silences all loggers. Used in tests.
func Disable() {
	setLogger(zerolog.Nop())
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
