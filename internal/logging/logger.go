// Package logging provides the leveled logger used across ocrrename.
//
// The logger is backed by zerolog. Console output is either a colored,
// human-readable line per event or JSON lines (--log-format json). Errors go
// to stderr, everything else to stdout. An optional log file receives JSON
// lines for every event regardless of the console format.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/backmassage/ocrrename/internal/config"
	"github.com/backmassage/ocrrename/internal/term"
)

// levelSuccess is written into the level field of Success events. zerolog
// has no such level; events are logged at NoLevel and tagged by hand.
const levelSuccess = "success"

// Logger provides leveled, optionally colored logging with an optional file sink.
type Logger struct {
	mu   sync.Mutex
	zl   zerolog.Logger
	file *os.File
}

// NewLogger builds a logger writing to the process stdout and stderr.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return New(cfg, os.Stdout, os.Stderr)
}

// New configures colors from cfg and builds a logger writing informational
// events to out and errors to errOut. It opens cfg.LogFile when set; call
// Close when done.
func New(cfg *config.Config, out, errOut io.Writer) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	stdout, stderr := out, errOut
	if cfg.LogFormat != config.LogJSON {
		stdout, stderr = consoleWriter(out), consoleWriter(errOut)
	}
	writers := []io.Writer{
		levelFilter{w: stdout, accept: func(l zerolog.Level) bool { return l < zerolog.ErrorLevel || l == zerolog.NoLevel }},
		levelFilter{w: stderr, accept: func(l zerolog.Level) bool { return l >= zerolog.ErrorLevel && l != zerolog.NoLevel }},
	}

	l := &Logger{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		writers = append(writers, f)
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	l.zl = zerolog.New(zerolog.SyncWriter(zerolog.MultiLevelWriter(writers...))).
		Level(level).
		With().Timestamp().Logger()
	return l, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green). Never filtered.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Log().Str(zerolog.LevelFieldName, levelSuccess).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan); dropped unless the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// Outcome logs the result of processing one file as a structured event.
// Failures are warnings so that one bad file does not read as a run error.
func (l *Logger) Outcome(path, outcome, dest, reason string) {
	var evt *zerolog.Event
	switch outcome {
	case "failed":
		evt = l.zl.Warn()
	case "renamed":
		evt = l.zl.Log().Str(zerolog.LevelFieldName, levelSuccess)
	default:
		evt = l.zl.Info()
	}
	evt = evt.Str("file", path).Str("outcome", outcome)
	msg := filepath.Base(path)
	if dest != "" {
		evt = evt.Str("dest", dest)
		msg += " -> " + filepath.Base(dest)
	}
	if reason != "" {
		evt = evt.Str("reason", reason)
	}
	evt.Msg(msg)
}

var levelColors = map[string]*color.Color{
	zerolog.LevelDebugValue: term.Cyan,
	zerolog.LevelInfoValue:  term.Blue,
	levelSuccess:            term.Green,
	zerolog.LevelWarnValue:  term.Yellow,
	zerolog.LevelErrorValue: term.Red,
}

// consoleWriter renders events as "2006-01-02 15:04:05 [LEVEL] message key=value".
func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !term.Enabled(),
		TimeFormat: "2006-01-02 15:04:05",
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			label := "[" + strings.ToUpper(s) + "]"
			if c, ok := levelColors[s]; ok {
				return c.Sprint(label)
			}
			return label
		},
	}
}

// levelFilter forwards only the events whose level accept returns true for.
type levelFilter struct {
	w      io.Writer
	accept func(zerolog.Level) bool
}

func (f levelFilter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if !f.accept(l) {
		return len(p), nil
	}
	return f.w.Write(p)
}
