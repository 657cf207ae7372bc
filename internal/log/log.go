package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	root     zerolog.Logger
	rootOnce sync.Once
)

// initLogger initializes the global logger. Output is JSON on stderr unless
// APP_ENV=dev, in which case a human-readable console writer is used.
func initLogger() {
	rootOnce.Do(func() {
		root = newZerolog(os.Stderr).Level(zerolog.InfoLevel)
	})
}

func newZerolog(out io.Writer) zerolog.Logger {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a config string ("debug", "info", "error") to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	root = root.Level(zerologLevel(l))
}

// SetOutput redirects the global logger, keeping its current level.
func SetOutput(w io.Writer) {
	initLogger()
	lvl := root.GetLevel()
	root = newZerolog(w).Level(lvl)
}

func Debug(msg string, kv ...any) {
	initLogger()
	emit(root.Debug(), msg, kv)
}

func Info(msg string, kv ...any) {
	initLogger()
	emit(root.Info(), msg, kv)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	emit(root.Error().Err(err), msg, kv)
}

// Logger is a component-scoped view of the global logger.
type Logger struct {
	component string
}

// New returns a Logger that tags every line with the given component.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debug(msg string, kv ...any) {
	initLogger()
	emit(root.Debug().Str("component", l.component), msg, kv)
}

func (l *Logger) Info(msg string, kv ...any) {
	initLogger()
	emit(root.Info().Str("component", l.component), msg, kv)
}

func (l *Logger) Error(msg string, err error, kv ...any) {
	initLogger()
	emit(root.Error().Err(err).Str("component", l.component), msg, kv)
}

func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	// Expect kv as pairs: key, value, key, value, ...
	// Non-string keys are skipped; a trailing odd value is ignored.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
