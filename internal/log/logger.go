// Package log provides a global logger with configurable logging level. The intended use is for
// development builds.

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anomalies that are not expected to occur during normal use.
	LevelWarning              // Logs anomalies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events.
	LevelDebug                // Logs detailed IO
)

var zerologLevels = map[Level]zerolog.Level{
	LevelNone:    zerolog.Disabled,
	LevelError:   zerolog.ErrorLevel,
	LevelWarning: zerolog.WarnLevel,
	LevelInfo:    zerolog.InfoLevel,
	LevelDebug:   zerolog.DebugLevel,
}

var (
	logMutex     sync.Mutex
	globalLogger = newLogger(os.Stderr, LevelNone)
)

func newLogger(w io.Writer, level Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(out).Level(zerologLevels[level]).With().Timestamp().Logger()
}

// SetLevel changes the global logging level. LevelNone silences the logger.
func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	globalLogger = globalLogger.Level(zerologLevels[level])
}

// SetOutput redirects log output to w, keeping the current level.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	globalLogger = newLogger(w, LevelNone).Level(globalLogger.GetLevel())
}

func logger() *zerolog.Logger {
	logMutex.Lock()
	defer logMutex.Unlock()
	l := globalLogger
	return &l
}

// With returns a logger that adds key=value to every message. It follows the global level at the
// time of the call.
func With(key string, value interface{}) zerolog.Logger {
	return logger().With().Interface(key, value).Logger()
}

func Debug(format string, a ...interface{}) {
	logger().Debug().Msg(fmt.Sprintf(format, a...))
}
func Info(format string, a ...interface{}) {
	logger().Info().Msg(fmt.Sprintf(format, a...))
}
func Warning(format string, a ...interface{}) {
	logger().Warn().Msg(fmt.Sprintf(format, a...))
}
func Error(format string, a ...interface{}) {
	logger().Error().Msg(fmt.Sprintf(format, a...))
}
