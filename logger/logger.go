package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	LevelDebug LogLevel = 0
	LevelInfo  LogLevel = 1
	LevelWarn  LogLevel = 2
	LevelError LogLevel = 3
	LevelNone  LogLevel = 99
)

var levels = map[string]LogLevel{
	"DEBUG": LevelDebug,
	"INFO":  LevelInfo,
	"WARN":  LevelWarn,
	"ERROR": LevelError,
	"NONE":  LevelNone,
}

func Levelify(levelString string) (LogLevel, error) {
	upperLevelString := strings.ToUpper(levelString)
	level, ok := levels[upperLevelString]
	if !ok {
		expectedLevelKeys := make([]string, 0, len(levels))
		for k := range levels {
			expectedLevelKeys = append(expectedLevelKeys, k)
		}
		return level, fmt.Errorf("Unknown LogLevel string '%s', expected one of [%s]", levelString, strings.Join(expectedLevelKeys, ", "))
	}
	return level, nil
}

type Logger interface {
	Debug(tag, msg string, args ...interface{})
	DebugWithDetails(tag, msg string, args ...interface{})
	Info(tag, msg string, args ...interface{})
	Warn(tag, msg string, args ...interface{})
	Error(tag, msg string, args ...interface{})
	ErrorWithDetails(tag, msg string, args ...interface{})
	HandlePanic(tag string)
	ToggleForcedDebug()
	Flush() error
	FlushTimeout(time.Duration) error
}

type logger struct {
	level       LogLevel
	logger      *log.Logger
	forcedDebug bool
	mu          sync.Mutex
}

func NewLogger(level LogLevel) Logger {
	return NewWriterLogger(level, os.Stderr)
}

func NewWriterLogger(level LogLevel, writer io.Writer) Logger {
	return &logger{
		level:  level,
		logger: log.New(writer, "", log.LstdFlags),
	}
}

func (l *logger) Debug(tag, msg string, args ...interface{}) {
	if !l.enabled(LevelDebug) {
		return
	}

	l.printf(tag, "DEBUG - "+msg, args...)
}

// DebugWithDetails splits the last argument out onto its own block. Use it
// for values that are long or multi-line.
func (l *logger) DebugWithDetails(tag, msg string, args ...interface{}) {
	msg = msg + "\n********************\n%s\n********************"
	l.Debug(tag, msg, args...)
}

func (l *logger) Info(tag, msg string, args ...interface{}) {
	if !l.enabled(LevelInfo) {
		return
	}

	l.printf(tag, "INFO - "+msg, args...)
}

func (l *logger) Warn(tag, msg string, args ...interface{}) {
	if !l.enabled(LevelWarn) {
		return
	}

	l.printf(tag, "WARN - "+msg, args...)
}

func (l *logger) Error(tag, msg string, args ...interface{}) {
	if !l.enabled(LevelError) {
		return
	}

	l.printf(tag, "ERROR - "+msg, args...)
}

func (l *logger) ErrorWithDetails(tag, msg string, args ...interface{}) {
	msg = msg + "\n********************\n%s\n********************"
	l.Error(tag, msg, args...)
}

func (l *logger) HandlePanic(tag string) {
	if r := recover(); r != nil {
		l.logPanic(tag, r)
		os.Exit(2)
	}
}

func (l *logger) ToggleForcedDebug() {
	l.mu.Lock()
	l.forcedDebug = !l.forcedDebug
	l.mu.Unlock()
}

func (l *logger) Flush() error { return nil }

func (l *logger) FlushTimeout(_ time.Duration) error { return nil }

func (l *logger) logPanic(tag string, r interface{}) {
	var err error
	switch t := r.(type) {
	case error:
		err = t
	default:
		err = fmt.Errorf("%v", t)
	}
	l.ErrorWithDetails(tag, "Panic: %s", err.Error(), debug.Stack())
}

func (l *logger) enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forcedDebug || l.level <= level
}

func (l *logger) printf(tag, msg string, args ...interface{}) {
	l.logger.Printf(fmt.Sprintf("[%s] %s", tag, msg), args...)
}
