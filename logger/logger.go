// Package logger provides leveled logging for the fit commands on top of the
// standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging threshold.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel maps a level name to a Level. Unknown names map to InfoLevel.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

type leveled struct {
	level  Level
	logger *log.Logger
}

var std = &leveled{
	level:  InfoLevel,
	logger: log.New(os.Stderr, "", log.LstdFlags),
}

// Init sets the threshold and the prefix of the package logger.
func Init(level, prefix string) {
	std = &leveled{
		level:  ParseLevel(level),
		logger: log.New(os.Stderr, prefix, log.LstdFlags),
	}
}

// SetOutput redirects the package logger.
func SetOutput(w io.Writer) {
	std.logger.SetOutput(w)
}

// Enabled reports whether messages at l are emitted.
func Enabled(l Level) bool {
	return std.level <= l
}

func output(l Level, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	_ = std.logger.Output(3, "["+l.String()+"] "+fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) { output(DebugLevel, format, args...) }
func Info(format string, args ...interface{})  { output(InfoLevel, format, args...) }
func Warn(format string, args ...interface{})  { output(WarnLevel, format, args...) }
func Error(format string, args ...interface{}) { output(ErrorLevel, format, args...) }
