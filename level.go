package tmplog

import (
	"os"
	"strings"
)

// Level defines log levels. Levels are ordered; a record is emitted by a sink
// when its level is at or above the sink's minimum level.
type Level int8

const (
	// TraceLevel defines trace log level.
	TraceLevel Level = iota
	// DebugLevel defines debug log level.
	DebugLevel
	// InfoLevel defines information log level.
	InfoLevel
	// WarnLevel defines warning log level.
	WarnLevel
	// ErrorLevel defines error log level.
	ErrorLevel
	// CriticalLevel defines critical log level.
	CriticalLevel
	// NoneLevel disables logging when used as a minimum level.
	NoneLevel
)

// ParseLevel converts a textual level into a Level value. It accepts values
// such as "trace", "verbose", "debug", "info", "information", "warn",
// "warning", "error", "critical", "fatal", "none", "off" and the three letter
// console abbreviations (case insensitive).
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "trc", "verbose", "vrb":
		return TraceLevel, true
	case "debug", "dbg":
		return DebugLevel, true
	case "info", "inf", "information":
		return InfoLevel, true
	case "warn", "wrn", "warning":
		return WarnLevel, true
	case "error", "err", "eror":
		return ErrorLevel, true
	case "critical", "crt", "fatal", "ftl":
		return CriticalLevel, true
	case "none", "off", "disabled":
		return NoneLevel, true
	default:
		return InfoLevel, false
	}
}

// LevelString returns the canonical string representation of a Level.
func LevelString(level Level) string {
	switch level {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "information"
	case WarnLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	case NoneLevel:
		return "none"
	default:
		return "information"
	}
}

// String implements fmt.Stringer.
func (l Level) String() string {
	return LevelString(l)
}

// Enabled reports whether a record at level l passes the minimum level min.
// NoneLevel records are never enabled.
func (l Level) Enabled(min Level) bool {
	if l >= NoneLevel || min >= NoneLevel {
		return false
	}
	return l >= min
}

// LevelFromEnv looks up key in the environment and parses it into a Level.
func LevelFromEnv(key string) (Level, bool) {
	if key == "" {
		return InfoLevel, false
	}
	value, ok := os.LookupEnv(key)
	if !ok {
		return InfoLevel, false
	}
	return ParseLevel(value)
}

func consoleLevelLabel(level Level) string {
	switch level {
	case TraceLevel:
		return "TRC"
	case DebugLevel:
		return "DBG"
	case InfoLevel:
		return "INF"
	case WarnLevel:
		return "WRN"
	case ErrorLevel:
		return "ERR"
	case CriticalLevel:
		return "CRT"
	default:
		return "???"
	}
}
