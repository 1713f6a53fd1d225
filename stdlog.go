package tmplog

import (
	"bytes"
	"log"
	"strings"
)

// StdLogger returns a *log.Logger writing every line to l at level. Lines are
// logged verbatim; braces are not treated as template holes.
func StdLogger(l *Logger, level Level) *log.Logger {
	return log.New(levelPinnedWriter{logger: l, level: level}, "", 0)
}

// StdLoggerDetect returns a *log.Logger that derives the level of each line
// from a leading "[LEVEL]" tag or level word such as "warning:", defaulting to
// information.
func StdLoggerDetect(l *Logger) *log.Logger {
	return log.New(detectingWriter{logger: l}, "", 0)
}

func classifyLineLevel(line string) (Level, string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end > 1 {
			if lvl, ok := ParseLevel(trimmed[1:end]); ok && lvl != NoneLevel {
				return lvl, strings.TrimSpace(trimmed[end+1:])
			}
		}
	}
	word := trimmed
	if i := strings.IndexAny(word, " :-"); i >= 0 {
		word = word[:i]
	}
	if lvl, ok := ParseLevel(word); ok && lvl != NoneLevel && len(word) > 3 {
		tail := strings.TrimLeft(trimmed[len(word):], ":- ")
		return lvl, strings.TrimSpace(tail)
	}
	return InfoLevel, trimmed
}

func eachLine(p []byte, fn func(line string)) {
	for line := range bytes.SplitSeq(p, []byte{'\n'}) {
		line = bytes.TrimSpace(bytes.TrimSuffix(line, []byte{'\r'}))
		if len(line) == 0 {
			continue
		}
		fn(string(line))
	}
}

type detectingWriter struct {
	logger *Logger
}

func (w detectingWriter) Write(p []byte) (int, error) {
	eachLine(p, func(line string) {
		level, msg := classifyLineLevel(line)
		w.logger.logLiteral(level, msg)
	})
	return len(p), nil
}

type levelPinnedWriter struct {
	logger *Logger
	level  Level
}

func (w levelPinnedWriter) Write(p []byte) (int, error) {
	eachLine(p, func(line string) {
		w.logger.logLiteral(w.level, line)
	})
	return len(p), nil
}
