package tmplog

import (
	"strconv"
	"strings"

	"pkt.systems/tmplog/ansi"
)

// ConsoleEncoder renders records as single human readable lines:
//
//	021504 INF [orders] Order 42 shipped to alice requestId=7 eventId=1001
//
// Properties already shown through the message holes are not repeated.
// Scope messages follow the message as " => scope". An attached error is
// printed as error="..." and its stack, if any, on the following lines.
type ConsoleEncoder struct {
	times   *timeCache
	noTime  bool
	color   bool
	palette *ansi.Palette
}

// NewConsoleEncoder returns a console encoder. Colour is on unless
// opts.NoColor is set.
func NewConsoleEncoder(opts EncoderOptions) *ConsoleEncoder {
	layout := opts.TimeFormat
	if layout == "" {
		layout = DTGTimeFormat
	}
	return &ConsoleEncoder{
		times:   newTimeCache(layout, opts.UTC),
		noTime:  opts.DisableTimestamp,
		color:   !opts.NoColor,
		palette: resolvePalette(opts.Palette),
	}
}

// Encode implements Encoder.
func (e *ConsoleEncoder) Encode(dst []byte, rec *Record) []byte {
	if !e.noTime {
		dst = e.open(dst, e.palette.Timestamp)
		dst = appendTimestamp(dst, e.times, rec.Timestamp)
		dst = e.close(dst, e.palette.Timestamp)
		dst = append(dst, ' ')
	}
	levelColor := e.levelColor(rec.Level)
	dst = e.open(dst, levelColor)
	dst = append(dst, consoleLevelLabel(rec.Level)...)
	dst = e.close(dst, levelColor)
	if rec.Category != "" {
		dst = append(dst, ' ')
		dst = e.open(dst, e.palette.Category)
		dst = append(dst, '[')
		dst = appendConsoleText(dst, rec.Category)
		dst = append(dst, ']')
		dst = e.close(dst, e.palette.Category)
	}
	if rec.Message != "" {
		dst = append(dst, ' ')
		dst = e.open(dst, e.palette.Message)
		dst = appendConsoleText(dst, rec.Message)
		dst = e.close(dst, e.palette.Message)
	}
	for _, s := range rec.Scopes {
		if s.Message == "" {
			continue
		}
		dst = append(dst, " => "...)
		dst = e.open(dst, e.palette.Scope)
		dst = appendConsoleText(dst, s.Message)
		dst = e.close(dst, e.palette.Scope)
	}
	holes := holeNames(rec)
	for i := 0; i < rec.Properties.Len(); i++ {
		p := rec.Properties.At(i)
		if _, shown := holes[p.Name]; shown {
			continue
		}
		dst = e.appendKey(dst, p.Name)
		dst = e.appendValue(dst, p.Value)
	}
	if !rec.EventID.IsZero() {
		dst = e.appendKey(dst, "eventId")
		dst = e.appendString(dst, rec.EventID.String())
	}
	if rec.ExceptionMessage != "" {
		dst = e.appendKey(dst, "error")
		dst = e.open(dst, e.palette.Error)
		dst = appendConsoleQuoted(dst, rec.ExceptionMessage)
		dst = e.close(dst, e.palette.Error)
	}
	dst = append(dst, '\n')
	for line := range strings.SplitSeq(strings.TrimRight(rec.ExceptionStack, "\n"), "\n") {
		if line == "" {
			continue
		}
		dst = appendConsoleText(dst, strings.ReplaceAll(line, "\t", "    "))
		dst = append(dst, '\n')
	}
	return dst
}

func (e *ConsoleEncoder) open(dst []byte, color string) []byte {
	if !e.color || color == "" {
		return dst
	}
	return append(dst, color...)
}

func (e *ConsoleEncoder) close(dst []byte, color string) []byte {
	if !e.color || color == "" {
		return dst
	}
	return append(dst, ansi.Reset...)
}

func (e *ConsoleEncoder) appendKey(dst []byte, key string) []byte {
	dst = append(dst, ' ')
	dst = e.open(dst, e.palette.Key)
	dst = appendConsoleValue(dst, key)
	dst = append(dst, '=')
	return e.close(dst, e.palette.Key)
}

func (e *ConsoleEncoder) appendString(dst []byte, s string) []byte {
	dst = e.open(dst, e.palette.String)
	dst = appendConsoleValue(dst, s)
	return e.close(dst, e.palette.String)
}

func (e *ConsoleEncoder) appendValue(dst []byte, v Value) []byte {
	switch v.Kind() {
	case KindNull:
		dst = e.open(dst, e.palette.Nil)
		dst = append(dst, "null"...)
		return e.close(dst, e.palette.Nil)
	case KindBool:
		dst = e.open(dst, e.palette.Bool)
		dst = strconv.AppendBool(dst, v.Bool())
		return e.close(dst, e.palette.Bool)
	case KindInt64:
		dst = e.open(dst, e.palette.Num)
		dst = strconv.AppendInt(dst, v.Int64(), 10)
		return e.close(dst, e.palette.Num)
	case KindFloat64:
		dst = e.open(dst, e.palette.Num)
		dst = strconv.AppendFloat(dst, v.Float64(), 'f', -1, 64)
		return e.close(dst, e.palette.Num)
	case KindDateTime:
		dst = e.open(dst, e.palette.String)
		dst = appendRFC3339(dst, v.Time(), true)
		return e.close(dst, e.palette.String)
	default:
		return e.appendString(dst, v.Str())
	}
}

func (e *ConsoleEncoder) levelColor(level Level) string {
	switch level {
	case TraceLevel:
		return e.palette.Trace
	case DebugLevel:
		return e.palette.Debug
	case InfoLevel:
		return e.palette.Info
	case WarnLevel:
		return e.palette.Warn
	case ErrorLevel:
		return e.palette.Error
	case CriticalLevel:
		return e.palette.Critical
	default:
		return e.palette.Nil
	}
}
