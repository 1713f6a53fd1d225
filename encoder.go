package tmplog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"pkt.systems/tmplog/ansi"
)

// Encoder renders one Record, appending the bytes of a complete line
// (including the trailing newline) to dst. Encoders must not retain rec.
type Encoder interface {
	Encode(dst []byte, rec *Record) []byte
}

// Format selects an Encoder.
type Format uint8

const (
	// FormatConsole emits human readable lines, colour aware.
	FormatConsole Format = iota
	// FormatJSON emits one JSON object per record.
	FormatJSON
	// FormatCLEF emits compact log event format objects.
	FormatCLEF
)

// ParseFormat parses "console", "json" or "clef" (plus a few aliases).
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "console", "text", "plain":
		return FormatConsole, true
	case "json", "structured":
		return FormatJSON, true
	case "clef", "compact", "seq":
		return FormatCLEF, true
	default:
		return FormatConsole, false
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCLEF:
		return "clef"
	default:
		return "console"
	}
}

// NonFiniteFloatPolicy controls how JSON encoders serialize NaN/+Inf/-Inf.
type NonFiniteFloatPolicy uint8

const (
	// NonFiniteFloatAsString emits non-finite floats as JSON strings:
	// "NaN", "+Inf", "-Inf". This is the default.
	NonFiniteFloatAsString NonFiniteFloatPolicy = iota
	// NonFiniteFloatAsNull emits non-finite floats as JSON null.
	NonFiniteFloatAsNull
)

// EncoderOptions configures the built-in encoders. Fields that do not apply
// to a format are ignored.
type EncoderOptions struct {
	// TimeFormat overrides the timestamp layout. Console output defaults to
	// DTGTimeFormat, JSON and CLEF to time.RFC3339Nano.
	TimeFormat string
	// DisableTimestamp drops the timestamp from console and JSON output.
	DisableTimestamp bool
	// UTC renders timestamps in UTC.
	UTC bool
	// NoColor disables ANSI colour in console output.
	NoColor bool
	// ForceColor enables colour even when the destination is not a terminal.
	// It is consulted by the sink constructors, which own terminal detection.
	ForceColor bool
	// Palette overrides the console colours. When nil, ansi.PaletteDefault.
	Palette *ansi.Palette
	// NonFiniteFloat selects the JSON representation of NaN and infinities.
	NonFiniteFloat NonFiniteFloatPolicy
}

// NewEncoder returns the built-in encoder for format.
func NewEncoder(format Format, opts EncoderOptions) Encoder {
	switch format {
	case FormatJSON:
		return NewJSONEncoder(opts)
	case FormatCLEF:
		return NewCLEFEncoder(opts)
	default:
		return NewConsoleEncoder(opts)
	}
}

func resolvePalette(palette *ansi.Palette) *ansi.Palette {
	if palette != nil {
		return palette
	}
	return &ansi.PaletteDefault
}

func appendJSONValue(dst []byte, v Value, policy NonFiniteFloatPolicy) []byte {
	switch v.Kind() {
	case KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case KindInt64:
		return strconv.AppendInt(dst, v.Int64(), 10)
	case KindFloat64:
		return appendJSONFloat(dst, v.Float64(), policy)
	case KindString:
		return appendJSONString(dst, v.Str())
	case KindDateTime:
		dst = append(dst, '"')
		dst = appendRFC3339(dst, v.Time(), true)
		return append(dst, '"')
	default:
		return append(dst, "null"...)
	}
}

func appendJSONFloat(dst []byte, f float64, policy NonFiniteFloatPolicy) []byte {
	switch {
	case math.IsNaN(f):
		if policy == NonFiniteFloatAsNull {
			return append(dst, "null"...)
		}
		return append(dst, `"NaN"`...)
	case math.IsInf(f, 1):
		if policy == NonFiniteFloatAsNull {
			return append(dst, "null"...)
		}
		return append(dst, `"+Inf"`...)
	case math.IsInf(f, -1):
		if policy == NonFiniteFloatAsNull {
			return append(dst, "null"...)
		}
		return append(dst, `"-Inf"`...)
	}
	return strconv.AppendFloat(dst, f, 'f', -1, 64)
}

// appendJSONProperties appends props as a JSON object.
func appendJSONProperties(dst []byte, props Properties, policy NonFiniteFloatPolicy) []byte {
	dst = append(dst, '{')
	for i := 0; i < props.Len(); i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		p := props.At(i)
		dst = appendJSONKey(dst, p.Name)
		dst = appendJSONValue(dst, p.Value, policy)
	}
	return append(dst, '}')
}

func appendTimestamp(dst []byte, cache *timeCache, t time.Time) []byte {
	if cache.utc {
		t = t.UTC()
	}
	switch cache.layout {
	case time.RFC3339Nano:
		return appendRFC3339(dst, t, true)
	case time.RFC3339:
		return appendRFC3339(dst, t, false)
	}
	return append(dst, cache.format(t)...)
}

// holeNames returns the template hole names of rec, used by encoders that
// print only the properties not already visible in the message.
func holeNames(rec *Record) map[string]struct{} {
	if len(rec.Renderings) == 0 {
		return nil
	}
	names := make(map[string]struct{}, len(rec.Renderings))
	for _, r := range rec.Renderings {
		names[r.Name] = struct{}{}
	}
	return names
}

func appendInt(dst []byte, n int) []byte {
	return strconv.AppendInt(dst, int64(n), 10)
}
