package tmplog

import (
	"strings"
	"time"
)

// CLEF reserved property names.
const (
	CLEFTimestamp = "@t"
	CLEFTemplate  = "@mt"
	CLEFMessage   = "@m"
	CLEFLevel     = "@l"
	CLEFException = "@x"
	CLEFEventID   = "@i"
	CLEFRendering = "@r"

	// CLEFSourceContext carries the logger category.
	CLEFSourceContext = "SourceContext"
	// CLEFEventName carries EventID.Name.
	CLEFEventName = "EventName"
	// CLEFScope lists the messages of the active scopes, outermost first.
	CLEFScope = "Scope"
)

// CLEFEncoder renders records in the compact log event format: reserved
// members prefixed with '@', then the record properties at top level. A
// property whose name starts with '@' is written with the '@' doubled. @l is
// omitted for information records and @r lists the rendered text of the
// holes that carry a format hint.
type CLEFEncoder struct {
	times  *timeCache
	policy NonFiniteFloatPolicy
}

// NewCLEFEncoder returns a CLEF encoder.
func NewCLEFEncoder(opts EncoderOptions) *CLEFEncoder {
	layout := opts.TimeFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return &CLEFEncoder{
		times:  newTimeCache(layout, opts.UTC),
		policy: opts.NonFiniteFloat,
	}
}

// Encode implements Encoder.
func (e *CLEFEncoder) Encode(dst []byte, rec *Record) []byte {
	dst = append(dst, `{"@t":"`...)
	dst = appendTimestamp(dst, e.times, rec.Timestamp)
	dst = append(dst, `","@mt":`...)
	dst = appendJSONString(dst, rec.MessageTemplate)
	dst = append(dst, `,"@m":`...)
	dst = appendJSONString(dst, rec.Message)
	if rec.Level != InfoLevel {
		dst = append(dst, `,"@l":"`...)
		dst = append(dst, CLEFLevelName(rec.Level)...)
		dst = append(dst, '"')
	}
	if rec.HasException() {
		dst = append(dst, `,"@x":`...)
		x := rec.ExceptionMessage
		if rec.ExceptionStack != "" {
			x += "\n" + rec.ExceptionStack
		}
		dst = appendJSONString(dst, x)
	}
	if !rec.EventID.IsZero() {
		dst = append(dst, `,"@i":`...)
		dst = appendInt(dst, rec.EventID.ID)
		if rec.EventID.Name != "" {
			dst = append(dst, `,"EventName":`...)
			dst = appendJSONString(dst, rec.EventID.Name)
		}
	}
	first := true
	for _, r := range rec.Renderings {
		if r.Format == "" {
			continue
		}
		if first {
			dst = append(dst, `,"@r":[`...)
			first = false
		} else {
			dst = append(dst, ',')
		}
		dst = appendJSONString(dst, r.Text)
	}
	if !first {
		dst = append(dst, ']')
	}
	if rec.Category != "" {
		dst = append(dst, `,"SourceContext":`...)
		dst = appendJSONString(dst, rec.Category)
	}
	scopes := 0
	for _, s := range rec.Scopes {
		if s.Message == "" {
			continue
		}
		if scopes == 0 {
			dst = append(dst, `,"Scope":[`...)
		} else {
			dst = append(dst, ',')
		}
		dst = appendJSONString(dst, s.Message)
		scopes++
	}
	if scopes > 0 {
		dst = append(dst, ']')
	}
	for i := 0; i < rec.Properties.Len(); i++ {
		p := rec.Properties.At(i)
		if clefReserved(p.Name, rec) {
			continue
		}
		dst = append(dst, ',')
		dst = appendJSONKey(dst, clefPropertyName(p.Name))
		dst = appendJSONValue(dst, p.Value, e.policy)
	}
	return append(dst, '}', '\n')
}

// clefReserved reports properties that would collide with members written
// from the record itself.
func clefReserved(name string, rec *Record) bool {
	switch name {
	case CLEFSourceContext:
		return rec.Category != ""
	case CLEFEventName:
		return rec.EventID.Name != ""
	case CLEFScope:
		return len(rec.Scopes) > 0
	}
	return false
}

func clefPropertyName(name string) string {
	if strings.HasPrefix(name, "@") {
		return "@" + name
	}
	return name
}

// CLEFPropertyName reverses the '@' doubling of a CLEF member name. ok is
// false for reserved members.
func CLEFPropertyName(member string) (name string, ok bool) {
	if strings.HasPrefix(member, "@@") {
		return member[1:], true
	}
	if strings.HasPrefix(member, "@") {
		return "", false
	}
	return member, true
}

// CLEFLevelName returns the CLEF level name for level.
func CLEFLevelName(level Level) string {
	switch level {
	case TraceLevel:
		return "Verbose"
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Information"
	case WarnLevel:
		return "Warning"
	case ErrorLevel:
		return "Error"
	case CriticalLevel:
		return "Fatal"
	default:
		return "Information"
	}
}
