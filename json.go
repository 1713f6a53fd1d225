package tmplog

import "time"

// JSONEncoder renders one compact JSON object per record:
//
//	{"time":"...","level":"information","category":"orders","eventId":{"id":1001},
//	 "message":"Order 42 shipped","template":"Order {Id} shipped",
//	 "properties":{"Id":42},"renderings":[{"name":"Id","text":"42"}]}
//
// exception, stack and scopes are present only when set.
type JSONEncoder struct {
	times  *timeCache
	noTime bool
	policy NonFiniteFloatPolicy
}

// NewJSONEncoder returns a JSON encoder.
func NewJSONEncoder(opts EncoderOptions) *JSONEncoder {
	layout := opts.TimeFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return &JSONEncoder{
		times:  newTimeCache(layout, opts.UTC),
		noTime: opts.DisableTimestamp,
		policy: opts.NonFiniteFloat,
	}
}

// Encode implements Encoder.
func (e *JSONEncoder) Encode(dst []byte, rec *Record) []byte {
	dst = append(dst, '{')
	if !e.noTime {
		dst = append(dst, `"time":"`...)
		dst = appendTimestamp(dst, e.times, rec.Timestamp)
		dst = append(dst, `",`...)
	}
	dst = append(dst, `"level":"`...)
	dst = append(dst, LevelString(rec.Level)...)
	dst = append(dst, '"')
	if rec.Category != "" {
		dst = append(dst, `,"category":`...)
		dst = appendJSONString(dst, rec.Category)
	}
	if !rec.EventID.IsZero() {
		dst = append(dst, `,"eventId":{"id":`...)
		dst = appendInt(dst, rec.EventID.ID)
		if rec.EventID.Name != "" {
			dst = append(dst, `,"name":`...)
			dst = appendJSONString(dst, rec.EventID.Name)
		}
		dst = append(dst, '}')
	}
	dst = append(dst, `,"message":`...)
	dst = appendJSONString(dst, rec.Message)
	if rec.MessageTemplate != "" && rec.MessageTemplate != rec.Message {
		dst = append(dst, `,"template":`...)
		dst = appendJSONString(dst, rec.MessageTemplate)
	}
	if rec.ExceptionMessage != "" {
		dst = append(dst, `,"exception":`...)
		dst = appendJSONString(dst, rec.ExceptionMessage)
	}
	if rec.ExceptionStack != "" {
		dst = append(dst, `,"stack":`...)
		dst = appendJSONString(dst, rec.ExceptionStack)
	}
	if rec.Properties.Len() > 0 {
		dst = append(dst, `,"properties":`...)
		dst = appendJSONProperties(dst, rec.Properties, e.policy)
	}
	if len(rec.Renderings) > 0 {
		dst = append(dst, `,"renderings":[`...)
		for i, r := range rec.Renderings {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, `{"name":`...)
			dst = appendJSONString(dst, r.Name)
			if r.Format != "" {
				dst = append(dst, `,"format":`...)
				dst = appendJSONString(dst, r.Format)
			}
			dst = append(dst, `,"text":`...)
			dst = appendJSONString(dst, r.Text)
			dst = append(dst, '}')
		}
		dst = append(dst, ']')
	}
	if len(rec.Scopes) > 0 {
		dst = append(dst, `,"scopes":[`...)
		for i, s := range rec.Scopes {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, '{')
			sep := false
			if s.Template != "" {
				dst = append(dst, `"template":`...)
				dst = appendJSONString(dst, s.Template)
				sep = true
			}
			if s.Message != "" {
				if sep {
					dst = append(dst, ',')
				}
				dst = append(dst, `"message":`...)
				dst = appendJSONString(dst, s.Message)
				sep = true
			}
			if s.Properties.Len() > 0 {
				if sep {
					dst = append(dst, ',')
				}
				dst = append(dst, `"properties":`...)
				dst = appendJSONProperties(dst, s.Properties, e.policy)
			}
			dst = append(dst, '}')
		}
		dst = append(dst, ']')
	}
	return append(dst, '}', '\n')
}
