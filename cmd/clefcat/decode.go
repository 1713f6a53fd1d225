package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"pkt.systems/tmplog"
)

// decodeEvent rebuilds a record from one CLEF object. A missing @m is
// rendered from @mt and the properties; @r supplies the text of holes with a
// format hint.
func decodeEvent(v *fastjson.Value) (*tmplog.Record, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, errors.New("not a JSON object")
	}
	rec := &tmplog.Record{Level: tmplog.InfoLevel}
	var (
		props      []tmplog.Property
		renderings []string
		message    *string
		visitErr   error
	)
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if visitErr != nil {
			return
		}
		member := string(key)
		switch member {
		case tmplog.CLEFTimestamp:
			ts, err := time.Parse(time.RFC3339Nano, string(val.GetStringBytes()))
			if err != nil {
				visitErr = errors.Wrap(err, "@t")
				return
			}
			rec.Timestamp = ts
		case tmplog.CLEFTemplate:
			rec.MessageTemplate = string(val.GetStringBytes())
		case tmplog.CLEFMessage:
			m := string(val.GetStringBytes())
			message = &m
		case tmplog.CLEFLevel:
			level, ok := tmplog.ParseLevel(string(val.GetStringBytes()))
			if !ok {
				visitErr = errors.Errorf("unknown level %q", val.GetStringBytes())
				return
			}
			rec.Level = level
		case tmplog.CLEFException:
			x := string(val.GetStringBytes())
			rec.ExceptionMessage, rec.ExceptionStack, _ = strings.Cut(x, "\n")
		case tmplog.CLEFEventID:
			rec.EventID.ID = eventID(val)
		case tmplog.CLEFRendering:
			for _, r := range val.GetArray() {
				renderings = append(renderings, string(r.GetStringBytes()))
			}
		case tmplog.CLEFSourceContext:
			if val.Type() == fastjson.TypeString {
				rec.Category = string(val.GetStringBytes())
				return
			}
			props = append(props, tmplog.Property{Name: member, Value: jsonValue(val)})
		case tmplog.CLEFEventName:
			if val.Type() == fastjson.TypeString {
				rec.EventID.Name = string(val.GetStringBytes())
				return
			}
			props = append(props, tmplog.Property{Name: member, Value: jsonValue(val)})
		case tmplog.CLEFScope:
			if val.Type() == fastjson.TypeArray {
				for _, s := range val.GetArray() {
					rec.Scopes = append(rec.Scopes, tmplog.ScopeSnapshot{Message: string(s.GetStringBytes())})
				}
				return
			}
			props = append(props, tmplog.Property{Name: member, Value: jsonValue(val)})
		default:
			if name, ok := tmplog.CLEFPropertyName(member); ok {
				props = append(props, tmplog.Property{Name: name, Value: jsonValue(val)})
			}
		}
	})
	if visitErr != nil {
		return nil, visitErr
	}
	rec.Properties = tmplog.NewProperties(props...)
	render(rec, message, renderings)
	return rec, nil
}

// render fills Message and Renderings from the template. Hole values come
// from the properties by name.
func render(rec *tmplog.Record, message *string, hinted []string) {
	if rec.MessageTemplate == "" {
		if message != nil {
			rec.Message = *message
		}
		return
	}
	tmpl, err := tmplog.ParseTemplate(rec.MessageTemplate)
	if err != nil {
		rec.Message = rec.MessageTemplate
		if message != nil {
			rec.Message = *message
		}
		return
	}
	names := tmpl.Names()
	args := make([]tmplog.Value, 0, len(names))
	for _, name := range names {
		v, ok := rec.Properties.Get(name)
		if !ok {
			break
		}
		args = append(args, v)
	}
	next := 0
	format := func(hint string, v tmplog.Value) string {
		if hint != "" && next < len(hinted) {
			next++
			return hinted[next-1]
		}
		return tmplog.DefaultFormatter(hint, v)
	}
	text, holes := tmpl.Render(args, format)
	for _, h := range holes {
		rec.Renderings = append(rec.Renderings, tmplog.Rendering{Name: h.Name, Format: h.Format, Text: h.Text})
	}
	if message != nil {
		rec.Message = *message
	} else {
		rec.Message = text
	}
}

func eventID(v *fastjson.Value) int {
	switch v.Type() {
	case fastjson.TypeNumber:
		return v.GetInt()
	case fastjson.TypeString:
		s := string(v.GetStringBytes())
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return int(n)
		}
		if n, err := strconv.ParseUint(s, 16, 32); err == nil {
			return int(n)
		}
	}
	return 0
}

func jsonValue(v *fastjson.Value) tmplog.Value {
	switch v.Type() {
	case fastjson.TypeNull:
		return tmplog.NullValue()
	case fastjson.TypeTrue:
		return tmplog.BoolValue(true)
	case fastjson.TypeFalse:
		return tmplog.BoolValue(false)
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return tmplog.Int64Value(n)
		}
		return tmplog.Float64Value(v.GetFloat64())
	case fastjson.TypeString:
		return tmplog.StringValue(string(v.GetStringBytes()))
	default:
		return tmplog.StringValue(v.String())
	}
}
