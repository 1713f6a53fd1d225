package tmplog

import (
	"fmt"
	"strings"
)

// SpanKind identifies the kind of a parsed template span.
type SpanKind uint8

const (
	// SpanText is a run of literal text, addressed by byte range in the
	// template text.
	SpanText SpanKind = iota
	// SpanEscapedBrace is a doubled brace that renders as a single one.
	SpanEscapedBrace
	// SpanValue is a named hole consuming one positional argument.
	SpanValue
)

// Span is one element of a parsed template. Start and Length address the
// span's bytes in the raw template text (for a value span, the whole hole
// including braces).
type Span struct {
	Kind      SpanKind
	Start     int
	Length    int
	Brace     byte
	Name      string
	Format    string
	HasFormat bool
}

// RenderedValue is the outcome of rendering one value hole.
type RenderedValue struct {
	Name   string
	Value  Value
	Format string
	Text   string
	// Missing is set when the argument list ran out before this hole. Value
	// is then null and Text is the hole as written in the template.
	Missing bool
}

// ParseError describes a malformed template. Logging never fails on it: the
// template renders as literal text instead.
type ParseError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tmplog: template %q: offset %d: %s", e.Template, e.Offset, e.Reason)
}

// Template is a parsed message template. It is immutable after parsing and
// safe for concurrent use.
type Template struct {
	text    string
	spans   []Span
	holes   int
	literal bool
}

type scanState uint8

const (
	stateScanning scanState = iota
	stateInsideHole
	stateHoleResolved
)

// ParseTemplate compiles text into a Template in a single left-to-right scan.
// "{{" and "}}" are escaped braces, "{Name}" and "{Name:format}" are holes.
// A hole that is never closed is kept as literal text. An empty hole name or
// a '{' inside a hole is a *ParseError.
func ParseTemplate(text string) (*Template, error) {
	t := &Template{text: text}
	n := len(text)
	state := stateScanning
	literalStart := 0
	holeStart := 0
	colon := -1

	emitLiteral := func(end int) {
		if end > literalStart {
			t.spans = append(t.spans, Span{Kind: SpanText, Start: literalStart, Length: end - literalStart})
		}
	}

	for i := 0; i < n; i++ {
		c := text[i]
		switch state {
		case stateScanning:
			switch {
			case c == '{' && i+1 < n && text[i+1] == '{':
				emitLiteral(i)
				t.spans = append(t.spans, Span{Kind: SpanEscapedBrace, Start: i, Length: 2, Brace: '{'})
				i++
				literalStart = i + 1
			case c == '{':
				state = stateInsideHole
				holeStart = i
				colon = -1
			case c == '}' && i+1 < n && text[i+1] == '}':
				emitLiteral(i)
				t.spans = append(t.spans, Span{Kind: SpanEscapedBrace, Start: i, Length: 2, Brace: '}'})
				i++
				literalStart = i + 1
			}
		case stateInsideHole:
			switch c {
			case ':':
				if colon < 0 {
					colon = i
				}
			case '{':
				return nil, &ParseError{Template: text, Offset: i, Reason: "unexpected '{' inside hole"}
			case '}':
				state = stateHoleResolved
			}
		}
		if state != stateHoleResolved {
			continue
		}
		span := Span{Kind: SpanValue, Start: holeStart, Length: i - holeStart + 1}
		if colon >= 0 {
			span.Name = text[holeStart+1 : colon]
			span.Format = text[colon+1 : i]
			span.HasFormat = true
		} else {
			span.Name = text[holeStart+1 : i]
		}
		if span.Name == "" {
			return nil, &ParseError{Template: text, Offset: holeStart, Reason: "empty hole name"}
		}
		emitLiteral(holeStart)
		t.spans = append(t.spans, span)
		t.holes++
		literalStart = i + 1
		state = stateScanning
	}
	// An unclosed hole falls through as literal text up to the end.
	emitLiteral(n)
	return t, nil
}

// literalTemplate renders text verbatim. It stands in for templates that
// failed to parse.
func literalTemplate(text string) *Template {
	t := &Template{text: text, literal: true}
	if text != "" {
		t.spans = []Span{{Kind: SpanText, Start: 0, Length: len(text)}}
	}
	return t
}

// Text returns the raw template text.
func (t *Template) Text() string { return t.text }

// Holes returns the number of value holes.
func (t *Template) Holes() int { return t.holes }

// Literal reports whether t is the literal fallback for an unparseable text.
func (t *Template) Literal() bool { return t.literal }

// Spans returns a copy of the parsed spans.
func (t *Template) Spans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// Names returns the hole names in template order.
func (t *Template) Names() []string {
	names := make([]string, 0, t.holes)
	for _, s := range t.spans {
		if s.Kind == SpanValue {
			names = append(names, s.Name)
		}
	}
	return names
}

// Render produces the message for args and one RenderedValue per hole, in
// template order. Holes beyond len(args) are rendered as written and flagged
// Missing; surplus arguments are ignored. Render never mutates t.
func (t *Template) Render(args []Value, format ValueFormatter) (string, []RenderedValue) {
	if format == nil {
		format = DefaultFormatter
	}
	if t.holes == 0 && len(t.spans) <= 1 && !t.hasEscapes() {
		return t.text, nil
	}
	var b strings.Builder
	b.Grow(len(t.text) + t.holes*8)
	var rendered []RenderedValue
	if t.holes > 0 {
		rendered = make([]RenderedValue, 0, t.holes)
	}
	next := 0
	for _, s := range t.spans {
		switch s.Kind {
		case SpanText:
			b.WriteString(t.text[s.Start : s.Start+s.Length])
		case SpanEscapedBrace:
			b.WriteByte(s.Brace)
		case SpanValue:
			rv := RenderedValue{Name: s.Name, Format: s.Format}
			if next < len(args) {
				rv.Value = args[next]
				rv.Text = format(s.Format, rv.Value)
			} else {
				rv.Missing = true
				rv.Text = t.text[s.Start : s.Start+s.Length]
			}
			next++
			b.WriteString(rv.Text)
			rendered = append(rendered, rv)
		}
	}
	return b.String(), rendered
}

func (t *Template) hasEscapes() bool {
	for _, s := range t.spans {
		if s.Kind == SpanEscapedBrace {
			return true
		}
	}
	return false
}
