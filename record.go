package tmplog

import (
	"iter"
	"time"
)

// Property is a named value attached to a record.
type Property struct {
	Name  string
	Value Value
}

// Properties is an ordered set of uniquely named values. It has no exported
// mutators, so a Properties value can be shared between goroutines.
type Properties struct {
	list []Property
}

// NewProperties builds a set from props. A repeated name overwrites the
// earlier value in place (last write wins, first position kept).
func NewProperties(props ...Property) Properties {
	var b propertyBuilder
	for _, p := range props {
		b.set(p.Name, p.Value)
	}
	return b.build()
}

// Len returns the number of properties.
func (p Properties) Len() int { return len(p.list) }

// At returns the i'th property in insertion order.
func (p Properties) At(i int) Property { return p.list[i] }

// Get returns the value stored under name.
func (p Properties) Get(name string) (Value, bool) {
	for _, prop := range p.list {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return Value{}, false
}

// All iterates the properties in insertion order.
func (p Properties) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, prop := range p.list {
			if !yield(prop.Name, prop.Value) {
				return
			}
		}
	}
}

// Slice returns a copy of the properties.
func (p Properties) Slice() []Property {
	if len(p.list) == 0 {
		return nil
	}
	out := make([]Property, len(p.list))
	copy(out, p.list)
	return out
}

const propertyIndexThreshold = 8

type propertyBuilder struct {
	list  []Property
	index map[string]int
}

func (b *propertyBuilder) grow(n int) {
	if n <= 0 || cap(b.list)-len(b.list) >= n {
		return
	}
	list := make([]Property, len(b.list), len(b.list)+n)
	copy(list, b.list)
	b.list = list
}

func (b *propertyBuilder) set(name string, v Value) {
	if i, ok := b.lookup(name); ok {
		b.list[i].Value = v
		return
	}
	b.list = append(b.list, Property{Name: name, Value: v})
	if b.index != nil {
		b.index[name] = len(b.list) - 1
	} else if len(b.list) > propertyIndexThreshold {
		b.index = make(map[string]int, len(b.list)*2)
		for i, p := range b.list {
			b.index[p.Name] = i
		}
	}
}

func (b *propertyBuilder) lookup(name string) (int, bool) {
	if b.index != nil {
		i, ok := b.index[name]
		return i, ok
	}
	for i := range b.list {
		if b.list[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (b *propertyBuilder) setAll(p Properties) {
	b.grow(len(p.list))
	for _, prop := range p.list {
		b.set(prop.Name, prop.Value)
	}
}

func (b *propertyBuilder) build() Properties {
	if len(b.list) == 0 {
		return Properties{}
	}
	out := make([]Property, len(b.list))
	copy(out, b.list)
	return Properties{list: out}
}

// Rendering is the display text produced for one template hole.
type Rendering struct {
	Name   string
	Format string
	Text   string
}

// Record is one finished log event. Records are built by the dispatcher with
// freshly allocated slices and must be treated as read-only by sinks; a
// single Record may be handed to several sinks at once.
type Record struct {
	Timestamp        time.Time
	Level            Level
	Category         string
	EventID          EventID
	Message          string
	MessageTemplate  string
	ExceptionMessage string
	ExceptionStack   string
	Properties       Properties
	Renderings       []Rendering
	Scopes           []ScopeSnapshot
}

// HasException reports whether an error was attached to the log call.
func (r *Record) HasException() bool {
	return r.ExceptionMessage != "" || r.ExceptionStack != ""
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Renderings != nil {
		clone.Renderings = append([]Rendering(nil), r.Renderings...)
	}
	if r.Scopes != nil {
		clone.Scopes = append([]ScopeSnapshot(nil), r.Scopes...)
	}
	return &clone
}
