package tmplog

import (
	"encoding"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind enumerates the closed set of property value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Value is a tagged property value. Date/time values keep their own kind so
// they never degrade into numbers on their way to a sink; the location of the
// wrapped time.Time is the UTC/local flag and precision is nanoseconds.
//
// The zero Value is null.
type Value struct {
	kind Kind
	num  uint64
	str  string
	t    time.Time
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue wraps b.
func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// Int64Value wraps n.
func Int64Value(n int64) Value { return Value{kind: KindInt64, num: uint64(n)} }

// Float64Value wraps f.
func Float64Value(f float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(f)} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// DateTimeValue wraps t, preserving its location and monotonic-free wall time.
func DateTimeValue(t time.Time) Value { return Value{kind: KindDateTime, t: t.Round(0)} }

// ValueOf closes an arbitrary Go value into the Value set. Integers become
// Int64 (unsigned values above math.MaxInt64 become their decimal string),
// floats become Float64, time.Time becomes DateTime, and everything else that
// is not already a primitive is stringified.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return Int64Value(int64(x))
	case int8:
		return Int64Value(int64(x))
	case int16:
		return Int64Value(int64(x))
	case int32:
		return Int64Value(int64(x))
	case int64:
		return Int64Value(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int64Value(int64(x))
	case uint16:
		return Int64Value(int64(x))
	case uint32:
		return Int64Value(int64(x))
	case uint64:
		return uintValue(x)
	case uintptr:
		return uintValue(uint64(x))
	case float32:
		return Float64Value(float64(x))
	case float64:
		return Float64Value(x)
	case time.Time:
		return DateTimeValue(x)
	case *time.Time:
		if x == nil {
			return Value{}
		}
		return DateTimeValue(*x)
	case time.Duration:
		return StringValue(x.String())
	case []byte:
		return StringValue(string(x))
	case error:
		return StringValue(x.Error())
	case fmt.Stringer:
		return StringValue(x.String())
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return StringValue(err.Error())
		}
		return StringValue(string(b))
	default:
		return StringValue(fmt.Sprint(x))
	}
}

func uintValue(n uint64) Value {
	if n > math.MaxInt64 {
		return StringValue(strconv.FormatUint(n, 10))
	}
	return Int64Value(int64(n))
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == KindBool && v.num == 1 }

// Int64 returns the integer payload; 0 for other kinds.
func (v Value) Int64() int64 {
	if v.kind != KindInt64 {
		return 0
	}
	return int64(v.num)
}

// Float64 returns the floating point payload. Int64 values are widened.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindFloat64:
		return math.Float64frombits(v.num)
	case KindInt64:
		return float64(int64(v.num))
	default:
		return 0
	}
}

// Str returns the string payload; "" for other kinds.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Time returns the date/time payload; the zero time for other kinds.
func (v Value) Time() time.Time {
	if v.kind != KindDateTime {
		return time.Time{}
	}
	return v.t
}

// IsUTC reports whether a DateTime value is expressed in UTC.
func (v Value) IsUTC() bool {
	return v.kind == KindDateTime && v.t.Location() == time.UTC
}

// Any returns the payload as a plain Go value.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.Bool()
	case KindInt64:
		return v.Int64()
	case KindFloat64:
		return v.Float64()
	case KindString:
		return v.str
	case KindDateTime:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindDateTime:
		return v.t.Equal(other.t) && v.IsUTC() == other.IsUTC()
	default:
		return v.num == other.num
	}
}

// String renders v without any format hint.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case KindString:
		return v.str
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}
