package tmplog

import (
	"errors"
	"math"
	"net"
	"testing"
	"time"
)

func TestValueOfKinds(t *testing.T) {
	when := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.FixedZone("CET", 3600))
	cases := []struct {
		in   any
		kind Kind
		text string
	}{
		{nil, KindNull, "null"},
		{true, KindBool, "true"},
		{42, KindInt64, "42"},
		{int8(-3), KindInt64, "-3"},
		{uint32(7), KindInt64, "7"},
		{uint64(math.MaxUint64), KindString, "18446744073709551615"},
		{float32(0.5), KindFloat64, "0.5"},
		{2.25, KindFloat64, "2.25"},
		{"text", KindString, "text"},
		{[]byte("raw"), KindString, "raw"},
		{when, KindDateTime, "2024-03-05T14:07:09+01:00"},
		{&when, KindDateTime, "2024-03-05T14:07:09+01:00"},
		{(*time.Time)(nil), KindNull, "null"},
		{1500 * time.Millisecond, KindString, "1.5s"},
		{errors.New("boom"), KindString, "boom"},
		{net.IPv4(10, 0, 0, 1), KindString, "10.0.0.1"},
		{struct{ A int }{1}, KindString, "{1}"},
		{StringValue("already"), KindString, "already"},
	}
	for _, tc := range cases {
		v := ValueOf(tc.in)
		if v.Kind() != tc.kind || v.String() != tc.text {
			t.Fatalf("ValueOf(%#v) = %s %q, want %s %q", tc.in, v.Kind(), v.String(), tc.kind, tc.text)
		}
	}
}

func TestDateTimeValueKeepsLocation(t *testing.T) {
	utc := DateTimeValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	local := DateTimeValue(time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)))
	if !utc.IsUTC() || local.IsUTC() {
		t.Fatalf("UTC flag lost")
	}
	if utc.Equal(local) {
		t.Fatalf("same instant with different UTC flag should not be equal")
	}
	if utc.Float64() != 0 || utc.Int64() != 0 || utc.Str() != "" {
		t.Fatalf("datetime leaked into other accessors")
	}
}

func TestValueAccessors(t *testing.T) {
	if Int64Value(3).Float64() != 3 {
		t.Fatalf("int widening")
	}
	if !Float64Value(math.NaN()).Equal(Float64Value(math.NaN())) {
		t.Fatalf("NaN payloads should compare equal bitwise")
	}
	if NullValue().Any() != nil || BoolValue(true).Any() != true || Int64Value(5).Any() != int64(5) {
		t.Fatalf("Any payloads")
	}
}

func TestPropertiesLastWriteWins(t *testing.T) {
	props := NewProperties(
		Property{Name: "a", Value: Int64Value(1)},
		Property{Name: "b", Value: Int64Value(2)},
		Property{Name: "a", Value: Int64Value(3)},
	)
	if props.Len() != 2 || props.At(0).Name != "a" {
		t.Fatalf("order: %+v", props.Slice())
	}
	if v, _ := props.Get("a"); v.Int64() != 3 {
		t.Fatalf("last write should win: %v", v)
	}
	var names []string
	for name := range props.All() {
		names = append(names, name)
	}
	if len(names) != 2 || names[1] != "b" {
		t.Fatalf("All: %v", names)
	}
}

func TestPropertyBuilderIndexesLargeSets(t *testing.T) {
	var b propertyBuilder
	for i := range 20 {
		b.set(argKeyName(i), Int64Value(int64(i)))
	}
	b.set("arg3", StringValue("replaced"))
	props := b.build()
	if props.Len() != 20 {
		t.Fatalf("len: %d", props.Len())
	}
	if v, _ := props.Get("arg3"); v.Str() != "replaced" {
		t.Fatalf("indexed replace failed: %v", v)
	}
}

func TestCollectProperties(t *testing.T) {
	props := collectProperties([]any{"user", "alice", nil, 1, "", 2, errors.New("code"), 3, "trailing"})
	want := map[string]string{"user": "alice", "arg1": "1", "arg2": "2", "code": "3", "arg4": "trailing"}
	if props.Len() != len(want) {
		t.Fatalf("properties: %+v", props.Slice())
	}
	for name, text := range want {
		if v, ok := props.Get(name); !ok || v.String() != text {
			t.Fatalf("%s: got %v", name, v)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]Level{
		"trace": TraceLevel, "VRB": TraceLevel, "debug": DebugLevel, "Information": InfoLevel,
		"warning": WarnLevel, "err": ErrorLevel, "fatal": CriticalLevel, "off": NoneLevel,
	} {
		got, ok := ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", input, got, ok)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("unknown level accepted")
	}
	if NoneLevel.Enabled(TraceLevel) || InfoLevel.Enabled(NoneLevel) || !ErrorLevel.Enabled(WarnLevel) {
		t.Fatalf("Enabled ordering")
	}
}
