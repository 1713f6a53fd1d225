package tmplog

import (
	"encoding/json"
	"strings"
	"testing"
)

var escapeSeeds = []string{
	"",
	"plain",
	`"quoted" message`,
	"line\nfeed\tand\\slash",
	"control" + string(rune(0)) + "\x1f",
	"emoji 😃 snowman ☃",
	"exactly8",
	strings.Repeat("a", 13) + `"` + strings.Repeat("b", 9),
	strings.Repeat("é", 11) + "\x7f",
	"!!!!!!!!\"!!!!!!!",
}

func TestAppendJSONStringRoundTrip(t *testing.T) {
	for _, s := range escapeSeeds {
		encoded := appendJSONString(nil, s)
		var decoded string
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("invalid json %q for %q: %v", encoded, s, err)
		}
		if decoded != s {
			t.Fatalf("round trip: got %q want %q", decoded, s)
		}
	}
}

func TestAppendJSONStringEscapes(t *testing.T) {
	got := string(appendJSONString(nil, "a\"b\\c\n\x01"))
	if got != `"a\"b\\c\n\u0001"` {
		t.Fatalf("escaped: %q", got)
	}
}

func TestAppendJSONKey(t *testing.T) {
	if got := string(appendJSONKey(nil, "plain")); got != `"plain":` {
		t.Fatalf("trusted key: %q", got)
	}
	if got := string(appendJSONKey(nil, `qu"ote`)); got != `"qu\"ote":` {
		t.Fatalf("escaped key: %q", got)
	}
}

func TestStringTrustedASCII(t *testing.T) {
	cases := map[string]bool{
		"":                         true,
		"OrderId":                  true,
		"long-but-still-plain-key": true,
		"has space ok":             true,
		"quote\"":                  false,
		"twelve-bytes\\":           false,
		"tab\t":                    false,
		"naïve":                    false,
	}
	for s, want := range cases {
		if got := stringTrustedASCII(s); got != want {
			t.Fatalf("stringTrustedASCII(%q) = %v want %v", s, got, want)
		}
	}
}

func TestAppendConsoleValue(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", "plain"},
		{"two words", `"two words"`},
		{"tab\tvalue", `"tab\tvalue"`},
		{`back\slash`, `"back\\slash"`},
		{"del\x7f", `"del\x7f"`},
		{"unicodé", "unicodé"},
		{strings.Repeat("x", 17) + " ", `"` + strings.Repeat("x", 17) + ` "`},
	}
	for _, tc := range cases {
		if got := string(appendConsoleValue(nil, tc.in)); got != tc.want {
			t.Fatalf("appendConsoleValue(%q) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestAppendConsoleText(t *testing.T) {
	if got := string(appendConsoleText(nil, `keeps "quotes" and spaces`)); got != `keeps "quotes" and spaces` {
		t.Fatalf("free text altered: %q", got)
	}
	if got := string(appendConsoleText(nil, "a\nb\x00c")); got != `a\nb\x00c` {
		t.Fatalf("controls: %q", got)
	}
}

func BenchmarkAppendJSONString(b *testing.B) {
	s := strings.Repeat("plain ascii text ", 8) + "\"end\""
	buf := make([]byte, 0, 256)
	b.ReportAllocs()
	for b.Loop() {
		buf = appendJSONString(buf[:0], s)
	}
}
