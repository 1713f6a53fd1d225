package tmplog

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ValueFormatter turns one hole value into display text. hint is the text
// after the first ':' in the hole, or "" when the hole has none.
type ValueFormatter func(hint string, v Value) string

// DefaultFormatter formats values with the root locale.
var DefaultFormatter ValueFormatter = NewFormatter(language.Und)

// NewFormatter returns a ValueFormatter using the number conventions of tag.
//
// Numeric hints follow .NET standard format strings: N (grouped), F (fixed),
// P (percent), D (zero padded integer), X/x (hex), E/e (exponent) and G, each
// with an optional precision such as N2. DateTime hints are .NET custom date
// patterns (yyyy-MM-dd HH:mm:ss.fff) or one of the standard letters o, s, u,
// d, t and T. The string hint "l" is accepted and ignored; "j" renders the
// string as a quoted literal. Without a hint values use their plain form.
func NewFormatter(tag language.Tag) ValueFormatter {
	p := message.NewPrinter(tag)
	return func(hint string, v Value) string {
		if hint == "" {
			return v.String()
		}
		switch v.Kind() {
		case KindInt64, KindFloat64:
			if s, ok := formatNumber(p, hint, v); ok {
				return s
			}
		case KindDateTime:
			return formatDateTime(v.Time(), hint)
		case KindString:
			if hint == "j" {
				return strconv.Quote(v.Str())
			}
		}
		return v.String()
	}
}

func formatNumber(p *message.Printer, hint string, v Value) (string, bool) {
	spec, precision, hasPrecision := splitNumericHint(hint)
	isInt := v.Kind() == KindInt64
	f := v.Float64()
	// Integers stay int64 so values above 2^53 keep every digit.
	var num any = f
	if isInt {
		num = v.Int64()
	}
	switch spec {
	case 'N', 'n':
		digits := defaultPrecision(precision, hasPrecision, isInt, 2)
		return p.Sprint(number.Decimal(num, number.MinFractionDigits(digits), number.MaxFractionDigits(digits))), true
	case 'F', 'f':
		digits := defaultPrecision(precision, hasPrecision, isInt, 2)
		return p.Sprint(number.Decimal(num, number.NoSeparator(), number.MinFractionDigits(digits), number.MaxFractionDigits(digits))), true
	case 'P', 'p':
		digits := defaultPrecision(precision, hasPrecision, false, 2)
		return p.Sprint(number.Percent(num, number.MinFractionDigits(digits), number.MaxFractionDigits(digits))), true
	case 'D', 'd':
		if !isInt {
			return "", false
		}
		n := v.Int64()
		s := strconv.FormatUint(magnitude(n), 10)
		if hasPrecision && len(s) < precision {
			s = strings.Repeat("0", precision-len(s)) + s
		}
		if n < 0 {
			s = "-" + s
		}
		return s, true
	case 'X', 'x':
		if !isInt {
			return "", false
		}
		s := strconv.FormatUint(uint64(v.Int64()), 16)
		if spec == 'X' {
			s = strings.ToUpper(s)
		}
		if hasPrecision && len(s) < precision {
			s = strings.Repeat("0", precision-len(s)) + s
		}
		return s, true
	case 'E', 'e':
		digits := defaultPrecision(precision, hasPrecision, false, 6)
		s := strconv.FormatFloat(f, 'e', digits, 64)
		if spec == 'E' {
			s = strings.ToUpper(s)
		}
		return s, true
	case 'G', 'g':
		if isInt && !hasPrecision {
			return strconv.FormatInt(v.Int64(), 10), true
		}
		prec := -1
		if hasPrecision && precision > 0 {
			prec = precision
		}
		return strconv.FormatFloat(f, 'g', prec, 64), true
	}
	if digits, grouped, ok := customNumericPattern(hint); ok {
		opts := []number.Option{number.MinFractionDigits(digits), number.MaxFractionDigits(digits)}
		if !grouped {
			opts = append(opts, number.NoSeparator())
		}
		return p.Sprint(number.Decimal(num, opts...)), true
	}
	return "", false
}

func splitNumericHint(hint string) (spec byte, precision int, ok bool) {
	if hint == "" {
		return 0, 0, false
	}
	spec = hint[0]
	if len(hint) == 1 {
		return spec, 0, false
	}
	n, err := strconv.Atoi(hint[1:])
	if err != nil || n < 0 || n > 99 {
		return 0, 0, false
	}
	return spec, n, true
}

func defaultPrecision(precision int, ok, isInt bool, fallback int) int {
	if ok {
		return precision
	}
	if isInt {
		return 0
	}
	return fallback
}

// customNumericPattern understands the common "#,##0.00" / "0.000" shapes.
func customNumericPattern(hint string) (digits int, grouped, ok bool) {
	dot := strings.IndexByte(hint, '.')
	intPart := hint
	if dot >= 0 {
		intPart = hint[:dot]
		for _, c := range hint[dot+1:] {
			if c != '0' && c != '#' {
				return 0, false, false
			}
			digits++
		}
	}
	if intPart == "" {
		return 0, false, false
	}
	for _, c := range intPart {
		switch c {
		case '0', '#':
		case ',':
			grouped = true
		default:
			return 0, false, false
		}
	}
	return digits, grouped, true
}

func magnitude(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}

// formatDateTime renders t with a .NET style date pattern. Tokens are
// formatted one at a time so literal text can never be mistaken for a Go
// layout element.
func formatDateTime(t time.Time, pattern string) string {
	switch pattern {
	case "o", "O":
		return t.Format(time.RFC3339Nano)
	case "s":
		return t.Format("2006-01-02T15:04:05")
	case "u":
		return t.UTC().Format("2006-01-02 15:04:05Z")
	case "d":
		return t.Format(time.DateOnly)
	case "t":
		return t.Format("15:04")
	case "T":
		return t.Format(time.TimeOnly)
	}
	var b strings.Builder
	b.Grow(len(pattern) + 8)
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '\'', '"':
			end := strings.IndexByte(pattern[i+1:], c)
			if end < 0 {
				b.WriteString(pattern[i+1:])
				return b.String()
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		case '\\':
			if i+1 < len(pattern) {
				_, size := utf8.DecodeRuneInString(pattern[i+1:])
				b.WriteString(pattern[i+1 : i+1+size])
				i += 1 + size
				continue
			}
			i++
			continue
		}
		n := 1
		for i+n < len(pattern) && pattern[i+n] == c {
			n++
		}
		if text, ok := dateToken(t, c, n); ok {
			b.WriteString(text)
		} else {
			b.WriteString(pattern[i : i+n])
		}
		i += n
	}
	return b.String()
}

func dateToken(t time.Time, c byte, n int) (string, bool) {
	switch c {
	case 'y':
		switch {
		case n <= 2:
			return t.Format("06"), true
		default:
			s := strconv.Itoa(t.Year())
			if len(s) < n {
				s = strings.Repeat("0", n-len(s)) + s
			}
			return s, true
		}
	case 'M':
		switch n {
		case 1:
			return t.Format("1"), true
		case 2:
			return t.Format("01"), true
		case 3:
			return t.Format("Jan"), true
		default:
			return t.Format("January"), true
		}
	case 'd':
		switch n {
		case 1:
			return t.Format("2"), true
		case 2:
			return t.Format("02"), true
		case 3:
			return t.Format("Mon"), true
		default:
			return t.Format("Monday"), true
		}
	case 'H':
		if n == 1 {
			return strconv.Itoa(t.Hour()), true
		}
		return t.Format("15"), true
	case 'h':
		if n == 1 {
			return t.Format("3"), true
		}
		return t.Format("03"), true
	case 'm':
		if n == 1 {
			return t.Format("4"), true
		}
		return t.Format("04"), true
	case 's':
		if n == 1 {
			return t.Format("5"), true
		}
		return t.Format("05"), true
	case 'f', 'F':
		if n > 9 {
			n = 9
		}
		frac := strconv.Itoa(t.Nanosecond() + 1e9)[1 : 1+n]
		if c == 'F' {
			frac = strings.TrimRight(frac, "0")
		}
		return frac, true
	case 't':
		if n == 1 {
			return t.Format("PM")[:1], true
		}
		return t.Format("PM"), true
	case 'z':
		switch n {
		case 1:
			_, offset := t.Zone()
			return strconv.Itoa(offset / 3600), true
		case 2:
			return t.Format("-07"), true
		default:
			return t.Format("-07:00"), true
		}
	case 'K':
		return t.Format("Z07:00"), true
	}
	return "", false
}
