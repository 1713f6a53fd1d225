package tmplog

import "time"

func formatterForLayout(layout string) func(time.Time) string {
	switch layout {
	case time.RFC3339:
		return func(t time.Time) string { return string(appendRFC3339(nil, t, false)) }
	case time.RFC3339Nano:
		return func(t time.Time) string { return string(appendRFC3339(nil, t, true)) }
	default:
		return nil
	}
}

// appendRFC3339 appends t in RFC 3339 form, with trailing-zero trimmed
// nanoseconds when nano is set. Years or offsets outside the layout's range
// fall back to time.Time.AppendFormat.
func appendRFC3339(dst []byte, t time.Time, nano bool) []byte {
	layout := time.RFC3339
	if nano {
		layout = time.RFC3339Nano
	}
	year, month, day := t.Date()
	_, offset := t.Zone()
	if year < 0 || year > 9999 || offset < -(18*3600) || offset > 18*3600 {
		return t.AppendFormat(dst, layout)
	}
	hour, min, sec := t.Clock()
	dst = appendFourDigits(dst, year)
	dst = append(dst, '-')
	dst = appendTwoDigits(dst, int(month))
	dst = append(dst, '-')
	dst = appendTwoDigits(dst, day)
	dst = append(dst, 'T')
	dst = appendTwoDigits(dst, hour)
	dst = append(dst, ':')
	dst = appendTwoDigits(dst, min)
	dst = append(dst, ':')
	dst = appendTwoDigits(dst, sec)
	if ns := t.Nanosecond(); nano && ns != 0 {
		dst = appendFraction(dst, ns)
	}
	if offset == 0 {
		return append(dst, 'Z')
	}
	if offset < 0 {
		dst = append(dst, '-')
		offset = -offset
	} else {
		dst = append(dst, '+')
	}
	dst = appendTwoDigits(dst, offset/3600)
	dst = append(dst, ':')
	return appendTwoDigits(dst, (offset%3600)/60)
}

func appendFraction(buf []byte, nano int) []byte {
	buf = append(buf, '.')
	var digits [9]byte
	for i := 8; i >= 0; i-- {
		digits[i] = byte('0' + nano%10)
		nano /= 10
	}
	n := 9
	for n > 0 && digits[n-1] == '0' {
		n--
	}
	return append(buf, digits[:n]...)
}

func appendFourDigits(buf []byte, v int) []byte {
	buf = appendTwoDigits(buf, v/100)
	return appendTwoDigits(buf, v%100)
}

func appendTwoDigits(buf []byte, value int) []byte {
	return append(buf, byte('0'+value/10), byte('0'+value%10))
}
