package tmplog

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

const (
	asciiHighBitsMask    uint64 = 0x8080808080808080
	repeatOnes           uint64 = 0x0101010101010101
	jsonControlThreshold uint64 = 0x2020202020202020
	jsonQuoteMask        uint64 = 0x2222222222222222
	jsonBackslashMask    uint64 = 0x5c5c5c5c5c5c5c5c
	consoleSpaceMask     uint64 = 0x2020202020202020
	consoleDelMask       uint64 = 0x7f7f7f7f7f7f7f7f
)

const hexDigits = "0123456789abcdef"

func chunkEqualMask(chunk, target uint64) uint64 {
	x := chunk ^ target
	return (x - repeatOnes) & ^x & asciiHighBitsMask
}

// chunkJSONUnsafeMask flags control bytes, quotes and backslashes. Bytes with
// the high bit set are never flagged, so multi-byte UTF-8 passes through.
func chunkJSONUnsafeMask(chunk uint64) uint64 {
	mask := (chunk - jsonControlThreshold) & ^chunk & asciiHighBitsMask
	mask |= chunkEqualMask(chunk, jsonQuoteMask)
	mask |= chunkEqualMask(chunk, jsonBackslashMask)
	return mask &^ (chunk & asciiHighBitsMask)
}

func chunkConsoleEscapeMask(chunk uint64) uint64 {
	return chunkJSONUnsafeMask(chunk) | chunkEqualMask(chunk, consoleDelMask)
}

func chunkHasConsoleUnsafe(chunk uint64) bool {
	return chunkConsoleEscapeMask(chunk) != 0 || chunkEqualMask(chunk, consoleSpaceMask) != 0
}

var jsonNeedsEscape = func() [256]bool {
	var table [256]bool
	for i := range 0x20 {
		table[i] = true
	}
	table['"'] = true
	table['\\'] = true
	return table
}()

var consoleNeedsEscape = func() [256]bool {
	table := jsonNeedsEscape
	table[0x7f] = true
	return table
}()

func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// appendEscaped appends s with every byte flagged by mask/table replaced by
// its escape. It scans eight bytes at a time and only falls back to the table
// for the tail.
func appendEscaped(dst []byte, s string, mask func(uint64) uint64, table *[256]bool, escape func([]byte, byte) []byte) []byte {
	n := len(s)
	if n == 0 {
		return dst
	}
	b := stringBytes(s)
	lastSafe := 0
	scan := 0
	for scan+8 <= n {
		m := mask(binary.LittleEndian.Uint64(b[scan:]))
		if m == 0 {
			scan += 8
			continue
		}
		for m != 0 {
			pos := scan + bits.TrailingZeros64(m)>>3
			m &= m - 1
			// Borrows can flag the byte after a hit; the table is exact.
			if !table[s[pos]] {
				continue
			}
			dst = append(dst, s[lastSafe:pos]...)
			dst = escape(dst, s[pos])
			lastSafe = pos + 1
		}
		scan += 8
	}
	for ; scan < n; scan++ {
		if c := s[scan]; table[c] {
			dst = append(dst, s[lastSafe:scan]...)
			dst = escape(dst, c)
			lastSafe = scan + 1
		}
	}
	return append(dst, s[lastSafe:]...)
}

func appendJSONEscapedChar(dst []byte, c byte) []byte {
	switch c {
	case '\\', '"':
		return append(dst, '\\', c)
	case '\b':
		return append(dst, '\\', 'b')
	case '\f':
		return append(dst, '\\', 'f')
	case '\n':
		return append(dst, '\\', 'n')
	case '\r':
		return append(dst, '\\', 'r')
	case '\t':
		return append(dst, '\\', 't')
	default:
		return append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
	}
}

func appendConsoleEscapedChar(dst []byte, c byte) []byte {
	switch c {
	case '\\', '"', '\b', '\f', '\n', '\r', '\t':
		return appendJSONEscapedChar(dst, c)
	default:
		return append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&0x0f])
	}
}

// appendJSONString appends s as a quoted JSON string.
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, s, chunkJSONUnsafeMask, &jsonNeedsEscape, appendJSONEscapedChar)
	return append(dst, '"')
}

// appendJSONKey appends "key": using the trusted fast path when possible.
func appendJSONKey(dst []byte, key string) []byte {
	if stringTrustedASCII(key) {
		dst = append(dst, '"')
		dst = append(dst, key...)
		return append(dst, '"', ':')
	}
	dst = appendJSONString(dst, key)
	return append(dst, ':')
}

func appendConsoleQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, s, chunkConsoleEscapeMask, &consoleNeedsEscape, appendConsoleEscapedChar)
	return append(dst, '"')
}

// appendConsoleValue appends s bare, or quoted when it holds whitespace,
// quotes, backslashes or control bytes.
func appendConsoleValue(dst []byte, s string) []byte {
	if s == "" {
		return append(dst, '"', '"')
	}
	if needsQuote(s) {
		return appendConsoleQuoted(dst, s)
	}
	return append(dst, s...)
}

// appendConsoleText appends free text (messages) escaping only control bytes.
func appendConsoleText(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != 0x7f {
			continue
		}
		dst = append(dst, s[:i]...)
		for ; i < len(s); i++ {
			c = s[i]
			if c < 0x20 || c == 0x7f {
				dst = appendConsoleEscapedChar(dst, c)
				continue
			}
			dst = append(dst, c)
		}
		return dst
	}
	return append(dst, s...)
}

func needsQuote(s string) bool {
	return firstConsoleUnsafeIndex(s) != len(s)
}

func firstConsoleUnsafeIndex(s string) int {
	n := len(s)
	b := stringBytes(s)
	i := 0
	for i+8 <= n {
		if chunkHasConsoleUnsafe(binary.LittleEndian.Uint64(b[i:])) {
			for j := range 8 {
				if consoleByteUnsafe(b[i+j]) {
					return i + j
				}
			}
		}
		i += 8
	}
	for ; i < n; i++ {
		if consoleByteUnsafe(b[i]) {
			return i
		}
	}
	return n
}

func consoleByteUnsafe(c byte) bool {
	return c < 0x20 || c == ' ' || c == '\\' || c == '"' || c == 0x7f
}

// stringTrustedASCII reports whether s is printable ASCII needing no JSON
// escaping.
func stringTrustedASCII(s string) bool {
	n := len(s)
	b := stringBytes(s)
	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(b[i:])
		if chunk&asciiHighBitsMask != 0 || chunkJSONUnsafeMask(chunk) != 0 {
			return false
		}
		i += 8
	}
	for ; i < n; i++ {
		if c := b[i]; c < 0x20 || c == '"' || c == '\\' || c >= 0x80 {
			return false
		}
	}
	return true
}
