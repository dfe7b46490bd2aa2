package syntax

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unquote returns the cooked value of a quoted string literal. Text that is
// not enclosed in matching quotes is returned unchanged.
func Unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	q := raw[0]
	if (q != '"' && q != '\'' && q != '`') || raw[len(raw)-1] != q {
		return raw
	}
	return decodeEscapes(raw[1 : len(raw)-1])
}

// decodeEscapes resolves JavaScript escape sequences. Malformed escapes keep
// the escaped character, which is what engines do outside strict templates.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 == len(s) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch esc := s[i]; esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			if i+1 < len(s) && isDigit(s[i+1]) {
				b.WriteByte(esc)
				continue
			}
			b.WriteByte(0)
		case '\r':
			// line continuation
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if r, ok := hexRune(s, i+1, 2); ok {
				b.WriteRune(r)
				i += 2
				continue
			}
			b.WriteByte(esc)
		case 'u':
			r, n := unicodeEscape(s, i+1)
			if n == 0 {
				b.WriteByte(esc)
				continue
			}
			b.WriteRune(r)
			i += n
		default:
			// U+2028 and U+2029 are line continuations as well
			r, size := utf8.DecodeRuneInString(s[i:])
			if r != '\u2028' && r != '\u2029' {
				b.WriteRune(r)
			}
			i += size - 1
		}
	}
	return b.String()
}

// unicodeEscape decodes \uXXXX or \u{X...} starting at s[at] (just after the
// 'u'), returning the rune and the number of bytes consumed.
func unicodeEscape(s string, at int) (rune, int) {
	if at < len(s) && s[at] == '{' {
		end := strings.IndexByte(s[at:], '}')
		if end < 2 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[at+1:at+end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0
		}
		return rune(v), end + 1
	}
	r, ok := hexRune(s, at, 4)
	if !ok {
		return 0, 0
	}
	// surrogate pair
	if r >= 0xD800 && r < 0xDC00 && at+10 <= len(s) && s[at+4] == '\\' && s[at+5] == 'u' {
		if lo, ok := hexRune(s, at+6, 4); ok && lo >= 0xDC00 && lo < 0xE000 {
			return (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000, 10
		}
	}
	return r, 4
}

func hexRune(s string, at, n int) (rune, bool) {
	if at+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// isLegacyOctal reports whether text is a 0-prefixed run of octal digits.
// A leading zero followed by an 8 or 9 is read as decimal instead.
func isLegacyOctal(text string) bool {
	if len(text) < 2 || text[0] != '0' {
		return false
	}
	for i := 1; i < len(text); i++ {
		if text[i] < '0' || text[i] > '7' {
			return false
		}
	}
	return true
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

// ParseNumber returns the numeric value of a number literal. A legacy octal
// literal such as 010 is read in base 8, and a decimal literal out of the
// float64 range rounds to infinity or zero. BigInt literals and integers too
// large for 64 bits keep their source text.
func ParseNumber(raw string) Value {
	text := strings.ReplaceAll(raw, "_", "")
	if strings.HasSuffix(text, "n") {
		return String(raw)
	}

	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		v, err := strconv.ParseUint(lower, 0, 64)
		if err != nil {
			return String(raw)
		}
		return Number(float64(v))
	}
	if isLegacyOctal(text) {
		v, err := strconv.ParseUint(text[1:], 8, 64)
		if err != nil {
			return String(raw)
		}
		return Number(float64(v))
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return String(raw)
	}
	return Number(v)
}
