package scanner

import (
	"strings"
	"unicode"
)

// naturalLess compares two strings so that embedded numbers sort by value:
// "2. Intro" sorts before "10. Outro". Comparison is case-insensitive.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, resta := leadingNumber(a)
			nb, restb := leadingNumber(b)
			if na != nb {
				return lessNumeric(na, nb)
			}
			a, b = resta, restb
			continue
		}

		ca := unicode.ToLower(rune(a[0]))
		cb := unicode.ToLower(rune(b[0]))
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func leadingNumber(s string) (digits string, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// lessNumeric compares two digit strings by value without overflowing on
// absurdly long runs of digits.
func lessNumeric(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
