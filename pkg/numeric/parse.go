// Package numeric normalises the locale-variant numeric strings typed into
// the deal form. Parsing is lenient in the way browser form scripts are: the
// longest numeric prefix wins, so "12abc" is 12 and "1.2.3" is 1.2. Failure is
// reported as NaN, never as an error or a panic.
package numeric

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount strips every thousands separator (comma) and parses the rest.
func ParseAmount(raw string) float64 {
	return ParseFloat(strings.ReplaceAll(raw, ",", ""))
}

// ParseDecimal accepts either a comma or a dot as the decimal separator. Only
// the first comma is rewritten, so "1,234.5" parses as 1.234.
func ParseDecimal(raw string) float64 {
	return ParseFloat(strings.Replace(raw, ",", ".", 1))
}

// ParseFloat parses the longest leading decimal literal of raw after skipping
// leading whitespace. It returns NaN when no digits are found.
func ParseFloat(raw string) float64 {
	s := strings.TrimLeftFunc(raw, isSpace)
	end := scanPrefix(s)
	if end == 0 {
		return math.NaN()
	}
	literal := s[:end]

	unsigned := strings.TrimLeft(literal, "+-")
	if unsigned == "Infinity" {
		if strings.HasPrefix(literal, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		// out of range literals still carry the saturated value
		if errors.Is(err, strconv.ErrRange) {
			return value
		}
		return math.NaN()
	}
	return value
}

// ParseStrict parses the whole of raw, surrounding whitespace aside, as a
// decimal literal. Trailing text makes it NaN.
func ParseStrict(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return value
}

// Valid reports whether v is a usable number (not NaN).
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

// Positive reports whether v is a finite number greater than zero.
func Positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// scanPrefix returns the byte length of the numeric literal at the start of
// s, or 0 when there is none.
func scanPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return i + len("Infinity")
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
