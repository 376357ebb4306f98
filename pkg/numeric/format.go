package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatNumber renders v using the shortest round-trip representation,
// switching to exponent form for very large or very small magnitudes the same
// way a browser writes a number into an input value.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		out := strconv.FormatFloat(v, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(out, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatThousands renders v rounded to two decimals with comma thousands
// separators ("1234567.891" → "1,234,567.89"). Non-finite values render empty.
func FormatThousands(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return thousands.Sprintf("%.2f", Round(v, 2))
}

var thousands = message.NewPrinter(language.English)

// Round rounds v half away from zero to places decimals using decimal
// arithmetic so 2.675 rounds to 2.68 rather than the binary 2.67.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	out, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return out
}
