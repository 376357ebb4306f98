// Package setupcost totals the setup-cost rows of a deal, converting each
// row into the functional currency with its own exchange rate.
package setupcost

import (
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
)

// Result is the outcome of one recalculation. Empty is distinct from a zero
// total: it means no row contributed.
type Result struct {
	Total float64
	Empty bool
	// Valid is aligned with the input rows; false marks the amount field.
	Valid []bool
}

// Display renders the total the way the form's total field shows it: the
// number, or an empty string when nothing contributed.
func (r Result) Display() string {
	if r.Empty {
		return ""
	}
	return numeric.FormatNumber(r.Total)
}

// Calculator computes setup-cost totals. The zero value is ready to use.
type Calculator struct{}

// New returns a Calculator.
func New() *Calculator { return &Calculator{} }

// ComputeTotal sums amount/fx over every row whose amount parses to a finite
// number above zero. Missing, unparsable or non-positive rates count as 1.
func (c *Calculator) ComputeTotal(rows []model.SetupCostRow) Result {
	result := Result{Valid: make([]bool, len(rows))}
	contributed := false

	for i, row := range rows {
		value, ok := ConvertedAmount(row)
		if !ok {
			continue
		}
		result.Valid[i] = true
		result.Total += value
		contributed = true
	}

	result.Empty = !contributed
	return result
}

// ConvertedAmount reports the functional-currency value of a single row and
// whether the row contributes to the total.
func ConvertedAmount(row model.SetupCostRow) (float64, bool) {
	amount := numeric.ParseAmount(row.Amount)
	fx := EffectiveRate(row.FXRate)
	if !numeric.Positive(amount) {
		return 0, false
	}
	return amount / fx, true
}

// EffectiveRate parses a row exchange rate, substituting 1 when the rate is
// missing, unparsable or not above zero.
func EffectiveRate(raw string) float64 {
	fx := numeric.ParseDecimal(raw)
	if !numeric.Valid(fx) || fx <= 0 {
		return 1
	}
	return fx
}
