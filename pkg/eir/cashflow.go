// Package eir builds effective interest rate schedules for a normalised deal.
// Amounts follow the sign convention of an asset: the opening cash flow is
// an outflow and every payment is an inflow.
package eir

import (
	"errors"
	"math"
	"time"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
)

// ErrNoYield is returned when no rate in [0, 1] amortises the cost to zero.
var ErrNoYield = errors.New("eir: no effective rate in [0, 1] clears the amortized cost")

func days(dates []time.Time, i int) float64 {
	return dates[i+1].Sub(dates[i]).Hours() / 24
}

func round2(v float64) float64 {
	return numeric.Round(v, 2)
}

// balances returns the opening principal of every period plus the closing
// zero. An amortizing deal repays an equal share each period.
func balances(structure model.Structure, principal float64, periods int) []float64 {
	out := make([]float64, periods+1)
	for i := 0; i < periods; i++ {
		if structure == model.StructureAmortizing {
			out[i] = principal - float64(i)*principal/float64(periods)
			continue
		}
		out[i] = principal
	}
	return out
}

// daysInYear picks the actual/actual denominator: the start year decides
// for periods opening in January or February, the end year otherwise.
func daysInYear(from, to time.Time) float64 {
	if from.Month() < time.March {
		return yearDays(from.Year())
	}
	return yearDays(to.Year())
}

func yearDays(year int) float64 {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

// coupons returns the nominal interest paid at the end of each period.
func coupons(dates []time.Time, rates []float64, dayCount model.DayCount, months int, principal []float64) []float64 {
	periods := len(dates) - 1
	out := make([]float64, periods)
	for i := 0; i < periods; i++ {
		var periodic float64
		switch dayCount {
		case model.DayCountThirty360:
			periodic = rates[i] / 12 * float64(months)
		case model.DayCountActual360:
			periodic = rates[i] / 360 * days(dates, i)
		case model.DayCountActual365:
			periodic = rates[i] / 365 * days(dates, i)
		default:
			periodic = rates[i] / daysInYear(dates[i], dates[i+1]) * days(dates, i)
		}
		out[i] = principal[i] * periodic
	}
	return out
}

// totalCashFlows nets principal and interest per date. The first entry is
// the principal paid out less the capitalised costs.
func totalCashFlows(principal, capitalised float64, structure model.Structure, interest []float64) []float64 {
	periods := len(interest)
	out := make([]float64, 0, periods+1)
	out = append(out, capitalised-principal)
	if structure == model.StructureAmortizing {
		share := principal / float64(periods)
		for _, coupon := range interest {
			out = append(out, round2(share+coupon))
		}
		return out
	}
	out = append(out, interest...)
	out[periods] += principal
	return out
}

// schedule is one amortisation run over a tail of the payment calendar.
// Per-period slices have one entry per period; AmortizedCost and
// Capitalised carry an extra opening entry.
type schedule struct {
	Coupons       []float64
	Total         []float64
	Effective     []float64
	AmortizedCost []float64
	Amortization  []float64
	Rates         []float64
	Capitalised   []float64
}

// amortize solves the effective rate and rolls the amortized cost forward.
// Effective interest accrues on an actual/365 basis whatever the coupon day
// count.
func amortize(guess float64, dates []time.Time, total, interest []float64, capitalised float64) (schedule, error) {
	rate, err := solveRate(guess, dates, total)
	if err != nil {
		return schedule{}, err
	}

	periods := len(interest)
	out := schedule{
		Coupons:       interest,
		Total:         total,
		Effective:     make([]float64, periods),
		AmortizedCost: make([]float64, periods+1),
		Amortization:  make([]float64, periods),
		Rates:         make([]float64, periods),
		Capitalised:   make([]float64, periods+1),
	}
	out.AmortizedCost[0] = -total[0]
	out.Capitalised[0] = capitalised
	for i := 0; i < periods; i++ {
		d := days(dates, i)
		out.Effective[i] = round2(out.AmortizedCost[i] * rate * d / 365)
		out.AmortizedCost[i+1] = round2(out.AmortizedCost[i] - total[i+1] + out.Effective[i])
		out.Amortization[i] = round2(out.Effective[i] - interest[i])
		out.Rates[i] = round2((interest[i] + out.Amortization[i]) / out.AmortizedCost[i] / d * 365 * 100)
		out.Capitalised[i+1] = out.Capitalised[i] - out.Amortization[i]
	}
	return out, nil
}

// refloat replaces the effective interest of a fixed-rate run with the
// floating coupons plus the fixed amortisation, keeping the amortized cost.
func refloat(run schedule, dates []time.Time, interest []float64) schedule {
	periods := len(interest)
	effective := make([]float64, periods)
	rates := make([]float64, periods)
	for i := 0; i < periods; i++ {
		effective[i] = interest[i] + run.Amortization[i]
		rates[i] = round2(effective[i] / run.AmortizedCost[i] / days(dates, i) * 365 * 100)
	}
	run.Coupons = interest
	run.Effective = effective
	run.Rates = rates
	return run
}

const (
	rateTolerance = 1e-7
	rateMaxIter   = 100
	rateFloor     = 0.0
	rateCeiling   = 1.0
)

// residual rolls the unrounded amortized cost at rate r and returns its
// closing value with the derivative in r.
func residual(r float64, dates []time.Time, total []float64) (float64, float64) {
	cost, deriv := -total[0], 0.0
	for i := 0; i+1 < len(total); i++ {
		t := days(dates, i) / 365
		deriv = deriv*(1+r*t) + cost*t
		cost = cost*(1+r*t) - total[i+1]
	}
	return cost, deriv
}

// solveRate runs Newton-Raphson from guess inside [0, 1] and falls back to
// bisection when the step stalls.
func solveRate(guess float64, dates []time.Time, total []float64) (float64, error) {
	r := clamp(guess, rateFloor, rateCeiling)
	for iter := 0; iter < rateMaxIter; iter++ {
		f, df := residual(r, dates, total)
		if math.Abs(f) < rateTolerance {
			return r, nil
		}
		if math.Abs(df) < 1e-15 {
			break
		}
		next := clamp(r-f/df, rateFloor, rateCeiling)
		if next == r {
			break
		}
		r = next
	}
	return bisect(dates, total)
}

func bisect(dates []time.Time, total []float64) (float64, error) {
	lo, hi := rateFloor, rateCeiling
	flo, _ := residual(lo, dates, total)
	fhi, _ := residual(hi, dates, total)
	if math.Signbit(flo) == math.Signbit(fhi) {
		return 0, ErrNoYield
	}
	for iter := 0; iter < 200; iter++ {
		mid := (lo + hi) / 2
		fmid, _ := residual(mid, dates, total)
		if math.Abs(fmid) < rateTolerance {
			return mid, nil
		}
		if math.Signbit(fmid) == math.Signbit(flo) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
