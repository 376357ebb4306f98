package eir

import (
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
)

// Method names the way floating rates are folded into the schedule.
type Method string

const (
	// MethodSimple solves the effective rate once and re-prices the floating
	// coupons over the fixed amortisation.
	MethodSimple Method = "simple"
	// MethodComplex solves again from every rate reset, keeping the periods
	// already passed.
	MethodComplex Method = "complex"
	// MethodComparison runs both and reports the differences.
	MethodComparison Method = "comparison"
)

// ParseMethod normalises a method name.
func ParseMethod(raw string) (Method, bool) {
	switch m := Method(raw); m {
	case MethodSimple, MethodComplex, MethodComparison:
		return m, true
	default:
		return "", false
	}
}

// Timing records how long the effective rate solve and the floating
// re-pricing took.
type Timing struct {
	Solve   time.Duration `json:"solve"`
	Refloat time.Duration `json:"refloat"`
}

// Row is one date of an amortisation schedule. Period 0 is the start date and
// has no interest columns.
type Row struct {
	Period            int     `json:"period"`
	DealID            string  `json:"deal_id"`
	Date              string  `json:"date"`
	Currency          string  `json:"currency"`
	Principal         float64 `json:"principal_balance"`
	NominalRate       float64 `json:"nominal_interest_rate"`
	NominalInterest   float64 `json:"nominal_interest"`
	TotalCashFlow     float64 `json:"total_cash_flow"`
	Capitalised       float64 `json:"capitalised_finance_costs"`
	AmortizedCost     float64 `json:"amortized_cost"`
	EffectiveInterest float64 `json:"effective_interest"`
	Amortization      float64 `json:"amortization"`
	EffectiveRate     float64 `json:"effective_interest_rate"`
}

// Report is an amortisation schedule, one row per cash-flow date.
type Report struct {
	Method Method `json:"method"`
	DealID string `json:"deal_id"`
	Rows   []Row  `json:"rows"`
	Timing Timing `json:"timing"`
}

type calendar struct {
	dates     []time.Time
	principal []float64
	plan      []reset
	months    int
}

// reset is a rate that applies from period onwards.
type reset struct {
	period int
	rate   float64
}

func prepare(d deal.Deal) (calendar, error) {
	dates, err := deal.ParseDates(d.CashFlowDates)
	if err != nil {
		return calendar{}, err
	}
	if len(dates) < 2 {
		return calendar{}, fmt.Errorf("eir: deal %q has no payment dates", d.DealID)
	}
	periods := len(dates) - 1

	// Period k is paid on dates[k+1].
	index := make(map[string]int, periods)
	for k := 0; k < periods; k++ {
		index[d.CashFlowDates[k+1]] = k
	}
	rates := map[int]float64{0: d.InterestRate}
	for _, point := range d.Schedule {
		k, ok := index[point.Date]
		if !ok {
			return calendar{}, &deal.ScheduleError{Date: point.Date}
		}
		rates[k] = point.Rate
	}
	plan := make([]reset, 0, len(rates))
	for k, rate := range rates {
		plan = append(plan, reset{period: k, rate: rate})
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].period < plan[j].period })

	return calendar{
		dates:     dates,
		principal: balances(d.Structure, d.PrincipalAmount, periods),
		plan:      plan,
		months:    d.InterestFrequency.Months(),
	}, nil
}

func (c calendar) periods() int {
	return len(c.dates) - 1
}

// stepRates spreads the resets over every period.
func (c calendar) stepRates() []float64 {
	out := make([]float64, c.periods())
	for j, r := range c.plan {
		end := len(out)
		if j+1 < len(c.plan) {
			end = c.plan[j+1].period
		}
		for k := r.period; k < end; k++ {
			out[k] = r.rate
		}
	}
	return out
}

func constant(rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rate
	}
	return out
}

// Simple solves the effective rate once with the first rate of the schedule.
// A floating deal then keeps that amortisation and re-prices the coupons
// with the full rate schedule. Fixed deals get the same result as Complex.
func Simple(d deal.Deal) (Report, error) {
	cal, err := prepare(d)
	if err != nil {
		return Report{}, err
	}
	n := cal.periods()

	nominal := constant(cal.plan[0].rate, n)
	interest := coupons(cal.dates, nominal, d.DayCount, cal.months, cal.principal)
	total := totalCashFlows(d.PrincipalAmount, d.CapitalisedFinanceCosts, d.Structure, interest)

	started := time.Now()
	run, err := amortize(d.InterestRate, cal.dates, total, interest, d.CapitalisedFinanceCosts)
	if err != nil {
		return Report{}, err
	}
	timing := Timing{Solve: time.Since(started)}
	timing.Refloat = timing.Solve

	if d.InterestType == model.InterestTypeFloating {
		nominal = cal.stepRates()
		interest = coupons(cal.dates, nominal, d.DayCount, cal.months, cal.principal)
		total = totalCashFlows(d.PrincipalAmount, d.CapitalisedFinanceCosts, d.Structure, interest)

		started = time.Now()
		run = refloat(run, cal.dates, interest)
		run.Total = total
		timing.Refloat = time.Since(started)
	}

	report := build(MethodSimple, d, cal, nominal, run)
	report.Timing = timing
	return report, nil
}

// Complex solves the effective rate again from each rate reset. Periods
// before the reset keep their values; the reset runs from the principal and
// capitalised costs outstanding at that point.
func Complex(d deal.Deal) (Report, error) {
	cal, err := prepare(d)
	if err != nil {
		return Report{}, err
	}
	n := cal.periods()

	final := schedule{
		Total:       []float64{d.CapitalisedFinanceCosts - d.PrincipalAmount},
		Capitalised: []float64{d.CapitalisedFinanceCosts},
	}
	started := time.Now()
	for j, r := range cal.plan {
		end := n
		if j+1 < len(cal.plan) {
			end = cal.plan[j+1].period
		}
		k := r.period
		dates := cal.dates[k:]
		interest := coupons(dates, constant(r.rate, n-k), d.DayCount, cal.months, cal.principal[k:])
		total := totalCashFlows(cal.principal[k], final.Capitalised[k], d.Structure, interest)
		run, err := amortize(r.rate, dates, total, interest, final.Capitalised[k])
		if err != nil {
			return Report{}, fmt.Errorf("reset on %s: %w", d.CashFlowDates[k+1], err)
		}

		keep := end - k
		final.Coupons = append(final.Coupons, interest[:keep]...)
		final.Total = append(final.Total, total[1:keep+1]...)
		final.Effective = append(final.Effective, run.Effective[:keep]...)
		final.Amortization = append(final.Amortization, run.Amortization[:keep]...)
		final.Rates = append(final.Rates, run.Rates[:keep]...)
		final.Capitalised = append(final.Capitalised, run.Capitalised[1:keep+1]...)
		if end == n {
			keep++
		}
		final.AmortizedCost = append(final.AmortizedCost, run.AmortizedCost[:keep]...)
	}

	report := build(MethodComplex, d, cal, cal.stepRates(), final)
	report.Timing = Timing{Solve: time.Since(started)}
	return report, nil
}

func build(method Method, d deal.Deal, cal calendar, nominal []float64, run schedule) Report {
	rows := make([]Row, len(cal.dates))
	for i := range rows {
		row := Row{
			Period:        i,
			DealID:        d.DealID,
			Date:          d.CashFlowDates[i],
			Currency:      d.FunctionalCurrency,
			Principal:     cal.principal[i],
			TotalCashFlow: run.Total[i],
			Capitalised:   run.Capitalised[i],
			AmortizedCost: run.AmortizedCost[i],
		}
		if i > 0 {
			row.NominalRate = round2(nominal[i-1] * 100)
			row.NominalInterest = run.Coupons[i-1]
			row.EffectiveInterest = run.Effective[i-1]
			row.Amortization = run.Amortization[i-1]
			row.EffectiveRate = run.Rates[i-1]
		}
		rows[i] = row
	}
	return Report{Method: method, DealID: d.DealID, Rows: rows}
}
