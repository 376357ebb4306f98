package eir

import (
	"time"

	"github.com/goliatone/go-dealform/pkg/deal"
)

// ComparisonRow sets the complex and simple effective interest of one period
// side by side.
type ComparisonRow struct {
	DealID          string  `json:"deal_id"`
	Date            string  `json:"date"`
	Principal       float64 `json:"principal_balance"`
	NominalRate     float64 `json:"nominal_interest_rate"`
	ComplexInterest float64 `json:"complex_effective_interest"`
	SimpleInterest  float64 `json:"simple_effective_interest"`
	ComplexRate     float64 `json:"complex_eir"`
	SimpleRate      float64 `json:"simple_eir"`
	InterestDiff    float64 `json:"absolute_interest_diff"`
	RelativeDiff    float64 `json:"relative_interest_diff"`
	RateDiff        float64 `json:"eir_difference"`
}

// SummaryRow is a ComparisonRow for a calendar year. Interest is summed over
// the year; balances and rates come from its last payment date.
type SummaryRow struct {
	DealID          string  `json:"deal_id"`
	Year            int     `json:"year"`
	Principal       float64 `json:"principal_balance"`
	NominalRate     float64 `json:"nominal_interest_rate"`
	ComplexInterest float64 `json:"complex_effective_interest"`
	SimpleInterest  float64 `json:"simple_effective_interest"`
	ComplexRate     float64 `json:"complex_eir"`
	SimpleRate      float64 `json:"simple_eir"`
	InterestDiff    float64 `json:"absolute_interest_diff"`
	RelativeDiff    float64 `json:"relative_interest_diff"`
	RateDiff        float64 `json:"eir_difference"`
}

// Comparison holds both methods for one deal.
type Comparison struct {
	DealID  string          `json:"deal_id"`
	Periods []ComparisonRow `json:"periods"`
	Summary []SummaryRow    `json:"summary"`
	// ComplexTime and SimpleTime time the effective interest step of the
	// simple run: the full solve and the floating re-pricing.
	ComplexTime time.Duration `json:"complex_time"`
	SimpleTime  time.Duration `json:"simple_time"`
	// Efficiency is ComplexTime / SimpleTime - 1.
	Efficiency float64 `json:"efficiency"`
}

// Compare runs both methods and lines them up by period and by year.
func Compare(d deal.Deal) (Comparison, error) {
	simple, err := Simple(d)
	if err != nil {
		return Comparison{}, err
	}
	rerun, err := Complex(d)
	if err != nil {
		return Comparison{}, err
	}

	out := Comparison{
		DealID:      d.DealID,
		ComplexTime: simple.Timing.Solve,
		SimpleTime:  simple.Timing.Refloat,
	}
	if out.SimpleTime > 0 {
		out.Efficiency = float64(out.ComplexTime)/float64(out.SimpleTime) - 1
	}

	for i := 1; i < len(rerun.Rows); i++ {
		c, s := rerun.Rows[i], simple.Rows[i]
		out.Periods = append(out.Periods, ComparisonRow{
			DealID:          d.DealID,
			Date:            c.Date,
			Principal:       rerun.Rows[i-1].Principal,
			NominalRate:     c.NominalRate,
			ComplexInterest: c.EffectiveInterest,
			SimpleInterest:  s.EffectiveInterest,
			ComplexRate:     c.EffectiveRate,
			SimpleRate:      s.EffectiveRate,
			InterestDiff:    c.EffectiveInterest - s.EffectiveInterest,
			RelativeDiff:    relative(c.EffectiveInterest, s.EffectiveInterest),
			RateDiff:        c.EffectiveRate - s.EffectiveRate,
		})
	}
	out.Summary = summarize(d.DealID, simple.Rows, rerun.Rows)
	return out, nil
}

func relative(base, other float64) float64 {
	if base == 0 {
		return 0
	}
	return (base - other) / base * 100
}

// summarize groups rows by calendar year. A leading year without interest,
// such as a start date in a year with no payment, is dropped.
func summarize(dealID string, simple, rerun []Row) []SummaryRow {
	var (
		years      []int
		last       = map[int]int{}
		simpleSums = map[int]float64{}
		rerunSums  = map[int]float64{}
	)
	for i, row := range simple {
		year := yearOf(row.Date)
		if _, seen := last[year]; !seen {
			years = append(years, year)
		}
		last[year] = i
		simpleSums[year] += row.EffectiveInterest
		rerunSums[year] += rerun[i].EffectiveInterest
	}
	if len(years) > 0 && simpleSums[years[0]] == 0 {
		years = years[1:]
	}

	out := make([]SummaryRow, 0, len(years))
	for _, year := range years {
		s, c := simple[last[year]], rerun[last[year]]
		sum := SummaryRow{
			DealID:          dealID,
			Year:            year,
			Principal:       s.Principal,
			NominalRate:     s.NominalRate,
			ComplexInterest: rerunSums[year],
			SimpleInterest:  simpleSums[year],
			ComplexRate:     c.EffectiveRate,
			SimpleRate:      s.EffectiveRate,
		}
		sum.InterestDiff = sum.ComplexInterest - sum.SimpleInterest
		sum.RelativeDiff = relative(sum.ComplexInterest, sum.SimpleInterest)
		sum.RateDiff = sum.ComplexRate - sum.SimpleRate
		out = append(out, sum)
	}
	return out
}

func yearOf(date string) int {
	t, err := deal.Date(date)
	if err != nil {
		return 0
	}
	return t.Year()
}
