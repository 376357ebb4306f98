package eir

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind names a downloadable table.
type Kind string

const (
	KindReport     Kind = "report"
	KindComparison Kind = "comparison"
	KindSummary    Kind = "summary"
)

var kindFiles = map[Kind]string{
	KindReport:     "amortization_schedule",
	KindComparison: "comparison_schedule",
	KindSummary:    "summary_schedule",
}

// ParseKind normalises a table name.
func ParseKind(raw string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := kindFiles[kind]
	return kind, ok
}

// Filename returns "<deal id>_<table>.<ext>", falling back to the table name
// alone when the deal id is blank.
func Filename(dealID string, kind Kind, ext string) string {
	name := kindFiles[kind]
	if id := strings.TrimSpace(dealID); id != "" {
		name = id + "_" + name
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// Table is a header plus rows of cells. A nil cell is blank.
type Table interface {
	Header() []string
	Records() [][]any
}

var reportHeader = []string{
	"Deal id", "Dates", "Currency", "Principal balance", "Nominal interest rate",
	"Nominal interest", "Total cash flow", "Capitalized finance costs",
	"Amortized cost", "Effective interest", "Amortization schedule",
	"Effective interest rate",
}

var comparisonHeader = []string{
	"Deal id", "Dates", "Principal balance", "Nominal interest rate",
	"Complex effective interest", "Simple effective interest", "Complex EIR",
	"Simple EIR", "Absolute int. diff", "Relative int. diff", "EIR difference",
}

func (r Report) Header() []string { return reportHeader }

// Records leaves the interest columns of the opening row blank.
func (r Report) Records() [][]any {
	out := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		cells := []any{
			row.DealID, row.Date, row.Currency, row.Principal,
			nil, nil, row.TotalCashFlow, row.Capitalised, row.AmortizedCost,
			nil, nil, nil,
		}
		if row.Period > 0 {
			cells[4] = row.NominalRate
			cells[5] = row.NominalInterest
			cells[9] = row.EffectiveInterest
			cells[10] = row.Amortization
			cells[11] = row.EffectiveRate
		}
		out[i] = cells
	}
	return out
}

// PeriodTable returns the per-period comparison.
func (c Comparison) PeriodTable() Table { return periodTable(c.Periods) }

// SummaryTable returns the per-year comparison.
func (c Comparison) SummaryTable() Table { return summaryTable(c.Summary) }

type periodTable []ComparisonRow

func (t periodTable) Header() []string { return comparisonHeader }

func (t periodTable) Records() [][]any {
	out := make([][]any, len(t))
	for i, row := range t {
		out[i] = []any{
			row.DealID, row.Date, row.Principal, row.NominalRate,
			row.ComplexInterest, row.SimpleInterest, row.ComplexRate, row.SimpleRate,
			row.InterestDiff, row.RelativeDiff, row.RateDiff,
		}
	}
	return out
}

type summaryTable []SummaryRow

func (t summaryTable) Header() []string {
	header := append([]string(nil), comparisonHeader...)
	header[1] = "Years"
	return header
}

func (t summaryTable) Records() [][]any {
	out := make([][]any, len(t))
	for i, row := range t {
		out[i] = []any{
			row.DealID, row.Year, row.Principal, row.NominalRate,
			row.ComplexInterest, row.SimpleInterest, row.ComplexRate, row.SimpleRate,
			row.InterestDiff, row.RelativeDiff, row.RateDiff,
		}
	}
	return out
}

// text renders a cell the way a spreadsheet export would: shortest exact
// decimal for numbers, empty for nil.
func text(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	case int:
		return decimal.NewFromInt(int64(v)).String()
	default:
		return ""
	}
}
