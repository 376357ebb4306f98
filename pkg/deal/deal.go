// Package deal turns an accepted form submission into the typed deal record
// handed to downstream calculations.
package deal

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
	"github.com/goliatone/go-dealform/pkg/setupcost"
)

// InterestPoint is one dated rate of the interest schedule. Rate is a
// fraction (4.25% is 0.0425).
type InterestPoint struct {
	Date string  `json:"date" yaml:"date"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// Deal is the normalised record of a submitted form. Amounts are in the
// functional currency unless stated otherwise.
type Deal struct {
	DealID             string  `json:"deal_id" yaml:"deal_id"`
	FunctionalCurrency string  `json:"functional_ccy" yaml:"functional_ccy"`
	DealCurrency       string  `json:"deal_ccy" yaml:"deal_ccy"`
	DealFXRate         float64 `json:"deal_fx_rate" yaml:"deal_fx_rate"`

	// PrincipalAmount is converted with DealFXRate when the deal currency is
	// foreign; EnteredPrincipal keeps the amount as typed.
	PrincipalAmount  float64 `json:"principal_amount" yaml:"principal_amount"`
	EnteredPrincipal float64 `json:"entered_principal" yaml:"entered_principal"`

	// DiscountRate and PremiumRate are the percentages as entered. Discount
	// and Premium are those percentages of PrincipalAmount.
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`
	PremiumRate  float64 `json:"premium_rate" yaml:"premium_rate"`
	Discount     float64 `json:"discount" yaml:"discount"`
	Premium      float64 `json:"premium" yaml:"premium"`

	SetupCosts              float64 `json:"setup_costs" yaml:"setup_costs"`
	CapitalisedFinanceCosts float64 `json:"capitalised_finance_costs" yaml:"capitalised_finance_costs"`

	StartDate         string                  `json:"start_date" yaml:"start_date"`
	EndDate           string                  `json:"end_date" yaml:"end_date"`
	FirstInterestDate string                  `json:"first_interest_date" yaml:"first_interest_date"`
	InterestRate      float64                 `json:"interest_rate" yaml:"interest_rate"`
	InterestType      model.InterestType      `json:"interest_type" yaml:"interest_type"`
	Structure         model.Structure         `json:"structure" yaml:"structure"`
	InterestFrequency model.InterestFrequency `json:"interest_freq" yaml:"interest_freq"`
	DayCount          model.DayCount          `json:"daycount" yaml:"daycount"`
	Schedule          []InterestPoint         `json:"schedule" yaml:"schedule"`
	// CashFlowDates is the payment calendar, start date first.
	CashFlowDates []string `json:"cash_flow_dates" yaml:"cash_flow_dates"`
}

// Foreign reports whether the deal is denominated outside the functional
// currency.
func (d Deal) Foreign() bool {
	return d.DealCurrency != d.FunctionalCurrency
}

// Normalize converts snapshot into a Deal. total is the setup-cost result
// shown on the form; an empty total counts as zero. Every field is checked
// and all failures are returned joined.
func Normalize(snapshot model.FormSnapshot, total setupcost.Result) (Deal, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	out := Deal{
		DealID:            strings.TrimSpace(snapshot.DealID),
		StartDate:         strings.TrimSpace(snapshot.StartDate),
		EndDate:           strings.TrimSpace(snapshot.EndDate),
		FirstInterestDate: strings.TrimSpace(snapshot.FirstInterestDate),
	}

	var err error
	out.FunctionalCurrency, err = Currency(snapshot.FunctionalCurrency)
	collect(err)
	out.DealCurrency, err = Currency(snapshot.DealCurrency)
	collect(err)
	out.EnteredPrincipal, err = Principal(snapshot.PrincipalAmount)
	collect(err)
	out.DealFXRate, err = ExchangeRate(snapshot.DealFXRate)
	collect(err)
	out.DiscountRate, err = Percentage(snapshot.Discount, ErrInvalidDiscount)
	collect(err)
	out.PremiumRate, err = Percentage(snapshot.Premium, ErrInvalidPremium)
	collect(err)
	out.SetupCosts, err = SetupCosts(total)
	collect(err)
	out.InterestRate, err = InterestRate(snapshot.InterestRate)
	collect(err)

	interestType, ok := model.ParseInterestType(string(snapshot.InterestType))
	if !ok {
		collect(fmt.Errorf("%w: %q", ErrInvalidInterestType, snapshot.InterestType))
	}
	out.InterestType = interestType
	if out.Structure, ok = model.ParseStructure(string(snapshot.Structure)); !ok {
		collect(fmt.Errorf("%w: %q", ErrInvalidStructure, snapshot.Structure))
	}
	if out.InterestFrequency, ok = model.ParseInterestFrequency(string(snapshot.InterestFrequency)); !ok {
		collect(fmt.Errorf("%w: %q", ErrInvalidInterestFrequency, snapshot.InterestFrequency))
	}
	if out.DayCount, ok = model.ParseDayCount(string(snapshot.DayCount)); !ok {
		collect(fmt.Errorf("%w: %q", ErrInvalidDayCount, snapshot.DayCount))
	}

	out.Schedule = append(out.Schedule, InterestPoint{Date: out.FirstInterestDate, Rate: out.InterestRate})
	for i, row := range snapshot.InterestRateRows {
		date := strings.TrimSpace(row.Date)
		if date == "" || strings.TrimSpace(row.Rate) == "" {
			continue
		}
		rate, err := InterestRate(row.Rate)
		if err != nil {
			collect(fmt.Errorf("interest row %d: %w", i+1, err))
			continue
		}
		out.Schedule = append(out.Schedule, InterestPoint{Date: date, Rate: rate})
	}

	calendar, err := paymentCalendar(out)
	collect(err)
	if calendar != nil {
		out.CashFlowDates = formatDates(calendar)
		collect(onSchedule(out.Schedule, out.CashFlowDates))
	}

	if len(errs) > 0 {
		return Deal{}, errors.Join(errs...)
	}

	out.PrincipalAmount = out.EnteredPrincipal
	if out.Foreign() {
		out.PrincipalAmount = out.EnteredPrincipal / out.DealFXRate
	}
	out.Discount = out.DiscountRate * out.PrincipalAmount / 100
	out.Premium = out.PremiumRate * out.PrincipalAmount / 100
	if out.Discount != 0 && out.Premium != 0 {
		return Deal{}, ErrDiscountAndPremium
	}
	out.CapitalisedFinanceCosts = out.SetupCosts + out.Discount - out.Premium
	return out, nil
}

// paymentCalendar parses the deal dates and builds the cash-flow dates. It
// returns nil when any date is unusable or the frequency is unknown.
func paymentCalendar(d Deal) ([]time.Time, error) {
	var errs []error
	start, err := Date(d.StartDate)
	if err != nil {
		errs = append(errs, fmt.Errorf("start date: %w", err))
	}
	end, err := Date(d.EndDate)
	if err != nil {
		errs = append(errs, fmt.Errorf("end date: %w", err))
	}
	first, err := Date(d.FirstInterestDate)
	if err != nil {
		errs = append(errs, fmt.Errorf("first interest date: %w", err))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if !start.Before(first) || first.After(end) {
		return nil, fmt.Errorf("%w: %s, %s, %s", ErrInvalidTerm, d.StartDate, d.FirstInterestDate, d.EndDate)
	}
	if d.InterestFrequency.Months() == 0 {
		return nil, nil
	}
	return CashFlowDates(start, end, first, d.InterestFrequency.Months()), nil
}

// onSchedule checks that every interest point falls on a payment date.
func onSchedule(points []InterestPoint, calendar []string) error {
	var errs []error
	for _, point := range points {
		if _, err := Date(point.Date); err != nil {
			errs = append(errs, err)
			continue
		}
		if !slices.Contains(calendar, point.Date) {
			errs = append(errs, &ScheduleError{Date: point.Date})
		}
	}
	return errors.Join(errs...)
}

// Currency trims and upper-cases raw and checks it is an ISO 4217 code.
func Currency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if _, err := currency.ParseISO(code); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
	return code, nil
}

// Principal strips thousands separators and rounds to cents.
func Principal(raw string) (float64, error) {
	amount := numeric.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if !numeric.Valid(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrincipal, raw)
	}
	return numeric.Round(amount, 2), nil
}

// ExchangeRate defaults a blank rate to 1 and rejects anything not above
// zero.
func ExchangeRate(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 1, nil
	}
	rate := numeric.ParseFloat(trimmed)
	if !numeric.Positive(rate) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFXRate, raw)
	}
	return rate, nil
}

// Percentage parses a discount or premium percentage. Blank is zero. The
// value is rounded to two decimals and must stay below 100. invalid is the
// error wrapped when raw does not parse.
func Percentage(raw string, invalid error) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	value := numeric.ParseStrict(raw)
	if !numeric.Valid(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", invalid, raw)
	}
	value = numeric.Round(value, 2)
	if value >= 100 {
		return 0, fmt.Errorf("%w: %w: %q", invalid, ErrNotPercentage, raw)
	}
	return value, nil
}

// SetupCosts rounds the calculated total to cents.
func SetupCosts(total setupcost.Result) (float64, error) {
	if total.Empty {
		return 0, nil
	}
	if math.IsNaN(total.Total) || math.IsInf(total.Total, 0) {
		return 0, ErrInvalidSetupCosts
	}
	return numeric.Round(total.Total, 2), nil
}

// InterestRate converts a percentage into a fraction rounded to six
// decimals. A comma decimal separator is accepted; zero is rejected.
func InterestRate(raw string) (float64, error) {
	pct := numeric.ParseDecimal(strings.TrimSpace(raw))
	if !numeric.Valid(pct) || math.IsInf(pct, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterestRate, raw)
	}
	rate := numeric.Round(pct/100, 6)
	if rate == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterestRate, raw)
	}
	return rate, nil
}
