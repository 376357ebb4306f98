package deal

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCurrency is returned for codes that are not ISO 4217.
	ErrInvalidCurrency = errors.New("deal: invalid currency code")
	// ErrInvalidPrincipal is returned when the principal does not parse.
	ErrInvalidPrincipal = errors.New("deal: invalid principal amount")
	// ErrInvalidFXRate is returned for non-numeric or non-positive rates.
	ErrInvalidFXRate = errors.New("deal: invalid exchange rate")
	// ErrInvalidSetupCosts is returned when the setup-cost total is not finite.
	ErrInvalidSetupCosts = errors.New("deal: invalid setup costs")
	// ErrInvalidInterestRate is returned for rates that do not parse or are zero.
	ErrInvalidInterestRate = errors.New("deal: invalid interest rate")
	// ErrInvalidInterestType is returned for anything but fixed or floating.
	ErrInvalidInterestType = errors.New("deal: invalid interest type")

	ErrInvalidDiscount = errors.New("deal: invalid input for discount")
	ErrInvalidPremium  = errors.New("deal: invalid input for premium")
	// ErrNotPercentage is returned for a discount or premium of 100 or more.
	ErrNotPercentage = errors.New("deal: must be provided in %")
	// ErrDiscountAndPremium is returned when both amounts are non-zero.
	ErrDiscountAndPremium = errors.New("deal: instrument cannot have discount and premium at the same time")

	ErrInvalidStructure         = errors.New("deal: invalid structure")
	ErrInvalidInterestFrequency = errors.New("deal: invalid interest frequency")
	ErrInvalidDayCount          = errors.New("deal: invalid daycount")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("deal: invalid date format, use YYYY-MM-DD")
	// ErrInvalidTerm is returned unless start < first interest date <= end.
	ErrInvalidTerm = errors.New("deal: dates must satisfy start < first interest date <= end")
	// ErrDateOffSchedule is returned for an interest point that is not a
	// cash-flow date.
	ErrDateOffSchedule = errors.New("deal: date is not valid")
)

// ScheduleError names an interest date that is not a cash-flow date.
type ScheduleError struct {
	Date string
}

func (e *ScheduleError) Error() string {
	return ErrDateOffSchedule.Error() + ": " + e.Date
}

func (e *ScheduleError) Unwrap() error { return ErrDateOffSchedule }

// OffSchedule lists the dates of every ScheduleError in err, following
// joined errors.
func OffSchedule(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var dates []string
		for _, inner := range joined.Unwrap() {
			dates = append(dates, OffSchedule(inner)...)
		}
		return dates
	}
	var se *ScheduleError
	if errors.As(err, &se) {
		return []string{strings.TrimSpace(se.Date)}
	}
	return nil
}
