package model

import "strings"

// InterestType selects between a single fixed rate and a floating schedule.
type InterestType string

const (
	InterestTypeFixed    InterestType = "fixed"
	InterestTypeFloating InterestType = "floating"
)

// ParseInterestType normalises a raw radio value. Unknown values report false.
func ParseInterestType(raw string) (InterestType, bool) {
	switch InterestType(strings.ToLower(strings.TrimSpace(raw))) {
	case InterestTypeFixed:
		return InterestTypeFixed, true
	case InterestTypeFloating:
		return InterestTypeFloating, true
	default:
		return "", false
	}
}

// SetupCostRow is one onboarding or transaction cost line item, each
// potentially in its own currency. Values are kept exactly as typed.
type SetupCostRow struct {
	Amount   string `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
	FXRate   string `json:"fx_rate" yaml:"fx_rate"`
}

// InterestRateRow is one scheduled interest payment date/rate pair.
type InterestRateRow struct {
	Date string `json:"date" yaml:"date"`
	Rate string `json:"rate" yaml:"rate"`
}

// FormSnapshot is a read-only projection of every field on the deal form at
// the moment it was captured.
type FormSnapshot struct {
	FunctionalCurrency string `json:"functional_ccy" yaml:"functional_ccy"`
	DealID             string `json:"deal_id" yaml:"deal_id"`
	PrincipalAmount    string `json:"principal_amount" yaml:"principal_amount"`
	DealCurrency       string `json:"deal_ccy" yaml:"deal_ccy"`
	DealFXRate         string `json:"deal_fx_rate" yaml:"deal_fx_rate"`
	StartDate          string `json:"start_date" yaml:"start_date"`
	EndDate            string `json:"end_date" yaml:"end_date"`
	FirstInterestDate  string `json:"first_interest_date" yaml:"first_interest_date"`
	// InterestRate is the headline rate paired with FirstInterestDate.
	InterestRate string `json:"interest_rate" yaml:"interest_rate"`
	// InterestDates holds one entry per repeatable interest date input, in
	// page order.
	InterestDates []string     `json:"interest_dates" yaml:"interest_dates"`
	InterestType  InterestType `json:"interest_type" yaml:"interest_type"`
	// Discount and Premium are percentages of the principal; blank means
	// none.
	Discount          string            `json:"discount" yaml:"discount"`
	Premium           string            `json:"premium" yaml:"premium"`
	Structure         Structure         `json:"structure" yaml:"structure"`
	InterestFrequency InterestFrequency `json:"interest_freq" yaml:"interest_freq"`
	DayCount          DayCount          `json:"daycount" yaml:"daycount"`

	SetupCostRows    []SetupCostRow    `json:"setup_costs" yaml:"setup_costs"`
	InterestRateRows []InterestRateRow `json:"interest_rates" yaml:"interest_rates"`
}

// Clone returns a deep copy so callers can hand snapshots across handlers
// without sharing row slices.
func (s FormSnapshot) Clone() FormSnapshot {
	out := s
	out.InterestDates = append([]string(nil), s.InterestDates...)
	out.SetupCostRows = append([]SetupCostRow(nil), s.SetupCostRows...)
	out.InterestRateRows = append([]InterestRateRow(nil), s.InterestRateRows...)
	return out
}

// Value returns the raw value of a scalar field. Row-scoped and unknown
// fields report false.
func (s FormSnapshot) Value(field FieldRef) (string, bool) {
	switch field {
	case FieldFunctionalCurrency:
		return s.FunctionalCurrency, true
	case FieldDealID:
		return s.DealID, true
	case FieldPrincipalAmount:
		return s.PrincipalAmount, true
	case FieldDealCurrency:
		return s.DealCurrency, true
	case FieldDealFXRate:
		return s.DealFXRate, true
	case FieldStartDate:
		return s.StartDate, true
	case FieldEndDate:
		return s.EndDate, true
	case FieldFirstInterestDate:
		return s.FirstInterestDate, true
	case FieldInterestRate:
		return s.InterestRate, true
	case FieldInterestType:
		return string(s.InterestType), true
	case FieldDiscount:
		return s.Discount, true
	case FieldPremium:
		return s.Premium, true
	case FieldStructure:
		return string(s.Structure), true
	case FieldInterestFrequency:
		return string(s.InterestFrequency), true
	case FieldDayCount:
		return string(s.DayCount), true
	default:
		return "", false
	}
}

// SetValue writes a scalar field. It reports false for fields that are not
// scalars.
func (s *FormSnapshot) SetValue(field FieldRef, value string) bool {
	switch field {
	case FieldFunctionalCurrency:
		s.FunctionalCurrency = value
	case FieldDealID:
		s.DealID = value
	case FieldPrincipalAmount:
		s.PrincipalAmount = value
	case FieldDealCurrency:
		s.DealCurrency = value
	case FieldDealFXRate:
		s.DealFXRate = value
	case FieldStartDate:
		s.StartDate = value
	case FieldEndDate:
		s.EndDate = value
	case FieldFirstInterestDate:
		s.FirstInterestDate = value
	case FieldInterestRate:
		s.InterestRate = value
	case FieldInterestType:
		s.InterestType = InterestType(value)
	case FieldDiscount:
		s.Discount = value
	case FieldPremium:
		s.Premium = value
	case FieldStructure:
		s.Structure = Structure(value)
	case FieldInterestFrequency:
		s.InterestFrequency = InterestFrequency(value)
	case FieldDayCount:
		s.DayCount = DayCount(value)
	default:
		return false
	}
	return true
}
