package model

import (
	"strconv"
	"strings"
)

// FieldRef identifies a single input on the form surface. Scalar fields use
// their input name; row-scoped fields append the zero-based row index.
type FieldRef string

const (
	FieldFunctionalCurrency FieldRef = "functional_ccy"
	FieldDealID             FieldRef = "deal_id"
	FieldPrincipalAmount    FieldRef = "principal_amount"
	FieldDealCurrency       FieldRef = "deal_ccy"
	FieldDealFXRate         FieldRef = "deal_fx_rate"
	FieldStartDate          FieldRef = "start_date"
	FieldEndDate            FieldRef = "end_date"
	FieldFirstInterestDate  FieldRef = "first_interest_date"
	FieldInterestRate       FieldRef = "interest_rate"
	FieldInterestType       FieldRef = "interest_type"
	FieldDiscount           FieldRef = "discount"
	FieldPremium            FieldRef = "premium"
	FieldStructure          FieldRef = "structure"
	FieldInterestFrequency  FieldRef = "interest_freq"
	FieldDayCount           FieldRef = "daycount"
	FieldInterestDate       FieldRef = "interest_date"
	FieldInterestRowRate    FieldRef = "interest_rate_row"
	FieldSetupCostAmount    FieldRef = "setup_cost_amount"
	FieldSetupCostCurrency  FieldRef = "setupcosts_ccy"
	FieldSetupCostFX        FieldRef = "setup_cost_fx"
	FieldSetupCostsTotal    FieldRef = "setup_costs_total"
)

// SectionFloatingInterest names the block holding the floating rate rows.
const SectionFloatingInterest = "floating-interest-section"

// RowField scopes a repeating field to one row.
func RowField(base FieldRef, index int) FieldRef {
	return FieldRef(string(base) + "." + strconv.Itoa(index))
}

// Split returns the base name and row index of a FieldRef. Scalar refs
// report index -1.
func (f FieldRef) Split() (FieldRef, int) {
	raw := string(f)
	idx := strings.LastIndexByte(raw, '.')
	if idx < 0 {
		return f, -1
	}
	row, err := strconv.Atoi(raw[idx+1:])
	if err != nil || row < 0 {
		return f, -1
	}
	return FieldRef(raw[:idx]), row
}

func (f FieldRef) String() string { return string(f) }
