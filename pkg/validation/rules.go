package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
)

const (
	MsgFunctionalCurrencyRequired = "Functional Currency is required."
	MsgDealIDRequired             = "Deal ID is required."
	MsgPrincipalRequired          = "Principal Amount is required."
	MsgDealCurrencyRequired       = "Deal currency is required."
	MsgDealFXRequired             = "Exchange rate is required for foreign currency instruments."
	MsgSetupCostFXRequired        = "Exchange rate is required for foreign currency instruments (setup costs)."
	MsgInterestRateNumeric        = "Interest Rate must be a valid number (use dot or comma as decimal separator)."
)

// dateShape checks character shape only; 2024-13-45 passes.
var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateFormatMessage returns the message for a malformed date field.
func DateFormatMessage(label string) string {
	return fmt.Sprintf("Invalid date format for %s. Please use YYYY-MM-DD.", label)
}

// ScheduleDateMessage returns the message for an interest date that is not a
// cash-flow date.
func ScheduleDateMessage(date string) string {
	return fmt.Sprintf("Date is not valid: %s", date)
}

// DefaultRules returns the submit-time rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "functional_currency_required", Check: checkFunctionalCurrency},
		{Name: "deal_id_required", Check: checkDealID},
		{Name: "principal_required", Check: checkPrincipal},
		{Name: "deal_currency_required", Check: checkDealCurrency},
		{Name: "deal_fx_foreign_currency", Check: checkDealFX},
		{Name: "date_format", Check: checkDates},
		{Name: "interest_rate_numeric", Check: checkInterestRates},
	}
}

// LoadRules returns the rules evaluated once when the form is first drawn.
func LoadRules() []Rule {
	return []Rule{
		{Name: "setup_cost_fx_foreign_currency", Check: checkSetupCostFX},
	}
}

func checkFunctionalCurrency(s model.FormSnapshot, r *Result) {
	if strings.TrimSpace(s.FunctionalCurrency) == "" {
		r.Add(model.FieldFunctionalCurrency, MsgFunctionalCurrencyRequired)
	}
}

func checkDealID(s model.FormSnapshot, r *Result) {
	if strings.TrimSpace(s.DealID) == "" {
		r.Add(model.FieldDealID, MsgDealIDRequired)
	}
}

// checkPrincipal treats zero the same as a missing amount.
func checkPrincipal(s model.FormSnapshot, r *Result) {
	amount := numeric.ParseAmount(s.PrincipalAmount)
	if !numeric.Valid(amount) || amount == 0 {
		r.Add(model.FieldPrincipalAmount, MsgPrincipalRequired)
	}
}

func checkDealCurrency(s model.FormSnapshot, r *Result) {
	if strings.TrimSpace(s.DealCurrency) == "" {
		r.Add(model.FieldDealCurrency, MsgDealCurrencyRequired)
	}
}

func checkDealFX(s model.FormSnapshot, r *Result) {
	if !foreignCurrency(s.DealCurrency, s.FunctionalCurrency) {
		r.Mark(model.FieldDealFXRate, true)
		return
	}
	if fxMissing(s.DealFXRate) {
		r.Fail(model.FieldDealFXRate, MsgDealFXRequired)
		return
	}
	r.Mark(model.FieldDealFXRate, true)
}

type dateField struct {
	field model.FieldRef
	label string
	value string
}

// checkDates validates the fixed date fields plus the first entry of the
// repeatable interest date collection only.
func checkDates(s model.FormSnapshot, r *Result) {
	fields := []dateField{
		{field: model.FieldStartDate, label: "Start Date", value: s.StartDate},
		{field: model.FieldEndDate, label: "End Date", value: s.EndDate},
		{field: model.FieldFirstInterestDate, label: "First Interest Date", value: s.FirstInterestDate},
	}
	if len(s.InterestDates) > 0 {
		fields = append(fields, dateField{
			field: model.RowField(model.FieldInterestDate, 0),
			label: "Interest Date",
			value: s.InterestDates[0],
		})
	}

	for _, f := range fields {
		if !dateShape.MatchString(strings.TrimSpace(f.value)) {
			r.Fail(f.field, DateFormatMessage(f.label))
			continue
		}
		r.Mark(f.field, true)
	}
}

// checkInterestRates allows empty rates; anything else must parse once a
// comma decimal separator is rewritten to a dot.
func checkInterestRates(s model.FormSnapshot, r *Result) {
	for i, row := range s.InterestRateRows {
		field := model.RowField(model.FieldInterestRowRate, i)
		value := strings.TrimSpace(strings.Replace(row.Rate, ",", ".", 1))
		if value != "" && !numeric.Valid(numeric.ParseFloat(value)) {
			r.Fail(field, MsgInterestRateNumeric)
			continue
		}
		r.Mark(field, true)
	}
}

func checkSetupCostFX(s model.FormSnapshot, r *Result) {
	for i, row := range s.SetupCostRows {
		field := model.RowField(model.FieldSetupCostFX, i)
		if foreignCurrency(row.Currency, s.FunctionalCurrency) && fxMissing(row.FXRate) {
			r.Fail(field, MsgSetupCostFXRequired)
			continue
		}
		r.Mark(field, true)
	}
}

// foreignCurrency reports whether both codes are present and differ
// case-insensitively.
func foreignCurrency(code, functional string) bool {
	code = strings.TrimSpace(code)
	functional = strings.TrimSpace(functional)
	if code == "" || functional == "" {
		return false
	}
	return !strings.EqualFold(code, functional)
}

// fxMissing reports a rate that is blank or parses to exactly 1, the value
// the calculator would have defaulted to.
func fxMissing(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || numeric.ParseFloat(trimmed) == 1
}
