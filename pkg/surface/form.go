package surface

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-dealform/pkg/model"
)

// Input names of the repeating groups and the action selector.
const (
	InputAction            = "action"
	InputSetupCostAmount   = string(model.FieldSetupCostAmount)
	InputSetupCostCurrency = string(model.FieldSetupCostCurrency)
	InputSetupCostFX       = string(model.FieldSetupCostFX)
	InputInterestDate      = "interest_date[]"
	InputInterestRate      = "interest_rate[]"
)

// Action is the button that posted the form.
type Action string

const (
	ActionAddSetupCost    Action = "add_setup_cost"
	ActionAddInterestRate Action = "add_interest_rate"
	ActionRecalculate     Action = "recalculate"
	ActionSubmit          Action = "submit"
	ActionSimpleEIR       Action = "simple_eir_calculation"
	ActionComplexEIR      Action = "complex_eir_calculation"
	ActionComparison      Action = "comparison"
)

// ParseAction maps the posted action, defaulting to submit.
func ParseAction(raw string) Action {
	switch action := Action(strings.TrimSpace(raw)); action {
	case ActionAddSetupCost, ActionAddInterestRate, ActionRecalculate,
		ActionSimpleEIR, ActionComplexEIR, ActionComparison:
		return action
	default:
		return ActionSubmit
	}
}

// DecodeForm reads a posted deal form. Values are kept exactly as typed;
// repeating inputs are zipped into rows by position.
func DecodeForm(values url.Values) model.FormSnapshot {
	snapshot := model.FormSnapshot{
		FunctionalCurrency: values.Get(string(model.FieldFunctionalCurrency)),
		DealID:             values.Get(string(model.FieldDealID)),
		PrincipalAmount:    values.Get(string(model.FieldPrincipalAmount)),
		DealCurrency:       values.Get(string(model.FieldDealCurrency)),
		DealFXRate:         values.Get(string(model.FieldDealFXRate)),
		StartDate:          values.Get(string(model.FieldStartDate)),
		EndDate:            values.Get(string(model.FieldEndDate)),
		FirstInterestDate:  values.Get(string(model.FieldFirstInterestDate)),
		InterestRate:       values.Get(string(model.FieldInterestRate)),
		InterestType:       model.InterestType(values.Get(string(model.FieldInterestType))),
		Discount:           values.Get(string(model.FieldDiscount)),
		Premium:            values.Get(string(model.FieldPremium)),
		Structure:          model.Structure(values.Get(string(model.FieldStructure))),
		InterestFrequency:  model.InterestFrequency(values.Get(string(model.FieldInterestFrequency))),
		DayCount:           model.DayCount(values.Get(string(model.FieldDayCount))),
	}

	amounts := values[InputSetupCostAmount]
	currencies := values[InputSetupCostCurrency]
	rates := values[InputSetupCostFX]
	for i := range max(len(amounts), len(currencies), len(rates)) {
		snapshot.SetupCostRows = append(snapshot.SetupCostRows, model.SetupCostRow{
			Amount:   at(amounts, i),
			Currency: at(currencies, i),
			FXRate:   at(rates, i),
		})
	}

	dates := values[InputInterestDate]
	interest := values[InputInterestRate]
	if len(dates) > 0 {
		snapshot.InterestDates = append([]string(nil), dates...)
	}
	for i := range max(len(dates), len(interest)) {
		snapshot.InterestRateRows = append(snapshot.InterestRateRows, model.InterestRateRow{
			Date: at(dates, i),
			Rate: at(interest, i),
		})
	}
	return snapshot
}

// EncodeForm is the inverse of DecodeForm, used to re-post a snapshot.
func EncodeForm(snapshot model.FormSnapshot, action Action) url.Values {
	values := url.Values{}
	set := func(field model.FieldRef, value string) {
		values.Set(string(field), value)
	}
	set(model.FieldFunctionalCurrency, snapshot.FunctionalCurrency)
	set(model.FieldDealID, snapshot.DealID)
	set(model.FieldPrincipalAmount, snapshot.PrincipalAmount)
	set(model.FieldDealCurrency, snapshot.DealCurrency)
	set(model.FieldDealFXRate, snapshot.DealFXRate)
	set(model.FieldStartDate, snapshot.StartDate)
	set(model.FieldEndDate, snapshot.EndDate)
	set(model.FieldFirstInterestDate, snapshot.FirstInterestDate)
	set(model.FieldInterestRate, snapshot.InterestRate)
	set(model.FieldInterestType, string(snapshot.InterestType))
	set(model.FieldDiscount, snapshot.Discount)
	set(model.FieldPremium, snapshot.Premium)
	set(model.FieldStructure, string(snapshot.Structure))
	set(model.FieldInterestFrequency, string(snapshot.InterestFrequency))
	set(model.FieldDayCount, string(snapshot.DayCount))

	for _, row := range snapshot.SetupCostRows {
		values.Add(InputSetupCostAmount, row.Amount)
		values.Add(InputSetupCostCurrency, row.Currency)
		values.Add(InputSetupCostFX, row.FXRate)
	}
	for _, row := range snapshot.InterestRateRows {
		values.Add(InputInterestDate, row.Date)
		values.Add(InputInterestRate, row.Rate)
	}
	if action != "" {
		values.Set(InputAction, string(action))
	}
	return values
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
