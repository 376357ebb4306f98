package validation

import (
	"strings"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/numeric"
)

const (
	MsgDiscountInvalid          = "Invalid input for discount."
	MsgDiscountPercent          = "Discount must be provided in %."
	MsgPremiumInvalid           = "Invalid input for premium."
	MsgPremiumPercent           = "Premium must be provided in %."
	MsgDiscountAndPremium       = "Instrument cannot have discount and premium at the same time."
	MsgStructureInvalid         = "Invalid structure."
	MsgInterestFrequencyInvalid = "Invalid interest frequency."
	MsgDayCountInvalid          = "Invalid daycount."
)

// TermsRules returns the rules for the instrument terms that feed the
// effective interest schedule. They run after DefaultRules.
func TermsRules() []Rule {
	return []Rule{
		{Name: "discount_percentage", Check: checkDiscount},
		{Name: "premium_percentage", Check: checkPremium},
		{Name: "discount_or_premium", Check: checkDiscountAndPremium},
		{Name: "structure_known", Check: checkStructure},
		{Name: "interest_frequency_known", Check: checkInterestFrequency},
		{Name: "daycount_known", Check: checkDayCount},
	}
}

func checkDiscount(s model.FormSnapshot, r *Result) {
	checkPercentage(r, model.FieldDiscount, s.Discount, MsgDiscountInvalid, MsgDiscountPercent)
}

func checkPremium(s model.FormSnapshot, r *Result) {
	checkPercentage(r, model.FieldPremium, s.Premium, MsgPremiumInvalid, MsgPremiumPercent)
}

// checkPercentage accepts a blank value as zero. Anything else must parse in
// full and stay below 100.
func checkPercentage(r *Result, field model.FieldRef, raw, invalid, percent string) {
	if strings.TrimSpace(raw) == "" {
		r.Mark(field, true)
		return
	}
	value := numeric.ParseStrict(raw)
	switch {
	case !numeric.Valid(value):
		r.Fail(field, invalid)
	case numeric.Round(value, 2) >= 100:
		r.Fail(field, percent)
	default:
		r.Mark(field, true)
	}
}

func checkDiscountAndPremium(s model.FormSnapshot, r *Result) {
	if nonZeroPercentage(s.Discount) && nonZeroPercentage(s.Premium) {
		r.Add("", MsgDiscountAndPremium)
	}
}

func nonZeroPercentage(raw string) bool {
	value := numeric.ParseStrict(raw)
	return numeric.Valid(value) && numeric.Round(value, 2) != 0
}

func checkStructure(s model.FormSnapshot, r *Result) {
	_, ok := model.ParseStructure(string(s.Structure))
	markOption(r, model.FieldStructure, ok, MsgStructureInvalid)
}

func checkInterestFrequency(s model.FormSnapshot, r *Result) {
	_, ok := model.ParseInterestFrequency(string(s.InterestFrequency))
	markOption(r, model.FieldInterestFrequency, ok, MsgInterestFrequencyInvalid)
}

func checkDayCount(s model.FormSnapshot, r *Result) {
	_, ok := model.ParseDayCount(string(s.DayCount))
	markOption(r, model.FieldDayCount, ok, MsgDayCountInvalid)
}

func markOption(r *Result, field model.FieldRef, ok bool, message string) {
	if !ok {
		r.Fail(field, message)
		return
	}
	r.Mark(field, true)
}
