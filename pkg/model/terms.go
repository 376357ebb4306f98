package model

import "strings"

// Structure is the repayment profile of the principal.
type Structure string

const (
	StructureBullet     Structure = "bullet"
	StructureAmortizing Structure = "amortizing"
)

// Structures lists the repayment profiles in display order.
func Structures() []string {
	return []string{string(StructureBullet), string(StructureAmortizing)}
}

// ParseStructure normalises a raw select value.
func ParseStructure(raw string) (Structure, bool) {
	switch Structure(normalizeOption(raw)) {
	case StructureBullet:
		return StructureBullet, true
	case StructureAmortizing:
		return StructureAmortizing, true
	default:
		return "", false
	}
}

// InterestFrequency is the spacing of the scheduled interest payments.
type InterestFrequency string

const (
	FrequencyMonthly    InterestFrequency = "monthly"
	FrequencyQuarterly  InterestFrequency = "quarterly"
	FrequencySemiAnnual InterestFrequency = "semi_annual"
	FrequencyAnnual     InterestFrequency = "annual"
)

var frequencyMonths = map[InterestFrequency]int{
	FrequencyMonthly:    1,
	FrequencyQuarterly:  3,
	FrequencySemiAnnual: 6,
	FrequencyAnnual:     12,
}

// InterestFrequencies lists the payment frequencies in display order.
func InterestFrequencies() []string {
	return []string{
		string(FrequencyMonthly),
		string(FrequencyQuarterly),
		string(FrequencySemiAnnual),
		string(FrequencyAnnual),
	}
}

// ParseInterestFrequency normalises a raw select value.
func ParseInterestFrequency(raw string) (InterestFrequency, bool) {
	freq := InterestFrequency(normalizeOption(raw))
	if _, ok := frequencyMonths[freq]; !ok {
		return "", false
	}
	return freq, true
}

// Months returns the number of months between payments, 0 when unknown.
func (f InterestFrequency) Months() int {
	return frequencyMonths[f]
}

// DayCount is the convention that turns a period into a year fraction.
type DayCount string

const (
	DayCountActualActual DayCount = "actual_actual"
	DayCountActual365    DayCount = "actual_365"
	DayCountActual360    DayCount = "actual_360"
	DayCountThirty360    DayCount = "thirty_360"
)

// DayCounts lists the conventions in display order.
func DayCounts() []string {
	return []string{
		string(DayCountActualActual),
		string(DayCountActual365),
		string(DayCountActual360),
		string(DayCountThirty360),
	}
}

// ParseDayCount normalises a raw select value.
func ParseDayCount(raw string) (DayCount, bool) {
	switch dc := DayCount(normalizeOption(raw)); dc {
	case DayCountActualActual, DayCountActual365, DayCountActual360, DayCountThirty360:
		return dc, true
	default:
		return "", false
	}
}

// Options returns the allowed values of an enumerated scalar field, nil for
// free-text fields.
func Options(field FieldRef) []string {
	switch field {
	case FieldInterestType:
		return []string{string(InterestTypeFixed), string(InterestTypeFloating)}
	case FieldStructure:
		return Structures()
	case FieldInterestFrequency:
		return InterestFrequencies()
	case FieldDayCount:
		return DayCounts()
	default:
		return nil
	}
}

func normalizeOption(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
