package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/validation"
)

func completeSnapshot() model.FormSnapshot {
	return model.FormSnapshot{
		FunctionalCurrency: "EUR",
		DealID:             "DEAL-001",
		PrincipalAmount:    "1,000,000",
		DealCurrency:       "eur",
		DealFXRate:         "",
		StartDate:          "2024-01-15",
		EndDate:            "2029-01-15",
		FirstInterestDate:  "2024-07-15",
		InterestDates:      []string{"2025-01-15"},
		InterestType:       model.InterestTypeFloating,
		InterestRateRows: []model.InterestRateRow{
			{Date: "2025-01-15", Rate: "4,25"},
			{Date: "", Rate: ""},
		},
	}
}

func TestValidate_CompleteSnapshotPasses(t *testing.T) {
	result := validation.New().Validate(completeSnapshot())
	if !result.Valid() {
		t.Fatalf("expected no issues, got %v", result.Messages())
	}
	if result.Joined() != "" {
		t.Fatalf("expected empty joined message, got %q", result.Joined())
	}
}

func TestValidate_EmptySnapshotReportsEveryRuleInOrder(t *testing.T) {
	result := validation.New().Validate(model.FormSnapshot{})

	want := []string{
		validation.MsgFunctionalCurrencyRequired,
		validation.MsgDealIDRequired,
		validation.MsgPrincipalRequired,
		validation.MsgDealCurrencyRequired,
		validation.DateFormatMessage("Start Date"),
		validation.DateFormatMessage("End Date"),
		validation.DateFormatMessage("First Interest Date"),
	}
	if diff := cmp.Diff(want, result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if !result.Invalid(model.FieldStartDate) {
		t.Fatalf("expected start date flagged")
	}
	if result.Invalid(model.FieldDealID) {
		t.Fatalf("required-field rules should not set markers")
	}
}

func TestValidate_PrincipalZeroIsMissing(t *testing.T) {
	snapshot := completeSnapshot()
	for _, raw := range []string{"0", "0.00", "abc", ""} {
		snapshot.PrincipalAmount = raw
		result := validation.New().Validate(snapshot)
		if diff := cmp.Diff([]string{validation.MsgPrincipalRequired}, result.Messages()); diff != "" {
			t.Fatalf("principal %q mismatch (-want +got):\n%s", raw, diff)
		}
	}

	snapshot.PrincipalAmount = "-5"
	if result := validation.New().Validate(snapshot); !result.Valid() {
		t.Fatalf("negative principal is present, got %v", result.Messages())
	}
}

func TestValidate_ForeignCurrencyRequiresFX(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.DealCurrency = "USD"
	snapshot.DealFXRate = ""

	result := validation.New().Validate(snapshot)
	want := []validation.Issue{{Field: model.FieldDealFXRate, Message: validation.MsgDealFXRequired}}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if !result.Invalid(model.FieldDealFXRate) {
		t.Fatalf("expected fx field flagged")
	}

	for _, fx := range []string{"1", "1.0", " 1 ", "1,5"} {
		snapshot.DealFXRate = fx
		if result := validation.New().Validate(snapshot); !result.Invalid(model.FieldDealFXRate) {
			t.Fatalf("fx %q should be treated as defaulted", fx)
		}
	}

	snapshot.DealFXRate = "1.08"
	result = validation.New().Validate(snapshot)
	if !result.Valid() {
		t.Fatalf("expected valid fx, got %v", result.Messages())
	}
	if valid, ok := result.Markers[model.FieldDealFXRate]; !ok || !valid {
		t.Fatalf("expected fx marker cleared")
	}
}

func TestValidate_MatchingCurrencyClearsFXRegardlessOfContent(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.DealCurrency = "EUR"
	snapshot.FunctionalCurrency = "eur"
	snapshot.DealFXRate = "garbage"

	result := validation.New().Validate(snapshot)
	if !result.Valid() {
		t.Fatalf("expected no issues, got %v", result.Messages())
	}
	if valid, ok := result.Markers[model.FieldDealFXRate]; !ok || !valid {
		t.Fatalf("expected fx marker cleared for matching currencies")
	}
}

func TestValidate_DateShapeOnly(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.StartDate = "2024-13-45"
	snapshot.EndDate = " 2030-01-01 "
	if result := validation.New().Validate(snapshot); !result.Valid() {
		t.Fatalf("shape-only check should accept calendar-invalid dates, got %v", result.Messages())
	}

	snapshot.EndDate = "15/01/2030"
	snapshot.FirstInterestDate = "2024-7-15"
	result := validation.New().Validate(snapshot)
	want := []string{
		validation.DateFormatMessage("End Date"),
		validation.DateFormatMessage("First Interest Date"),
	}
	if diff := cmp.Diff(want, result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_OnlyFirstInterestDateChecked(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.InterestDates = []string{"2025-01-15", "not-a-date"}
	if result := validation.New().Validate(snapshot); !result.Valid() {
		t.Fatalf("later interest dates are not format checked, got %v", result.Messages())
	}

	snapshot.InterestDates = []string{"soon"}
	result := validation.New().Validate(snapshot)
	if diff := cmp.Diff([]string{validation.DateFormatMessage("Interest Date")}, result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if !result.Invalid(model.RowField(model.FieldInterestDate, 0)) {
		t.Fatalf("expected first interest date flagged")
	}
}

func TestValidate_InterestRatesNumericOrEmpty(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.InterestRateRows = []model.InterestRateRow{
		{Rate: "abc"},
		{Rate: ""},
		{Rate: "3,5"},
		{Rate: "x1"},
	}

	result := validation.New().Validate(snapshot)
	want := []validation.Issue{
		{Field: model.RowField(model.FieldInterestRowRate, 0), Message: validation.MsgInterestRateNumeric},
		{Field: model.RowField(model.FieldInterestRowRate, 3), Message: validation.MsgInterestRateNumeric},
	}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if result.Invalid(model.RowField(model.FieldInterestRowRate, 1)) {
		t.Fatalf("empty rate must not be flagged")
	}
}

func TestValidate_DuplicatesAreKept(t *testing.T) {
	snapshot := completeSnapshot()
	snapshot.InterestRateRows = []model.InterestRateRow{{Rate: "a"}, {Rate: "b"}}

	result := validation.New().Validate(snapshot)
	want := []string{validation.MsgInterestRateNumeric, validation.MsgInterestRateNumeric}
	if diff := cmp.Diff(want, result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_ResultsAreIndependent(t *testing.T) {
	engine := validation.New()
	first := engine.Validate(model.FormSnapshot{})
	second := engine.Validate(completeSnapshot())
	if first.Valid() || !second.Valid() {
		t.Fatalf("results leaked between calls: first=%d second=%d", len(first.Issues), len(second.Issues))
	}
}

func TestValidateAtLoad_SetupCostFX(t *testing.T) {
	snapshot := model.FormSnapshot{
		FunctionalCurrency: "EUR",
		SetupCostRows: []model.SetupCostRow{
			{Amount: "100", Currency: "USD", FXRate: ""},
			{Amount: "100", Currency: "usd", FXRate: "1.1"},
			{Amount: "100", Currency: "eur", FXRate: ""},
			{Amount: "100", Currency: "GBP", FXRate: "1"},
			{Amount: "100", Currency: "", FXRate: ""},
		},
	}

	result := validation.New().ValidateAtLoad(snapshot)
	want := []validation.Issue{
		{Field: model.RowField(model.FieldSetupCostFX, 0), Message: validation.MsgSetupCostFXRequired},
		{Field: model.RowField(model.FieldSetupCostFX, 3), Message: validation.MsgSetupCostFXRequired},
	}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	wantMarkers := map[model.FieldRef]bool{
		model.RowField(model.FieldSetupCostFX, 0): false,
		model.RowField(model.FieldSetupCostFX, 1): true,
		model.RowField(model.FieldSetupCostFX, 2): true,
		model.RowField(model.FieldSetupCostFX, 3): false,
		model.RowField(model.FieldSetupCostFX, 4): true,
	}
	if diff := cmp.Diff(wantMarkers, result.Markers); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}

	snapshot.FunctionalCurrency = ""
	if result := validation.New().ValidateAtLoad(snapshot); !result.Valid() {
		t.Fatalf("without a functional currency nothing is foreign, got %v", result.Messages())
	}
}

func TestWithRules_AppendsAfterBuiltIns(t *testing.T) {
	extra := validation.Rule{
		Name: "always",
		Check: func(_ model.FormSnapshot, r *validation.Result) {
			r.Add("", "extra")
		},
	}
	engine := validation.New(validation.WithRules(extra))

	result := engine.Validate(completeSnapshot())
	if diff := cmp.Diff([]string{"extra"}, result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	snapshot := completeSnapshot()
	snapshot.DealID = ""
	result = engine.Validate(snapshot)
	want := []string{validation.MsgDealIDRequired, "extra"}
	if diff := cmp.Diff(want, result.Messages()); diff != "" {
		t.Fatalf("expected extra rule last (-want +got):\n%s", diff)
	}
}
