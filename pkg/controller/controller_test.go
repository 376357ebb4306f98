package controller

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/rows"
	"github.com/goliatone/go-dealform/pkg/validation"
	"github.com/goliatone/go-dealform/pkg/visibility"
)

type stubSurface struct {
	totals   []string
	markers  map[model.FieldRef]bool
	sections map[string]bool
	alerts   []string
}

func newStubSurface() *stubSurface {
	return &stubSurface{
		markers:  make(map[model.FieldRef]bool),
		sections: make(map[string]bool),
	}
}

func (s *stubSurface) SetTotal(value string) { s.totals = append(s.totals, value) }

func (s *stubSurface) SetValid(field model.FieldRef, valid bool) { s.markers[field] = valid }

func (s *stubSurface) SetSectionVisible(section string, visible bool) {
	s.sections[section] = visible
}

func (s *stubSurface) Alert(message string) { s.alerts = append(s.alerts, message) }

func (s *stubSurface) lastTotal() string {
	if len(s.totals) == 0 {
		return "<unset>"
	}
	return s.totals[len(s.totals)-1]
}

func validSnapshot() model.FormSnapshot {
	return model.FormSnapshot{
		FunctionalCurrency: "EUR",
		DealID:             "DEAL-42",
		PrincipalAmount:    "250,000",
		DealCurrency:       "EUR",
		StartDate:          "2024-01-01",
		EndDate:            "2026-01-01",
		FirstInterestDate:  "2024-06-30",
		InterestDates:      []string{"2024-12-31"},
		InterestType:       model.InterestTypeFixed,
		Structure:          model.StructureBullet,
		InterestFrequency:  model.FrequencySemiAnnual,
		DayCount:           model.DayCountActualActual,
	}
}

func TestLoad_RecalculatesMarksAndToggles(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	snapshot := validSnapshot()
	snapshot.InterestType = model.InterestTypeFloating
	snapshot.SetupCostRows = []model.SetupCostRow{
		{Amount: "1,000", Currency: "USD", FXRate: "2"},
		{Amount: "500", Currency: "GBP", FXRate: ""},
	}

	findings, err := ctrl.Load(snapshot)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if diff := cmp.Diff([]string{validation.MsgSetupCostFXRequired}, findings.Messages()); diff != "" {
		t.Fatalf("load findings mismatch (-want +got):\n%s", diff)
	}
	if surface.lastTotal() != "1000" {
		t.Fatalf("expected total 1000, got %q", surface.lastTotal())
	}
	want := map[model.FieldRef]bool{
		model.RowField(model.FieldSetupCostFX, 0):     true,
		model.RowField(model.FieldSetupCostFX, 1):     false,
		model.RowField(model.FieldSetupCostAmount, 0): true,
		model.RowField(model.FieldSetupCostAmount, 1): true,
	}
	if diff := cmp.Diff(want, surface.markers); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}
	if !surface.sections[model.SectionFloatingInterest] {
		t.Fatalf("expected floating section visible")
	}
	if len(surface.alerts) != 0 {
		t.Fatalf("load must not alert, got %v", surface.alerts)
	}
}

func TestLoad_LeavesBlankAmountsUnmarked(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	snapshot := validSnapshot()
	snapshot.SetupCostRows = []model.SetupCostRow{
		{Amount: ""},
		{Amount: "abc"},
		{Amount: " ", FXRate: "2"},
	}
	if _, err := ctrl.Load(snapshot); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := map[model.FieldRef]bool{
		model.RowField(model.FieldSetupCostAmount, 1): false,
	}
	if diff := cmp.Diff(want, surface.markers); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}
	if surface.lastTotal() != "" {
		t.Fatalf("expected blank total, got %q", surface.lastTotal())
	}

	ctrl.Recalculate()
	if valid, ok := surface.markers[model.RowField(model.FieldSetupCostAmount, 0)]; !ok || valid {
		t.Fatalf("an explicit recalculation flags blank amounts")
	}
}

func TestAddSetupCostRow_RecalculatesToEmpty(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	var events []rows.Event
	ctrl.Store().Subscribe(func(evt rows.Event) { events = append(events, evt) })

	idx := ctrl.AddSetupCostRow()
	if idx != 0 {
		t.Fatalf("expected first row index 0, got %d", idx)
	}
	if surface.lastTotal() != "" {
		t.Fatalf("empty row must leave the total blank, got %q", surface.lastTotal())
	}
	if valid, ok := surface.markers[model.RowField(model.FieldSetupCostAmount, 0)]; !ok || valid {
		t.Fatalf("empty amount should be flagged")
	}
	if len(events) != 1 || events[0].Kind != rows.EventAppended || events[0].Collection != rows.SetupCosts {
		t.Fatalf("unexpected events: %+v", events)
	}

	if err := ctrl.SetupCostInput(idx, model.SetupCostRow{Amount: "abc", FXRate: "3"}); err != nil {
		t.Fatalf("SetupCostInput returned error: %v", err)
	}
	if surface.lastTotal() != "" {
		t.Fatalf("unparsable amount must not contribute, got %q", surface.lastTotal())
	}
	if _, ok := surface.markers[model.RowField(model.FieldSetupCostFX, 0)]; ok {
		t.Fatalf("fx field must not be touched by recalculation")
	}

	if err := ctrl.SetupCostInput(idx, model.SetupCostRow{Amount: "300", FXRate: "1,5"}); err != nil {
		t.Fatalf("SetupCostInput returned error: %v", err)
	}
	if surface.lastTotal() != "200" {
		t.Fatalf("expected 200, got %q", surface.lastTotal())
	}
	if !ctrl.Total().Valid[0] {
		t.Fatalf("expected row valid after edit")
	}
}

func TestSetupCostInput_OutOfRange(t *testing.T) {
	ctrl := New(nil)
	if err := ctrl.SetupCostInput(3, model.SetupCostRow{}); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := ctrl.InterestRateInput(0, model.InterestRateRow{}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestInterestTypeChanged_TogglesSection(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	for _, tc := range []struct {
		interestType model.InterestType
		visible      bool
	}{
		{model.InterestTypeFloating, true},
		{model.InterestTypeFixed, false},
		{"", false},
	} {
		if err := ctrl.InterestTypeChanged(tc.interestType); err != nil {
			t.Fatalf("InterestTypeChanged returned error: %v", err)
		}
		if surface.sections[model.SectionFloatingInterest] != tc.visible {
			t.Fatalf("interest type %q: expected visible=%v", tc.interestType, tc.visible)
		}
	}
	if ctrl.InterestType() != "" {
		t.Fatalf("expected last interest type recorded")
	}
}

func TestInterestTypeChanged_PropagatesEvaluatorError(t *testing.T) {
	boom := errors.New("boom")
	ctrl := New(newStubSurface(), WithEvaluator(visibility.EvaluatorFunc(
		func(string, string, visibility.Context) (bool, error) { return false, boom },
	)))
	if err := ctrl.InterestTypeChanged(model.InterestTypeFloating); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped evaluator error, got %v", err)
	}
}

func TestSubmit_BlockedAlertsOnceWithAllMessages(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	snapshot := validSnapshot()
	snapshot.DealCurrency = "USD"
	snapshot.DealFXRate = ""
	snapshot.StartDate = "01/01/2024"

	ctrl.AddInterestRateRow()
	if err := ctrl.InterestRateInput(0, model.InterestRateRow{Date: "2024-12-31", Rate: "four"}); err != nil {
		t.Fatalf("InterestRateInput returned error: %v", err)
	}

	outcome := ctrl.Submit(snapshot)
	if !outcome.Blocked {
		t.Fatalf("expected submission blocked")
	}
	want := strings.Join([]string{
		validation.MsgDealFXRequired,
		validation.DateFormatMessage("Start Date"),
		validation.MsgInterestRateNumeric,
	}, "\n")
	if diff := cmp.Diff([]string{want}, surface.alerts); diff != "" {
		t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
	}
	if surface.markers[model.FieldDealFXRate] || surface.markers[model.FieldStartDate] {
		t.Fatalf("expected fx and start date flagged, got %v", surface.markers)
	}
	if surface.markers[model.RowField(model.FieldInterestRowRate, 0)] {
		t.Fatalf("expected interest rate row flagged")
	}
}

func TestSubmit_ResubmitStartsFresh(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	broken := validSnapshot()
	broken.DealID = ""
	if outcome := ctrl.Submit(broken); !outcome.Blocked {
		t.Fatalf("expected first attempt blocked")
	}

	outcome := ctrl.Submit(validSnapshot())
	if outcome.Blocked || !outcome.Result.Valid() {
		t.Fatalf("expected second attempt accepted, got %v", outcome.Result.Messages())
	}
	if len(surface.alerts) != 1 {
		t.Fatalf("expected exactly one alert overall, got %d", len(surface.alerts))
	}
	if !surface.markers[model.FieldDealFXRate] {
		t.Fatalf("matching currencies should clear the fx marker")
	}
}

func TestSubmit_KeepsInterestDatesWithoutRows(t *testing.T) {
	surface := newStubSurface()
	ctrl := New(surface)

	snapshot := validSnapshot()
	snapshot.InterestDates = []string{"not-a-date"}

	outcome := ctrl.Submit(snapshot)
	if !outcome.Blocked {
		t.Fatalf("expected submission blocked")
	}
	want := []string{validation.DateFormatMessage("Interest Date")}
	if diff := cmp.Diff(want, outcome.Result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_RowDatesLeadInterestDates(t *testing.T) {
	ctrl := New(nil)
	ctrl.AddInterestRateRow()
	if err := ctrl.InterestRateInput(0, model.InterestRateRow{Date: "2025-01-01", Rate: "4"}); err != nil {
		t.Fatalf("InterestRateInput returned error: %v", err)
	}

	base := validSnapshot()
	base.InterestDates = []string{"stale", "2026-01-01"}
	got := ctrl.Snapshot(base).InterestDates
	if diff := cmp.Diff([]string{"2025-01-01", "2026-01-01"}, got); diff != "" {
		t.Fatalf("interest dates mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_TermsRulesRunByDefault(t *testing.T) {
	ctrl := New(newStubSurface())
	snapshot := validSnapshot()
	snapshot.Discount = "1"
	snapshot.Premium = "1"
	snapshot.DayCount = "30e/360"

	outcome := ctrl.Submit(snapshot)
	want := []string{validation.MsgDiscountAndPremium, validation.MsgDayCountInvalid}
	if diff := cmp.Diff(want, outcome.Result.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_UsesStoreRows(t *testing.T) {
	ctrl := New(nil)
	snapshot := validSnapshot()
	snapshot.InterestRateRows = []model.InterestRateRow{{Rate: "bad"}}

	if outcome := ctrl.Submit(snapshot); outcome.Blocked {
		t.Fatalf("rows outside the store must be ignored, got %v", outcome.Result.Messages())
	}
}
