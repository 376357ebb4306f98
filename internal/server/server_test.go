package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/surface"
	"github.com/goliatone/go-dealform/pkg/testsupport"
	"github.com/goliatone/go-dealform/pkg/validation"
)

const (
	acceptedFixture = "../../pkg/testsupport/testdata/accepted.json"
	blockedFixture  = "../../pkg/testsupport/testdata/blocked.yaml"
)

func TestCalculation_GetRendersBlankForm(t *testing.T) {
	h := newHandler(t, WithSnapshot(func() model.FormSnapshot {
		return model.FormSnapshot{
			FunctionalCurrency: "EUR",
			SetupCostRows:      make([]model.SetupCostRow, 2),
		}
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, PathCalculation, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content-type, got %q", ct)
	}
	body := rec.Body.String()
	if got := strings.Count(body, `class="row setup-cost-row"`); got != 2 {
		t.Fatalf("expected 2 setup cost rows, got %d", got)
	}
	for _, want := range []string{
		`<form method="post" action="/calculation" data-total-endpoint="/api/setup-costs/total">`,
		`id="functional_ccy" name="functional_ccy" value="EUR"`,
		`<section id="floating-interest-section" style="display: none">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestCalculation_HeadWritesNoBody(t *testing.T) {
	h := newHandler(t)
	rec := serve(h, httptest.NewRequest(http.MethodHead, PathCalculation, nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestCalculation_BlockedSubmitReturns422(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, blockedFixture)

	rec := serve(h, postForm(surface.EncodeForm(snapshot, surface.ActionSubmit), "text/html"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`data-blocked="true"`,
		"<p>" + validation.MsgDealIDRequired + "</p>",
		`value="abc" class="form-control is-invalid"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestCalculation_AcceptedSubmitRendersSummary(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, acceptedFixture)

	rec := serve(h, postForm(surface.EncodeForm(snapshot, ""), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<h1>Deal DEAL-001</h1>") {
		t.Fatalf("expected deal summary, got %s", rec.Body.String())
	}
}

func TestCalculation_EIRActions(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, acceptedFixture)

	cases := map[surface.Action]string{
		surface.ActionSimpleEIR:  "<h1>Simple EIR schedule for DEAL-001</h1>",
		surface.ActionComplexEIR: "<h1>Complex EIR schedule for DEAL-001</h1>",
		surface.ActionComparison: "<h1>EIR comparison for DEAL-001</h1>",
	}
	for action, want := range cases {
		rec := serve(h, postForm(surface.EncodeForm(snapshot, action), ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d: %s", action, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: body missing %q", action, want)
		}
	}
}

func TestCalculation_OffScheduleDateAlerts(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, acceptedFixture)
	snapshot.InterestType = model.InterestTypeFloating
	snapshot.InterestRateRows = []model.InterestRateRow{{Date: "2025-03-01", Rate: "5"}}

	rec := serve(h, postForm(surface.EncodeForm(snapshot, surface.ActionComparison), ""))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if want := "<p>" + validation.ScheduleDateMessage("2025-03-01") + "</p>"; !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("body missing %q", want)
	}
}

func TestDownload(t *testing.T) {
	h := newHandler(t)
	form := surface.EncodeForm(testsupport.LoadSnapshot(t, acceptedFixture), surface.ActionComplexEIR)

	rec := serve(h, postDownload("report", form))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=DEAL-001_amortization_schedule.csv" {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "Deal id,Dates,Currency,") {
		t.Fatalf("unexpected csv header: %q", rec.Body.String())
	}
	if lines := strings.Count(rec.Body.String(), "DEAL-001,"); lines != 11 {
		t.Fatalf("expected 11 schedule lines, got %d", lines)
	}

	form.Set("format", "xlsx")
	rec = serve(h, postDownload("summary", form))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "DEAL-001_summary_schedule.xlsx") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected a zip container")
	}
}

func TestDownload_Rejects(t *testing.T) {
	h := newHandler(t)
	form := surface.EncodeForm(testsupport.LoadSnapshot(t, acceptedFixture), surface.ActionSimpleEIR)

	if rec := serve(h, postDownload("ledger", form)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown table, got %d", rec.Code)
	}
	if rec := serve(h, httptest.NewRequest(http.MethodGet, PathDownload+"report", nil)); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	form.Set("format", "pdf")
	if rec := serve(h, postDownload("report", form)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}

	blocked := surface.EncodeForm(testsupport.LoadSnapshot(t, blockedFixture), surface.ActionSimpleEIR)
	rec := serve(h, postDownload("report", blocked))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `data-blocked="true"`) {
		t.Fatalf("blocked form should render the page, got %d", rec.Code)
	}
}

func TestSchedule(t *testing.T) {
	h := newHandler(t)
	body := mustJSON(t, testsupport.LoadSnapshot(t, acceptedFixture))

	rec := serve(h, postJSON(PathSchedule+"?method=comparison", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Method     string `json:"method"`
		Comparison struct {
			Periods []json.RawMessage `json:"periods"`
			Summary []json.RawMessage `json:"summary"`
		} `json:"comparison"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Method != "comparison" || len(payload.Comparison.Periods) != 10 || len(payload.Comparison.Summary) != 6 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if rec := serve(h, postJSON(PathSchedule+"?method=monthly", body)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown method, got %d", rec.Code)
	}
	blocked := mustJSON(t, testsupport.LoadSnapshot(t, blockedFixture))
	if rec := serve(h, postJSON(PathSchedule, blocked)); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blocked snapshot, got %d", rec.Code)
	}
}

func TestCalculation_RowActions(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, acceptedFixture)

	rec := serve(h, postForm(surface.EncodeForm(snapshot, surface.ActionAddSetupCost), ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.Count(rec.Body.String(), `class="row setup-cost-row"`); got != 2 {
		t.Fatalf("expected 2 setup cost rows after add, got %d", got)
	}
	if strings.Contains(rec.Body.String(), "data-blocked") {
		t.Fatalf("adding a row must not validate")
	}

	rec = serve(h, postForm(surface.EncodeForm(snapshot, surface.ActionAddInterestRate), ""))
	if got := strings.Count(rec.Body.String(), `class="row interest-rate-row"`); got != 1 {
		t.Fatalf("expected 1 interest rate row after add, got %d", got)
	}
}

func TestCalculation_JSONNegotiation(t *testing.T) {
	h := newHandler(t)
	snapshot := testsupport.LoadSnapshot(t, blockedFixture)

	rec := serve(h, postForm(surface.EncodeForm(snapshot, surface.ActionRecalculate), "application/json"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload struct {
		Total   string   `json:"total"`
		Blocked bool     `json:"blocked"`
		Invalid []string `json:"invalid"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Blocked {
		t.Fatalf("recalculate must not block")
	}
	if payload.Total != "1000" {
		t.Fatalf("expected total 1000, got %q", payload.Total)
	}
	if diff := cmp.Diff([]string{"setup_cost_fx.1"}, payload.Invalid); diff != "" {
		t.Fatalf("load-time markers mismatch (-want +got):\n%s", diff)
	}
}

func TestTotal(t *testing.T) {
	h := newHandler(t)
	body := `{"rows":[{"amount":"1,000","currency":"USD","fx_rate":"2"},{"amount":"abc","currency":"EUR","fx_rate":""}]}`

	rec := serve(h, postJSON(PathTotal, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got totalResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := totalResponse{Total: "500", Rows: []rowValidity{{Valid: true}, {Valid: false}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestTotal_EmptyRowsYieldEmptyTotal(t *testing.T) {
	h := newHandler(t)
	rec := serve(h, postJSON(PathTotal, `{"rows":[]}`))

	var got totalResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != "" || len(got.Rows) != 0 {
		t.Fatalf("expected empty total, got %+v", got)
	}
}

func TestValidate(t *testing.T) {
	h := newHandler(t)

	blocked := testsupport.LoadSnapshot(t, blockedFixture)
	rec := serve(h, postJSON(PathValidate, mustJSON(t, blocked)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got validateResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Blocked || got.Deal != nil {
		t.Fatalf("expected blocked response, got %+v", got)
	}
	if got.Messages[0] != validation.MsgDealIDRequired {
		t.Fatalf("expected rule order, got %v", got.Messages)
	}
	if diff := cmp.Diff([]string{validation.MsgInterestRateNumeric}, got.Fields["interest_rate_row.1"]); diff != "" {
		t.Fatalf("field messages mismatch (-want +got):\n%s", diff)
	}

	accepted := testsupport.LoadSnapshot(t, acceptedFixture)
	rec = serve(h, postJSON(PathValidate, mustJSON(t, accepted)))
	got = validateResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Blocked || got.Deal == nil || got.Deal.SetupCosts != 1000 {
		t.Fatalf("expected accepted deal, got %+v", got)
	}
	if len(got.Messages) != 0 {
		t.Fatalf("expected no messages, got %v", got.Messages)
	}
}

func TestAPI_BadRequests(t *testing.T) {
	h := newHandler(t)

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"malformed json", postJSON(PathTotal, `{"rows":`), http.StatusBadRequest},
		{"unknown field", postJSON(PathValidate, `{"deal":"x"}`), http.StatusBadRequest},
		{"too large", postJSON(PathTotal, `{"rows":[{"amount":"`+strings.Repeat("9", MaxFormBytes)+`"}]}`), http.StatusRequestEntityTooLarge},
		{"get on api", httptest.NewRequest(http.MethodGet, PathValidate, nil), http.StatusMethodNotAllowed},
		{"put on form", httptest.NewRequest(http.MethodPut, PathCalculation, nil), http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.req)
			if rec.Code != tc.code {
				t.Fatalf("expected status %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestOpenAPIAndHealth(t *testing.T) {
	h := newHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, PathOpenAPI, nil))
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("openapi: 3.0.3")) {
		t.Fatalf("unexpected openapi response %d: %.40s", rec.Code, rec.Body.String())
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAssets(t *testing.T) {
	h := newHandler(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, AssetURL("", "deal.css"), nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "var(--brand)") {
		t.Fatalf("unexpected asset response %d", rec.Code)
	}

	noAssets := newHandler(t, WithAssets(nil))
	rec = serve(noAssets, httptest.NewRequest(http.MethodGet, AssetURL("", "deal.css"), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without assets, got %d", rec.Code)
	}
}

func TestGuardRejects(t *testing.T) {
	h := newHandler(t, WithGuard(func(r *http.Request) error {
		return StatusError{Code: http.StatusUnauthorized}
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, PathCalculation, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	rec = serve(h, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rec.Code)
	}
}

func TestRegisterRoutes_BasePath(t *testing.T) {
	mux := http.NewServeMux()
	patterns, err := RegisterRoutes(mux, "deals/")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := []string{
		"/deals/calculation",
		"/deals/api/setup-costs/total",
		"/deals/api/validate",
		"/deals/api/schedule",
		"/deals/download/",
		"/deals/openapi.yaml",
		"/deals/healthz",
		"/deals/assets/themes/dealform/",
	}
	if diff := cmp.Diff(want, patterns); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/deals/calculation", nil))
	if !strings.Contains(rec.Body.String(), `action="/deals/calculation" data-total-endpoint="/deals/api/setup-costs/total"`) {
		t.Fatalf("form should post under the base path")
	}

	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}

func TestMountPath(t *testing.T) {
	cases := map[[2]string]string{
		{"", "/healthz"}:           "/healthz",
		{"/", "healthz"}:           "/healthz",
		{"/admin/", "/api/x"}:      "/admin/api/x",
		{"admin", PathAssets}:      "/admin/assets/themes/dealform/",
		{" /admin ", " /healthz "}: "/admin/healthz",
	}
	for in, want := range cases {
		if got := MountPath(in[0], in[1]); got != want {
			t.Errorf("MountPath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestRequestLogging(t *testing.T) {
	logger, logs := testsupport.ObservedLogger()
	h := newHandler(t, WithLogger(logger))

	serve(h, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	serve(h, postForm(surface.EncodeForm(testsupport.LoadSnapshot(t, blockedFixture), surface.ActionSubmit), ""))

	requests := logs.FilterMessage("request").All()
	if len(requests) != 2 {
		t.Fatalf("expected 2 request entries, got %d", len(requests))
	}
	if status := requests[1].ContextMap()["status"]; status != int64(http.StatusUnprocessableEntity) {
		t.Fatalf("expected logged status 422, got %v", status)
	}
	blocked := logs.FilterMessage("submission blocked").All()
	if len(blocked) != 1 || blocked[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected one blocked submission entry, got %v", blocked)
	}
}

func newHandler(t *testing.T, fns ...OptionFn) http.Handler {
	t.Helper()
	h, err := NewHandler(fns...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(values url.Values, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, PathCalculation, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req
}

func postDownload(kind string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, PathDownload+kind, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
