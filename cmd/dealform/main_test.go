package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/internal/config"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/eir"
	"github.com/goliatone/go-dealform/pkg/renderers/tui"
	"github.com/goliatone/go-dealform/pkg/validation"
)

const (
	acceptedFixture = "../../pkg/testsupport/testdata/accepted.json"
	blockedFixture  = "../../pkg/testsupport/testdata/blocked.yaml"
)

func TestCheck_Accepted(t *testing.T) {
	stdout, _, err := run(t, nil, "check", acceptedFixture)
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	var got deal.Deal
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if got.DealID != "DEAL-001" || got.SetupCosts != 1000 || got.DealCurrency != "EUR" {
		t.Fatalf("unexpected deal %+v", got)
	}
}

func TestCheck_Blocked(t *testing.T) {
	stdout, _, err := run(t, nil, "check", blockedFixture)
	if !errors.Is(err, errBlocked) {
		t.Fatalf("expected errBlocked, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if lines[0] != validation.MsgDealIDRequired {
		t.Fatalf("expected rule order, got %v", lines)
	}
	if !strings.Contains(stdout, validation.MsgInterestRateNumeric) {
		t.Fatalf("expected interest rate message, got %s", stdout)
	}
}

func TestCheck_Errors(t *testing.T) {
	if _, _, err := run(t, nil, "check"); err == nil {
		t.Fatalf("expected argument error")
	}
	if _, _, err := run(t, nil, "check", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	if _, _, err := run(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "check", acceptedFixture); err == nil {
		t.Fatalf("expected config error")
	}
	if _, _, err := run(t, nil, "--log-level", "loud", "check", acceptedFixture); err == nil {
		t.Fatalf("expected log level error")
	}
}

func TestSchedule_JSON(t *testing.T) {
	stdout, _, err := run(t, nil, "schedule", acceptedFixture, "--method", "complex")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	var got eir.Report
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if got.Method != eir.MethodComplex || got.DealID != "DEAL-001" || len(got.Rows) != 11 {
		t.Fatalf("unexpected report %+v", got)
	}
}

func TestSchedule_Exports(t *testing.T) {
	stdout, _, err := run(t, nil, "schedule", acceptedFixture, "--table", "summary", "--format", "csv")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if !strings.HasPrefix(lines[0], "Deal id,Years,") || len(lines) != 7 {
		t.Fatalf("unexpected summary csv:\n%s", stdout)
	}

	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	_, stderr, err := run(t, nil, "schedule", acceptedFixture, "--format", "xlsx", "-o", path)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !strings.Contains(stderr, path) {
		t.Fatalf("expected written path on stderr, got %q", stderr)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(string(eir.KindReport))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 12 || rows[1][0] != "DEAL-001" {
		t.Fatalf("unexpected workbook rows %v", rows)
	}
}

func TestSchedule_Errors(t *testing.T) {
	if _, _, err := run(t, nil, "schedule", acceptedFixture, "--method", "monthly"); err == nil {
		t.Fatalf("expected method error")
	}
	if _, _, err := run(t, nil, "schedule", acceptedFixture, "--table", "ledger"); err == nil {
		t.Fatalf("expected table error")
	}
	if _, _, err := run(t, nil, "schedule", acceptedFixture, "--format", "pdf"); err == nil {
		t.Fatalf("expected format error")
	}
	if _, _, err := run(t, nil, "schedule", blockedFixture); !errors.Is(err, errBlocked) {
		t.Fatalf("expected errBlocked, got %v", err)
	}
}

func TestPrompt_PrefilledSubmit(t *testing.T) {
	// eleven scalar prompts keep their defaults, the terms keep theirs, then
	// fixed interest and submit
	driver := &scriptedDriver{selects: []int{keepChoice, keepChoice, keepChoice, 0, 6}}

	stdout, _, err := run(t, driver, "prompt", "--from", acceptedFixture, "--output", "json")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	var got deal.Deal
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if got.DealID != "DEAL-001" {
		t.Fatalf("unexpected deal %+v", got)
	}
	if driver.inputs != 11 {
		t.Fatalf("expected 11 field prompts, got %d", driver.inputs)
	}
	if got.DayCount != "actual_actual" {
		t.Fatalf("expected kept day count, got %q", got.DayCount)
	}
}

func TestPrompt_Quit(t *testing.T) {
	driver := &scriptedDriver{selects: []int{keepChoice, keepChoice, keepChoice, 0, 7}}

	stdout, stderr, err := run(t, driver, "prompt", "--from", acceptedFixture)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if stdout != "" || !strings.Contains(stderr, "aborted") {
		t.Fatalf("unexpected output %q / %q", stdout, stderr)
	}
}

func TestServeHandler_UsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealform.yaml")
	settings := `
server:
  base_path: /deals
theme:
  variant: dark
  title: Loan entry
form:
  functional_ccy: gbp
  setup_cost_rows: 2
`
	if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	handler, err := newHandler(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deals/calculation", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<link rel="stylesheet" href="/deals/assets/themes/dealform/deal.dark.css">`,
		`<script src="/deals/assets/themes/dealform/deal.js" defer></script>`,
		`action="/deals/calculation"`,
		`value="GBP"`,
		"<title>Loan entry</title>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if got := strings.Count(body, `class="row setup-cost-row"`); got != 2 {
		t.Errorf("expected 2 setup cost rows, got %d", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deals/assets/themes/dealform/deal.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected script to be served, got %d", rec.Code)
	}
}

func TestRoot_PrintsHelp(t *testing.T) {
	stdout, _, err := run(t, nil)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, want := range []string{"serve", "prompt", "check", "schedule"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func run(t *testing.T, driver tui.PromptDriver, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(driver)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// keepChoice answers a select with its default option.
const keepChoice = -2

// scriptedDriver keeps every input default and answers selects in order.
type scriptedDriver struct {
	selects []int
	inputs  int
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.inputs++
	return cfg.Default, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return -1, errors.New("no select scripted for " + cfg.Message)
	}
	idx := d.selects[0]
	d.selects = d.selects[1:]
	if idx == keepChoice {
		idx = cfg.DefaultIndex
	}
	return idx, nil
}

func (d *scriptedDriver) Info(context.Context, string) error {
	return nil
}
