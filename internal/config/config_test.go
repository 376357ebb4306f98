package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
)

func TestLoad_BlankPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "dealform.yaml", `
server:
  addr: 127.0.0.1:9090
log:
  level: debug
  format: console
theme:
  variant: dark
form:
  functional_ccy: eur
  interest_type: floating
  structure: amortizing
  daycount: thirty_360
  setup_cost_rows: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.Server.Addr = "127.0.0.1:9090"
	want.Log.Level = "debug"
	want.Log.Format = "console"
	want.Theme.Variant = "dark"
	want.Form.FunctionalCurrency = "eur"
	want.Form.InterestType = "floating"
	want.Form.Structure = "amortizing"
	want.Form.DayCount = "thirty_360"
	want.Form.SetupCostRows = 3
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"server":{"addr":":7000","script":false},"form":{"interest_rate_rows":0}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Server.Script || cfg.Form.InterestRateRows != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Form.SetupCostRows != 1 {
		t.Fatalf("expected untouched default, got %d", cfg.Form.SetupCostRows)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("   ")); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
	if _, err := Parse([]byte("server: [")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Server.BasePath = "deals"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Form.FunctionalCurrency = "EURO"
	cfg.Form.InterestType = "variable"
	cfg.Form.Structure = "balloon"
	cfg.Form.InterestFrequency = "weekly"
	cfg.Form.DayCount = "actual_364"
	cfg.Form.SetupCostRows = -1
	cfg.Form.InterestRateRows = MaxInitialRows + 1

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, deal.ErrInvalidCurrency) {
		t.Fatalf("expected currency error in %v", err)
	}
	for _, want := range []string{
		"server.addr", "server.base_path", "log.level", "log.format",
		"form.functional_ccy", "form.interest_type", "form.structure", "form.interest_freq",
		"form.daycount", "form.setup_cost_rows", "form.interest_rate_rows",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestFormConfig_Snapshot(t *testing.T) {
	got := FormConfig{
		FunctionalCurrency: " gbp ",
		InterestType:       "Floating",
		Structure:          "Amortizing",
		InterestFrequency:  " quarterly",
		SetupCostRows:      2,
		InterestRateRows:   1,
	}.Snapshot()

	want := model.FormSnapshot{
		FunctionalCurrency: "GBP",
		InterestType:       model.InterestTypeFloating,
		Structure:          model.StructureAmortizing,
		InterestFrequency:  model.FrequencyQuarterly,
		SetupCostRows:      []model.SetupCostRow{{}, {}},
		InterestRateRows:   []model.InterestRateRow{{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
