// Package config loads the dealform settings from a JSON or YAML file and
// applies defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dealform/internal/logging"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
)

// MaxInitialRows caps the rows a fresh form starts with.
const MaxInitialRows = 50

// Config is the full settings tree.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Log    LogConfig    `json:"log" yaml:"log"`
	Theme  ThemeConfig  `json:"theme" yaml:"theme"`
	Form   FormConfig   `json:"form" yaml:"form"`
}

type ServerConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	BasePath string `json:"base_path" yaml:"base_path"`
	// Script serves the runtime script that recalculates without a round
	// trip. The form works without it.
	Script bool `json:"script" yaml:"script"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

type ThemeConfig struct {
	Name    string `json:"name" yaml:"name"`
	Variant string `json:"variant" yaml:"variant"`
	Title   string `json:"title" yaml:"title"`
}

// FormConfig seeds the fields of a fresh form.
type FormConfig struct {
	FunctionalCurrency string `json:"functional_ccy" yaml:"functional_ccy"`
	InterestType       string `json:"interest_type" yaml:"interest_type"`
	// Structure, InterestFrequency and DayCount preselect the deal terms;
	// blank leaves the choice open.
	Structure         string `json:"structure" yaml:"structure"`
	InterestFrequency string `json:"interest_freq" yaml:"interest_freq"`
	DayCount          string `json:"daycount" yaml:"daycount"`
	SetupCostRows     int    `json:"setup_cost_rows" yaml:"setup_cost_rows"`
	InterestRateRows  int    `json:"interest_rate_rows" yaml:"interest_rate_rows"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Script: true},
		Log:    LogConfig{Level: "info", Format: logging.FormatJSON, MaxSizeMB: 10, MaxBackups: 3},
		Theme:  ThemeConfig{Name: "dealform", Title: "Deal calculation"},
		Form: FormConfig{
			InterestType:      string(model.InterestTypeFixed),
			Structure:         string(model.StructureBullet),
			InterestFrequency: string(model.FrequencySemiAnnual),
			DayCount:          string(model.DayCountActualActual),
			SetupCostRows:     1,
			InterestRateRows:  1,
		},
	}
}

// Load reads path over the defaults. A blank path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := parse(data, path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes raw settings over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := parse(data, "input", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(data []byte, source string, cfg *Config) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("config: file %s is empty", source)
	}
	// Decode into a copy so a failed JSON attempt leaves no partial values
	// behind for the YAML attempt.
	jsonCfg := *cfg
	if err := json.Unmarshal(data, &jsonCfg); err == nil {
		*cfg = jsonCfg
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return nil
}

// Validate checks every section and reports all problems together.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if base := strings.TrimSpace(c.Server.BasePath); base != "" && !strings.HasPrefix(base, "/") {
		errs = append(errs, fmt.Errorf("server.base_path %q must start with /", base))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if strings.TrimSpace(c.Form.FunctionalCurrency) != "" {
		if _, err := deal.Currency(c.Form.FunctionalCurrency); err != nil {
			errs = append(errs, fmt.Errorf("form.functional_ccy: %w", err))
		}
	}
	if _, ok := model.ParseInterestType(c.Form.InterestType); !ok {
		errs = append(errs, fmt.Errorf("form.interest_type %q must be fixed or floating", c.Form.InterestType))
	}
	if raw := strings.TrimSpace(c.Form.Structure); raw != "" {
		if _, ok := model.ParseStructure(raw); !ok {
			errs = append(errs, fmt.Errorf("form.structure %q must be one of %s", raw, strings.Join(model.Structures(), ", ")))
		}
	}
	if raw := strings.TrimSpace(c.Form.InterestFrequency); raw != "" {
		if _, ok := model.ParseInterestFrequency(raw); !ok {
			errs = append(errs, fmt.Errorf("form.interest_freq %q must be one of %s", raw, strings.Join(model.InterestFrequencies(), ", ")))
		}
	}
	if raw := strings.TrimSpace(c.Form.DayCount); raw != "" {
		if _, ok := model.ParseDayCount(raw); !ok {
			errs = append(errs, fmt.Errorf("form.daycount %q must be one of %s", raw, strings.Join(model.DayCounts(), ", ")))
		}
	}
	if c.Form.SetupCostRows < 0 || c.Form.SetupCostRows > MaxInitialRows {
		errs = append(errs, fmt.Errorf("form.setup_cost_rows must be between 0 and %d", MaxInitialRows))
	}
	if c.Form.InterestRateRows < 0 || c.Form.InterestRateRows > MaxInitialRows {
		errs = append(errs, fmt.Errorf("form.interest_rate_rows must be between 0 and %d", MaxInitialRows))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Snapshot returns the blank form the settings describe.
func (f FormConfig) Snapshot() model.FormSnapshot {
	interestType, _ := model.ParseInterestType(f.InterestType)
	structure, _ := model.ParseStructure(f.Structure)
	frequency, _ := model.ParseInterestFrequency(f.InterestFrequency)
	dayCount, _ := model.ParseDayCount(f.DayCount)
	snapshot := model.FormSnapshot{
		FunctionalCurrency: strings.ToUpper(strings.TrimSpace(f.FunctionalCurrency)),
		InterestType:       interestType,
		Structure:          structure,
		InterestFrequency:  frequency,
		DayCount:           dayCount,
	}
	if f.SetupCostRows > 0 {
		snapshot.SetupCostRows = make([]model.SetupCostRow, f.SetupCostRows)
	}
	if f.InterestRateRows > 0 {
		snapshot.InterestRateRows = make([]model.InterestRateRow, f.InterestRateRows)
	}
	return snapshot
}

// LoggingOptions maps the log section onto logging.Options.
func (l LogConfig) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}
