package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dealform/internal/config"
	"github.com/goliatone/go-dealform/internal/logging"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/renderers/tui"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	// driver replaces the survey prompts of the prompt command.
	driver tui.PromptDriver
}

func newRootCommand(driver tui.PromptDriver) *cobra.Command {
	opts := &rootOptions{driver: driver}

	cmd := &cobra.Command{
		Use:   "dealform",
		Short: "Deal calculation form: setup costs, validation and deal summary",
		Long: `dealform captures a loan deal: principal, currencies, dates, interest
terms and setup costs in foreign currencies. It serves the form over HTTP,
runs it interactively in a terminal, checks saved form snapshots and computes
their effective interest schedules.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a JSON or YAML settings file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newServeCommand(opts),
		newPromptCommand(opts),
		newCheckCommand(opts),
		newScheduleCommand(opts),
	)
	return cmd
}

// load reads the settings and builds the logger writing to the command's
// stderr.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if level := strings.TrimSpace(o.logLevel); level != "" {
		cfg.Log.Level = level
	}

	logOpts := cfg.Log.LoggingOptions()
	logOpts.Output = cmd.ErrOrStderr()
	logger, err := logging.New(logOpts)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// readSnapshot decodes a saved form. YAML covers JSON files too.
func readSnapshot(path string) (model.FormSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormSnapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot model.FormSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return model.FormSnapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}
