package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/renderers/tui"
)

func newPromptCommand(root *rootOptions) *cobra.Command {
	var (
		output string
		from   string
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the deal form interactively",
		Long: `prompt walks through the form fields, lets you add and edit setup cost
and interest rate rows, and prints the accepted deal to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			snapshot := cfg.Form.Snapshot()
			if from != "" {
				if snapshot, err = readSnapshot(from); err != nil {
					return err
				}
			}

			opts := []tui.Option{
				tui.WithOutput(cmd.ErrOrStderr()),
				tui.WithOutputFormat(tui.ParseOutputFormat(output)),
				tui.WithLogger(logger),
			}
			if root.driver != nil {
				opts = append(opts, tui.WithPromptDriver(root.driver))
			}
			renderer, err := tui.New(opts...)
			if err != nil {
				return err
			}

			out, err := renderer.Render(cmd.Context(), render.NewPage(snapshot))
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(tui.OutputFormatJSON), "output format: json, pretty or form")
	cmd.Flags().StringVar(&from, "from", "", "prefill the form from a saved JSON or YAML snapshot")
	return cmd
}
