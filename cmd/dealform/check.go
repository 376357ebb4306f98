package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/render"
)

// errBlocked ends check with a non-zero exit once the messages are printed.
var errBlocked = errors.New("submission blocked")

func newCheckCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <snapshot>",
		Short: "Validate a saved form and print the normalised deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			normalized, err := acceptSnapshot(cmd, logger, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(normalized, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// acceptSnapshot submits the saved form at path the way the page does. A
// blocked submission prints its messages and returns errBlocked.
func acceptSnapshot(cmd *cobra.Command, logger *zap.Logger, path string) (deal.Deal, error) {
	snapshot, err := readSnapshot(path)
	if err != nil {
		return deal.Deal{}, err
	}

	page := render.NewPage(snapshot)
	ctrl := controller.New(page, controller.WithLogger(logger))
	if _, err := ctrl.Load(snapshot); err != nil {
		return deal.Deal{}, err
	}
	outcome := ctrl.Submit(snapshot)
	if outcome.Blocked {
		for _, message := range outcome.Result.Messages() {
			fmt.Fprintln(cmd.OutOrStdout(), message)
		}
		return deal.Deal{}, errBlocked
	}

	normalized, err := deal.Normalize(ctrl.Snapshot(snapshot), ctrl.Total())
	if err != nil {
		logger.Info("deal normalisation failed", zap.Error(err))
		fmt.Fprintln(cmd.OutOrStdout(), err.Error())
		return deal.Deal{}, errBlocked
	}
	return normalized, nil
}
