package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/eir"
)

func newScheduleCommand(root *rootOptions) *cobra.Command {
	var (
		method string
		table  string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "schedule <snapshot>",
		Short: "Compute the effective interest schedule of a saved form",
		Long: `schedule submits a saved form and runs the accepted deal through the
simple or complex effective interest method, or compares both. The result is
printed as JSON, or written as a CSV or XLSX table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := eir.ParseMethod(strings.ToLower(strings.TrimSpace(method)))
			if !ok {
				return fmt.Errorf("unknown method %q: use simple, complex or comparison", method)
			}
			kind, ok := eir.ParseKind(table)
			if !ok {
				return fmt.Errorf("unknown table %q: use report, comparison or summary", table)
			}
			if kind != eir.KindReport {
				m = eir.MethodComparison
			} else if m == eir.MethodComparison {
				kind = eir.KindComparison
			}

			_, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			d, err := acceptSnapshot(cmd, logger, args[0])
			if err != nil {
				return err
			}

			var (
				result any
				tab    eir.Table
			)
			switch m {
			case eir.MethodComparison:
				comparison, err := eir.Compare(d)
				if err != nil {
					return err
				}
				result, tab = comparison, comparison.PeriodTable()
				if kind == eir.KindSummary {
					tab = comparison.SummaryTable()
				}
			case eir.MethodComplex:
				report, err := eir.Complex(d)
				if err != nil {
					return err
				}
				result, tab = report, report
			default:
				report, err := eir.Simple(d)
				if err != nil {
					return err
				}
				result, tab = report, report
			}
			logger.Info("schedule computed",
				zap.String("deal_id", d.DealID),
				zap.String("method", string(m)),
			)

			if strings.EqualFold(strings.TrimSpace(format), "json") {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, append(data, '\n'))
			}

			f, ok := eir.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q: use json, csv or xlsx", format)
			}
			if f == eir.FormatXLSX && output == "" {
				output = eir.Filename(d.DealID, kind, string(f))
			}
			var body bytes.Buffer
			if err := eir.Write(&body, f, string(kind), tab); err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, body.Bytes()); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "wrote", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", string(eir.MethodSimple), "simple, complex or comparison")
	cmd.Flags().StringVar(&table, "table", string(eir.KindReport), "table to export: report, comparison or summary")
	cmd.Flags().StringVar(&format, "format", "json", "json, csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
