package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/internal/presentation/tui"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/spf13/cobra"
)

var errNotCompilable = errors.New("flow has blocking errors")

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check call flows for errors and warnings",
		Long:  `Validates each flow document (JSON or YAML, "-" for stdin) and lists every error and warning. Exits non-zero if any flow cannot be compiled.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			hooks := observability.LoggingHooks(a.logger)

			failed := 0
			for _, path := range args {
				g, err := cli.LoadGraph(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				report := ivrflow.Validate(cmd.Context(), g,
					ivrflow.WithLifecycleHooks(hooks), ivrflow.WithFlowID(path), ivrflow.WithLogger(a.logger))
				if !report.Compilable() {
					failed++
				}
				if err := printReport(cmd, path, report, asJSON); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d flow(s)", errNotCompilable, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print reports as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, title string, report *domain.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if isTerminal(cmd) {
		rendered, err := tui.NewRenderer()(tui.ReportMarkdown(title, report))
		if err == nil {
			fmt.Fprint(out, rendered)
			return nil
		}
	}

	fmt.Fprintf(out, "%s: %d error(s), %d warning(s)\n", title, len(report.Errors), len(report.Warnings))
	for _, f := range report.Errors {
		fmt.Fprintln(out, "  "+tui.FormatFinding(f))
	}
	for _, f := range report.Warnings {
		fmt.Fprintln(out, "  "+tui.FormatFinding(f))
	}
	return nil
}
