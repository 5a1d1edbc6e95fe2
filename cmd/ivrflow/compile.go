package main

import (
	"encoding/json"
	"errors"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a call flow into a call-control script",
		Long:  `Compiles a flow document into its ordered script of labelled units and prints the script as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			script, err := compileFile(cmd, a, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(script, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, append(data, '\n'))
		},
	}
	addPolicyFlag(cmd)
	cmd.Flags().StringP("output", "o", "", "Write the script to a file instead of stdout")
	return cmd
}

// compileFile loads and compiles a flow.
func compileFile(cmd *cobra.Command, a *app, path string) (*domain.Script, error) {
	g, err := cli.LoadGraph(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	return compileGraph(cmd, a, g, path)
}

// compileGraph compiles g, printing the blocking findings when it has errors.
func compileGraph(cmd *cobra.Command, a *app, g *domain.Graph, path string) (*domain.Script, error) {
	policy, err := a.policy(cmd)
	if err != nil {
		return nil, err
	}
	script, err := ivrflow.Compile(cmd.Context(), g,
		ivrflow.WithDeadBranch(policy),
		ivrflow.WithLifecycleHooks(observability.LoggingHooks(a.logger)),
		ivrflow.WithFlowID(path),
		ivrflow.WithLogger(a.logger))

	var cerr *domain.CompileError
	if errors.As(err, &cerr) {
		_ = printReport(cmd, path, &domain.Report{Errors: cerr.Findings}, false)
	}
	return script, err
}
