package main

import (
	"fmt"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Export the flow as a Mermaid diagram",
		Long: `Outputs a Mermaid diagram (graph TD) of the flow. With --input, the flow is
compiled and simulated with those caller inputs and the call path is highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, _ := cmd.Flags().GetStringSlice("input")
			responses, err := responsesFlag(cmd)
			if err != nil {
				return err
			}

			g, err := cli.LoadGraph(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), ivrflow.ExportMermaid(g, nil, ""))
				return nil
			}

			script, err := compileGraph(cmd, a, g, args[0])
			if err != nil {
				return err
			}
			state, err := cli.RunSimulation(cmd.Context(), script, cli.SimulateOptions{
				Inputs:    inputs,
				Out:       cmd.ErrOrStderr(),
				Quiet:     true,
				Responses: responses,
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			var current string
			if n := len(state.Path); n > 0 {
				current = state.Path[n-1]
			}
			fmt.Fprint(cmd.OutOrStdout(), ivrflow.ExportMermaid(g, state.Path, current))
			return nil
		},
	}
	addPolicyFlag(cmd)
	cmd.Flags().StringSlice("input", nil, "Caller inputs to simulate and highlight, e.g. --input 1,2")
	addRespondFlag(cmd)
	return cmd
}
