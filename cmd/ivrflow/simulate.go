package main

import (
	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/spf13/cobra"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate FILE",
		Short: "Walk a compiled flow with caller input",
		Long: `Compiles the flow and plays a call through it. Without --input, digits and
language codes are read from stdin one per line ("exit" stops).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, _ := cmd.Flags().GetStringSlice("input")
			asJSON, _ := cmd.Flags().GetBool("json")
			maxSteps, _ := cmd.Flags().GetInt("max-steps")
			responses, err := responsesFlag(cmd)
			if err != nil {
				return err
			}

			script, err := compileFile(cmd, a, args[0])
			if err != nil {
				return err
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			opts := cli.SimulateOptions{
				Inputs:    inputs,
				Out:       cmd.OutOrStdout(),
				JSON:      asJSON,
				MaxSteps:  maxSteps,
				Responses: responses,
				Logger:    a.logger,
			}
			if len(inputs) == 0 && args[0] != "-" {
				opts.In = cmd.InOrStdin()
			}
			_, err = cli.RunSimulation(ctx, script, opts)
			if cli.IsInterrupted(err) {
				return nil
			}
			return err
		},
	}
	addPolicyFlag(cmd)
	cmd.Flags().StringSlice("input", nil, "Caller inputs, e.g. --input 1,2")
	cmd.Flags().Bool("json", false, "Print events as NDJSON")
	addRespondFlag(cmd)
	cmd.Flags().Int("max-steps", 0, "Units a call may execute without input (default 1000)")
	return cmd
}
