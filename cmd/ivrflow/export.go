package main

import (
	"fmt"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Convert a flow to JSON, YAML or an Asterisk dialplan",
		Long: `Re-encodes a flow document as json or yaml, or compiles it and renders
the script as an Asterisk dialplan (agi).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			var data []byte
			switch format {
			case "agi":
				script, err := compileFile(cmd, a, args[0])
				if err != nil {
					return err
				}
				var opts []ivrflow.Option
				if name, _ := cmd.Flags().GetString("context"); name != "" {
					opts = append(opts, ivrflow.WithAGIContext(name))
				}
				data = []byte(ivrflow.ExportAGI(script, opts...))
			case string(codec.FormatJSON), string(codec.FormatYAML):
				g, err := cli.LoadGraph(args[0], cmd.InOrStdin())
				if err != nil {
					return err
				}
				if data, err = ivrflow.Export(g, codec.Format(format)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q: use json, yaml or agi", format)
			}
			return writeOutput(cmd, output, data)
		},
	}
	addPolicyFlag(cmd)
	cmd.Flags().StringP("format", "f", "agi", "Output format: json, yaml or agi")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().String("context", "", "Dialplan context name for agi output")
	return cmd
}
