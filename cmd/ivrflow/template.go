package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/templates"
	"github.com/spf13/cobra"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "List or instantiate built-in starter flows",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the built-in templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, t := range templates.All() {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	}

	newCmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Write a template as a flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if output != "" && !cmd.Flags().Changed("format") {
				format = string(codec.FormatForPath(output))
			}

			g, err := templates.Get(args[0])
			if err != nil {
				return err
			}
			data, err := ivrflow.Export(g, codec.Format(format))
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	newCmd.Flags().StringP("format", "f", "yaml", "Document format: json or yaml")
	newCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout (format follows the extension)")

	cmd.AddCommand(list, newCmd)
	return cmd
}
