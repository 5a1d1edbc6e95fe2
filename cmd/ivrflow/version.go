package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ivrflow",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := strings.TrimSpace(ivrflow.Version)
			if isTerminal(cmd) {
				tui.PrintBanner(cmd.OutOrStdout(), v)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ivrflow version %s\n", v)
		},
	}
}
