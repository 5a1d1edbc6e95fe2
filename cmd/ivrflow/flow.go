package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/flows"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/spf13/cobra"
)

// withManager opens the configured store for the duration of fn.
func withManager(a *app, fn func(*flows.Manager) error) error {
	backend, err := cli.OpenBackend(a.cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(cli.NewManager(backend, a.cfg, a.logger, observability.LoggingHooks(a.logger)))
}

func newFlowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows in the configured store",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(a, func(m *flows.Manager) error {
				recs, err := m.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tVERSION\tUPDATED")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Version, r.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}

	push := &cobra.Command{
		Use:   "push FILE",
		Short: "Store a flow document",
		Long:  `Creates a new stored flow, or with --id replaces an existing one if --version still matches.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			version, _ := cmd.Flags().GetUint64("version")

			g, err := cli.LoadGraph(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withManager(a, func(m *flows.Manager) error {
				if id == "" {
					if name == "" {
						name = args[0]
					}
					rec, err := m.Create(cmd.Context(), name, "", g)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s version %d\n", rec.ID, rec.Version)
					return nil
				}
				rec, err := m.Save(cmd.Context(), id, g, version)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %d\n", rec.ID, rec.Version)
				return nil
			})
		},
	}
	push.Flags().String("id", "", "Replace the stored flow with this id")
	push.Flags().String("name", "", "Name for a new flow (default: the file name)")
	push.Flags().Uint64("version", 0, "Version the stored flow must still have (with --id)")

	pull := &cobra.Command{
		Use:   "pull ID",
		Short: "Print a stored flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withManager(a, func(m *flows.Manager) error {
				flow, err := m.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := codec.Encode(flow.Graph, codec.Format(format))
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	pull.Flags().StringP("format", "f", "yaml", "Document format: json or yaml")

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(a, func(m *flows.Manager) error {
				return m.Delete(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(list, push, pull, remove)
	return cmd
}
