package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/ivrflow/internal/cli"
	"github.com/aretw0/ivrflow/internal/config"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/registry"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what every command needs once the persistent flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := cli.CreateLogger(cfg, a.debug)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// policy resolves the dead-branch policy from the --dead-branch flag, then the config.
func (a *app) policy(cmd *cobra.Command) (domain.DeadBranchPolicy, error) {
	p, _ := cmd.Flags().GetString("dead-branch")
	if p == "" {
		p = a.cfg.DeadBranch
	}
	return domain.ParseDeadBranchPolicy(p)
}

func addPolicyFlag(cmd *cobra.Command) {
	cmd.Flags().String("dead-branch", "", "Behaviour on input with no connected branch: reprompt or hangup (default from config)")
}

func addRespondFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray("respond", nil, "Simulated api response as NODE_OR_ENDPOINT=CODE (default 200), repeatable")
}

func responsesFlag(cmd *cobra.Command) (*registry.Registry, error) {
	pairs, _ := cmd.Flags().GetStringArray("respond")
	reg := registry.NewRegistry()
	if err := reg.Parse(pairs); err != nil {
		return nil, err
	}
	return reg, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "ivrflow",
		Short:             "ivrflow validates and compiles IVR call flows",
		Long:              `ivrflow checks call-flow graphs built from prompt, key, transfer and other blocks, and compiles them into call-control scripts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to ivrflow.yaml (default ./ivrflow.yaml if present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging on stderr")

	root.AddCommand(
		newValidateCmd(a),
		newCompileCmd(a),
		newExportCmd(a),
		newGraphCmd(a),
		newSimulateCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newTemplateCmd(a),
		newFlowCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeOutput writes data to path, or to the command's stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
