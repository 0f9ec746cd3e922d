package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchpilot/contextrank/internal/config"
	"github.com/launchpilot/contextrank/internal/usage"
)

// #region root

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "rankd",
		Short: "Context-aware app ranking engine",
		Long: "rankd runs the contextrank engine against simulated facet providers.\n" +
			"Use 'run' for the interactive demo, 'decay' for weight maintenance.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML); defaults + CONTEXTRANK_* env otherwise")

	root.AddCommand(runCmd(), decayCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion root

// #region run-cmd

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Interactive ranking demo REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runREPL(cfg)
		},
	}
}

// #endregion run-cmd

// #region decay-cmd

func decayCmd() *cobra.Command {
	var rate float64
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Age all base weights by multiplying with (1 - rate)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store, err := usage.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			if err := store.DecayAll(rate); err != nil {
				return err
			}
			fmt.Printf("decayed all weights by %.3f\n", rate)
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 0.05, "decay rate in (0, 1)")
	return cmd
}

// #endregion decay-cmd
