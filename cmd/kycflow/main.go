// Command kycflow runs KYC cases against the analysis agents.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kycflow/internal/platform/config"
	"kycflow/internal/platform/logger"
)

var Version = "dev"

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "kycflow",
		Short:         "Multi-agent KYC case orchestration",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.processCmd())
	root.AddCommand(a.topicsCmd())
	return root
}
