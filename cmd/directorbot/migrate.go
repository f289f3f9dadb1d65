package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/directorbot/core/bootstrap"
	corecmd "github.com/m3rciful/directorbot/core/cmd"
	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/logger"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := corecmd.ResolveConfigPath(corecmd.Options{ConfigPath: flags.configPath})
			cfg, err := config.LoadStorage(path)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer func() { _ = logger.Shutdown() }()

			infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := infra.Close(); err != nil {
				return fmt.Errorf("migrate: close database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Storage.Driver)
			return nil
		},
	}
}
