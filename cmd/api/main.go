package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mosaicboard/internal/config"
	"mosaicboard/internal/logger"
)

func main() {
	cfg := config.LoadConfig()

	if err := rootCommand(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mosaic",
		Short:         "Collaborative mosaic boards server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.LogEnv, "log-env", cfg.LogEnv, `"dev" for console logs, anything else for JSON`)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := logger.Init(cfg.LogEnv); err != nil {
			return err
		}
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		zap.L().Sync()
	}

	rootCmd.AddCommand(
		serveCommand(cfg),
		migrateCommand(cfg),
		boardCommand(cfg),
		roleCommand(cfg),
		tokenCommand(cfg),
	)

	return rootCmd
}
