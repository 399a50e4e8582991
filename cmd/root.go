package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "adextract",
	Short: "Dual-source field extraction for car classified ads",
	Long:  "Extracts mileage, production year, engine power and fuel type from Czech car listings, reconciles the learned model against tiered patterns, and feeds disagreements back into training.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
