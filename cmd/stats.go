package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print accumulated extraction statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := stats.Load(cfg.Feedback.StatsPath)
		if err != nil {
			return err
		}

		snap := tracker.Snapshot()
		zap.L().Info("extraction statistics",
			zap.Int("total", snap.TotalExtractions),
			zap.Float64("agreement_rate", snap.AgreementRate()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
