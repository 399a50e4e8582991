package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/feedback"
	"github.com/bazarlab/adextract/internal/model"
)

var reviewDecisionsFile string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect and resolve the disagreement review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print pending review queue entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		review, err := feedback.OpenReviewQueue(cfg.Feedback.ReviewQueuePath)
		if err != nil {
			return err
		}

		entries := review.Entries()
		zap.L().Info("review queue", zap.Int("pending", len(entries)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

// decisionsFile maps listing IDs to per-field decisions:
//
//	{"listing-1": {"mileage": {"choice": "regex"}, "power": {"choice": "custom", "custom": "110 kW"}}}
type decisionsFile map[string]map[model.Field]feedback.Decision

var reviewApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a decisions file to the review queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(reviewDecisionsFile)
		if err != nil {
			return eris.Wrap(err, "read decisions file")
		}
		var decisions decisionsFile
		if err := json.Unmarshal(b, &decisions); err != nil {
			return eris.Wrap(err, "parse decisions file")
		}

		review, err := feedback.OpenReviewQueue(cfg.Feedback.ReviewQueuePath)
		if err != nil {
			return err
		}
		manual, err := feedback.OpenTrainingQueue(cfg.Feedback.ManualReviewLogPath)
		if err != nil {
			return err
		}

		reviewer := feedback.NewReviewer(review, manual)
		applied := 0
		for listingID, fieldDecisions := range decisions {
			if err := reviewer.Apply(listingID, fieldDecisions); err != nil {
				zap.L().Error("review apply failed",
					zap.String("listing_id", listingID),
					zap.Error(err),
				)
				continue
			}
			applied++
		}

		zap.L().Info("review decisions applied",
			zap.Int("applied", applied),
			zap.Int("remaining", len(review.Entries())),
		)
		return nil
	},
}

func init() {
	reviewApplyCmd.Flags().StringVar(&reviewDecisionsFile, "file", "", "JSON decisions file (required)")
	_ = reviewApplyCmd.MarkFlagRequired("file")
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApplyCmd)
	rootCmd.AddCommand(reviewCmd)
}
