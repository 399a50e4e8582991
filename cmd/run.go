package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/model"
)

var (
	runID   string
	runText string
	runFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract and resolve fields for a single listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if runText == "" && runFile == "" {
			return eris.New("either --text or --file is required")
		}
		text := runText
		if runFile != "" {
			b, err := os.ReadFile(runFile)
			if err != nil {
				return eris.Wrap(err, "read listing file")
			}
			text = string(b)
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := env.engine.Process(ctx, model.Listing{ID: runID, Text: text})
		if err != nil {
			return eris.Wrap(err, "process listing")
		}

		zap.L().Info("listing processed",
			zap.String("listing_id", record.ListingID),
			zap.String("agreement_level", string(record.AgreementLevel)),
			zap.String("confidence", string(record.Confidence)),
		)

		// Print record JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

func init() {
	runCmd.Flags().StringVar(&runID, "id", "", "listing identifier (required)")
	runCmd.Flags().StringVar(&runText, "text", "", "listing text")
	runCmd.Flags().StringVar(&runFile, "file", "", "file containing listing text")
	_ = runCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(runCmd)
}
