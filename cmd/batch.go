package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bazarlab/adextract/internal/model"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a file of listings concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		listings, err := readListings(batchFile)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, env, listings, batchLimit, cfg.Batch.MaxConcurrentListings)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "JSON file with an array of {id, text} listings (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of listings to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func readListings(path string) ([]model.Listing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read listings file")
	}
	var listings []model.Listing
	if err := json.Unmarshal(b, &listings); err != nil {
		return nil, eris.Wrap(err, "parse listings file")
	}
	for i, l := range listings {
		if l.ID == "" {
			return nil, eris.Errorf("listing %d has no id", i)
		}
	}
	return listings, nil
}

// processBatch applies limit, then runs listings through the engine with
// bounded concurrency. Individual failures are logged and do not abort
// the batch.
func processBatch(ctx context.Context, env *appEnv, listings []model.Listing, limit, concurrency int) error {
	if len(listings) == 0 {
		zap.L().Info("no listings to process")
		return nil
	}
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("batch_run_id", runID))
	log.Info("processing batch",
		zap.Int("listings", len(listings)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, listing := range listings {
		listing := listing
		g.Go(func() error {
			record, err := env.engine.Process(gctx, listing)
			if err != nil {
				failed.Add(1)
				log.Error("listing failed",
					zap.String("listing_id", listing.ID),
					zap.Error(err),
				)
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			log.Debug("listing processed",
				zap.String("listing_id", listing.ID),
				zap.String("agreement_level", string(record.AgreementLevel)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	snap := env.tracker.Snapshot()
	log.Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Float64("agreement_rate", snap.AgreementRate()),
	)
	return nil
}
