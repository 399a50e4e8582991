package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bazarlab/adextract/internal/engine"
	"github.com/bazarlab/adextract/internal/feedback"
	"github.com/bazarlab/adextract/internal/model"
	"github.com/bazarlab/adextract/internal/patterns"
	"github.com/bazarlab/adextract/internal/resolve"
	"github.com/bazarlab/adextract/internal/stats"
	"github.com/bazarlab/adextract/internal/store"
	"github.com/bazarlab/adextract/pkg/nerclient"
)

// appEnv bundles the wired-up collaborators shared by the commands.
type appEnv struct {
	engine   *engine.Engine
	training feedback.TrainingQueue
	manual   feedback.TrainingQueue
	review   feedback.ReviewQueue
	tracker  *stats.Tracker
	store    store.Store
}

func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	training, err := feedback.OpenTrainingQueue(cfg.Feedback.TrainingQueuePath)
	if err != nil {
		st.Close()
		return nil, err
	}
	manual, err := feedback.OpenTrainingQueue(cfg.Feedback.ManualReviewLogPath)
	if err != nil {
		st.Close()
		return nil, err
	}
	review, err := feedback.OpenReviewQueue(cfg.Feedback.ReviewQueuePath)
	if err != nil {
		st.Close()
		return nil, err
	}
	tracker, err := stats.Load(cfg.Feedback.StatsPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	extractor, err := patterns.New(extractorConfig())
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []engine.Option{engine.WithStore(st)}
	if cfg.Model.Enabled {
		client := nerclient.NewClient(cfg.Model.BaseURL)
		opts = append(opts, engine.WithModel(&throttledModel{
			inner:   engine.NewNERModel(client),
			limiter: rate.NewLimiter(rate.Limit(cfg.Batch.ModelRatePerSec), 1),
		}))
	} else {
		zap.L().Info("learned model disabled, running pattern-only")
	}

	eng := engine.New(
		extractor,
		resolve.New(resolve.Policy{PreferML: cfg.Resolve.PreferML()}),
		feedback.NewRouter(training, manual, review, cfg.Feedback.ReviewTruncateLen),
		tracker,
		opts...,
	)

	return &appEnv{
		engine:   eng,
		training: training,
		manual:   manual,
		review:   review,
		tracker:  tracker,
		store:    st,
	}, nil
}

func (e *appEnv) Close() {
	if err := e.tracker.Save(cfg.Feedback.StatsPath); err != nil {
		zap.L().Warn("failed to save stats snapshot", zap.Error(err))
	}
	if err := e.store.Close(); err != nil {
		zap.L().Warn("failed to close store", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func extractorConfig() patterns.Config {
	pc := patterns.Config{
		YearMin:  cfg.Extract.YearMin,
		YearMax:  cfg.Extract.YearMax,
		PowerMin: cfg.Extract.PowerMin,
		PowerMax: cfg.Extract.PowerMax,
	}
	if pc.YearMax <= 0 {
		pc.YearMax = time.Now().Year() + 1
	}
	return pc
}

// throttledModel rate-limits calls to the external model service so a
// large batch does not overload it.
type throttledModel struct {
	inner   engine.ModelExtractor
	limiter *rate.Limiter
}

func (m *throttledModel) Extract(ctx context.Context, text string) (model.RawFields, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return model.RawFields{}, eris.Wrap(err, "model rate limit wait")
	}
	return m.inner.Extract(ctx, text)
}
