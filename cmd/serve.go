package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := newServeMux(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.tracker.Snapshot())
	})

	r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
		var body model.Listing
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.ID == "" || body.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and text are required"})
			return
		}

		record, err := env.engine.Process(req.Context(), body)
		if err != nil {
			zap.L().Error("extraction failed",
				zap.String("listing_id", body.ID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "extraction failed"})
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
