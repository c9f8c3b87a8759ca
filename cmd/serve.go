package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/dataset"
	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/pipeline"
	"github.com/sells-group/validate-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		batch, err := buildBatch(st, zap.L())
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), store.RunFilter{
				Status: model.RunStatus(req.URL.Query().Get("status")),
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/api/runs/{id}/verdicts", func(w http.ResponseWriter, req *http.Request) {
			verdicts, err := st.ListVerdicts(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, verdicts)
		})

		r.Post("/api/validate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Dataset     string `json:"dataset"`
				Mappings    string `json:"mappings"`
				URLTemplate string `json:"url_template"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Dataset == "" || body.Mappings == "" || body.URLTemplate == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dataset, mappings, and url_template are required"})
				return
			}

			records, err := dataset.Load(body.Dataset)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			mappings, err := dataset.LoadMappings(body.Mappings)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}

			run, err := st.CreateRun(req.Context(), body.Dataset, body.URLTemplate)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}

			// The run executes against the server context so an in-flight
			// request disconnect does not cancel it.
			go func() {
				if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
					zap.L().Error("serve: mark run running", zap.String("run_id", run.ID), zap.Error(err))
					return
				}
				start := time.Now()
				verdicts := batch.Run(ctx, run.ID, body.URLTemplate, records, mappings)
				result := pipeline.Summarize(verdicts, time.Since(start).Milliseconds())
				if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
					zap.L().Error("serve: save run result", zap.String("run_id", run.ID), zap.Error(err))
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"run_id": run.ID,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
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
