package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/store"
)

var servePort int

// resolutionRunner is the slice of the pipeline the HTTP handlers use. The
// handler creates the job itself so the id it returns is the one the runner
// resolves.
type resolutionRunner interface {
	RunJob(ctx context.Context, job *model.Job) error
}

// jobStore is the slice of the store the HTTP handlers use.
type jobStore interface {
	CreateJob(ctx context.Context, in model.CompanyInput) (*model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]model.Job, error)
}

// newRouter builds the HTTP API. Async resolutions run against serverCtx so
// requests return immediately and shutdown cancels in-flight work.
func newRouter(serverCtx context.Context, st jobStore, runner resolutionRunner) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/jobs", func(w http.ResponseWriter, req *http.Request) {
		var in model.CompanyInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if in.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}

		job, err := st.CreateJob(req.Context(), in)
		if err != nil {
			zap.L().Error("create job failed", zap.String("company", in.Name), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create job failed"})
			return
		}

		go func() {
			if err := runner.RunJob(serverCtx, job); err != nil {
				zap.L().Error("async resolution failed",
					zap.String("company", in.Name),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"job_id": job.ID,
		})
	})

	r.Get("/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
		job, err := st.GetJob(req.Context(), chi.URLParam(req, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
			return
		}
		writeJSON(w, http.StatusOK, job)
	})

	r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.JobFilter{Status: model.JobStatus(req.URL.Query().Get("status"))}
		if v := req.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		jobs, err := st.ListJobs(req.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resolution requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := newRouter(ctx, env.Store, env.Pipeline)

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
			srv.Shutdown(ctx)
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
