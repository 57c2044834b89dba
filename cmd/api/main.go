package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/echeque-clerk/internal/alias"
	"github.com/dvloznov/echeque-clerk/internal/api/handlers"
	"github.com/dvloznov/echeque-clerk/internal/api/middleware"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/jobs"
	"github.com/dvloznov/echeque-clerk/internal/jobs/inmemory"
	"github.com/dvloznov/echeque-clerk/internal/logger"
	"github.com/dvloznov/echeque-clerk/internal/oracle"
	"github.com/dvloznov/echeque-clerk/internal/pipeline"
)

func main() {
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		bucket    = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for cheque uploads (or set GCS_BUCKET)")
		aliasFile = flag.String("aliases", envOr("ALIAS_FILE", "payee_mappings.csv"), "Path to the payee alias CSV (or set ALIAS_FILE)")
		model     = flag.String("model", envOr("GEMINI_MODEL", oracle.DefaultModelName), "Gemini model used for extraction")
	)
	flag.Parse()

	log := logger.New()

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - cheque uploads will be disabled")
	}

	ctx := context.Background()

	repo, err := infra.NewChequeRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cheque repository")
	}
	defer repo.Close()

	aliases, err := alias.Open(*aliasFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", *aliasFile).Msg("Failed to load alias store")
	}
	log.Info().Int("aliases", aliases.Len()).Str("path", *aliasFile).Msg("Alias store loaded")

	deps := pipeline.Deps{
		Repo:    repo,
		Storage: pipeline.GCSStorage{},
		Parser:  oracle.NewGeminiParser(oracle.WithModel(*model)),
		Aliases: aliases,
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		chequeJob, ok := job.(*jobs.ProcessChequeJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", chequeJob.JobID).
			Str("gcs_uri", chequeJob.GCSURI).
			Msg("Processing cheque job")

		state, err := pipeline.ProcessChequeFromGCS(ctx, deps, chequeJob.GCSURI)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", chequeJob.JobID).
				Str("gcs_uri", chequeJob.GCSURI).
				Msg("Pipeline execution failed")
			return err
		}

		chequeJob.DocumentID = state.DocumentID
		chequeJob.Filename = state.Filename

		log.Info().
			Str("job_id", chequeJob.JobID).
			Str("document_id", state.DocumentID).
			Str("filename", state.Filename).
			Str("next_step", state.Result.NextStep).
			Msg("Cheque processed")

		return nil
	}

	go func() {
		log.Info().Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	chequesHandler := handlers.NewChequesHandler(repo, jobQueue, *bucket, log)
	resultsHandler := handlers.NewResultsHandler(repo, log)
	aliasesHandler := handlers.NewAliasesHandler(aliases, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/cheques", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			chequesHandler.ListDocuments(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/cheques/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			chequesHandler.UploadCheque(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/cheques/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chequesHandler.EnqueueProcessing(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/results", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			resultsHandler.ListResults(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/aliases", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			aliasesHandler.ListAliases(w, r)
		case http.MethodPost:
			aliasesHandler.AddAlias(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/aliases/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		raw := strings.TrimPrefix(r.URL.Path, "/api/aliases/")
		fullName, err := url.PathUnescape(raw)
		if err != nil || fullName == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Alias full name is required")
			return
		}
		aliasesHandler.RemoveAlias(w, r, fullName)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
