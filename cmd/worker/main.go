package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/echeque-clerk/internal/alias"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/jobs"
	"github.com/dvloznov/echeque-clerk/internal/jobs/inmemory"
	"github.com/dvloznov/echeque-clerk/internal/logger"
	"github.com/dvloznov/echeque-clerk/internal/oracle"
	"github.com/dvloznov/echeque-clerk/internal/pipeline"
)

func main() {
	var (
		aliasFile = flag.String("aliases", envOr("ALIAS_FILE", "payee_mappings.csv"), "Path to the payee alias CSV (or set ALIAS_FILE)")
		model     = flag.String("model", envOr("GEMINI_MODEL", oracle.DefaultModelName), "Gemini model used for extraction")
	)
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := infra.NewChequeRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cheque repository")
	}
	defer repo.Close()

	aliases, err := alias.Open(*aliasFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", *aliasFile).Msg("Failed to load alias store")
	}

	deps := pipeline.Deps{
		Repo:    repo,
		Storage: pipeline.GCSStorage{},
		Parser:  oracle.NewGeminiParser(oracle.WithModel(*model)),
		Aliases: aliases,
	}

	// In production the queue would be Cloud Tasks or Pub/Sub behind the
	// same interfaces.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
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
			Msg("Pipeline execution completed successfully")

		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
