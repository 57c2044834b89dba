package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/echeque-clerk/internal/alias"
	"github.com/dvloznov/echeque-clerk/internal/gcsuploader"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/logger"
	"github.com/dvloznov/echeque-clerk/internal/oracle"
	"github.com/dvloznov/echeque-clerk/internal/pipeline"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "upload":
		runUpload(log)
	case "alias":
		runAlias(log)
	case "results":
		runResults(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("E-Cheque Clerk CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process   Extract and classify an e-cheque PDF from GCS")
	fmt.Println("  upload    Upload a cheque PDF to GCS")
	fmt.Println("  alias     Manage payee aliases (add | list | remove)")
	fmt.Println("  results   Show recent classification results")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the cheque PDF")
	aliasFile := fs.String("aliases", envOr("ALIAS_FILE", "payee_mappings.csv"), "Path to the payee alias CSV")
	model := fs.String("model", envOr("GEMINI_MODEL", oracle.DefaultModelName), "Gemini model used for extraction")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

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

	log.Info().Str("gcs_uri", *gcsURI).Msg("Starting cheque processing")

	state, err := pipeline.ProcessChequeFromGCS(ctx, deps, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	res := state.Result
	fmt.Println("\n=== Classification ===")
	fmt.Printf("Payee:          %s\n", res.ResolvedPayee)
	fmt.Printf("Payer:          %s\n", state.Record.Payer)
	fmt.Printf("Key Identifier: %s\n", state.Record.KeyIdentifier)
	fmt.Printf("Currency:       %s\n", res.Currency)
	fmt.Printf("Trailer Fee:    %t\n", res.IsTrailerFee)
	fmt.Printf("Management Fee: %t\n", res.IsManagementFee)
	fmt.Printf("Next Step:      %s\n", res.NextStep)
	if res.NextStepMismatch {
		fmt.Printf("  (model suggested: %s)\n", res.OracleNextStep)
	}
	fmt.Printf("Filename:       %s\n", state.Filename)
	fmt.Printf("Renamed Copy:   %s\n", state.RenamedURI)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local PDF file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read file")
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadBytes(ctx, *bucketName, *objectName, "application/pdf", data); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runAlias(log zerolog.Logger) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: cli alias <add|list|remove> [options]")
		os.Exit(1)
	}

	sub := os.Args[2]
	fs := flag.NewFlagSet("alias "+sub, flag.ExitOnError)
	aliasFile := fs.String("aliases", envOr("ALIAS_FILE", "payee_mappings.csv"), "Path to the payee alias CSV")
	fullName := fs.String("full-name", "", "Payee full name")
	shortForm := fs.String("short-form", "", "Short form used in filenames")
	fs.Parse(os.Args[3:])

	store, err := alias.Open(*aliasFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", *aliasFile).Msg("Failed to load alias store")
	}

	switch sub {
	case "add":
		if *fullName == "" || *shortForm == "" {
			log.Fatal().Msg("Usage: cli alias add -full-name NAME -short-form SHORT")
		}
		if err := store.Add(*fullName, *shortForm); err != nil {
			log.Fatal().Err(err).Msg("Failed to add alias")
		}
		fmt.Printf("Added alias: %q -> %q\n", *fullName, *shortForm)

	case "list":
		entries := store.List()
		if len(entries) == 0 {
			fmt.Println("No aliases configured.")
			return
		}
		fmt.Printf("%-50s %s\n", "Full Name", "Short Form")
		for _, e := range entries {
			fmt.Printf("%-50s %s\n", e.FullName, e.ShortForm)
		}

	case "remove":
		if *fullName == "" {
			log.Fatal().Msg("Usage: cli alias remove -full-name NAME")
		}
		if err := store.Remove(*fullName); err != nil {
			log.Fatal().Err(err).Msg("Failed to remove alias")
		}
		fmt.Printf("Removed alias: %q\n", *fullName)

	default:
		fmt.Fprintf(os.Stderr, "Unknown alias command: %s\n", sub)
		os.Exit(1)
	}
}

func runResults(log zerolog.Logger) {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of results to show")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	repo, err := infra.NewChequeRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cheque repository")
	}
	defer repo.Close()

	results, err := repo.ListResults(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list results")
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("%-38s %-8s %-24s %s\n", "Document", "Currency", "Next Step", "Filename")
	for _, r := range results {
		fmt.Printf("%-38s %-8s %-24s %s\n", r.DocumentID, r.Currency, r.NextStep, r.Filename)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
