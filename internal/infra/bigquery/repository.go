package bigquery

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const (
	defaultDatasetID = "echeque"

	documentsTable = "cheque_documents"
	runsTable      = "processing_runs"
	outputsTable   = "model_outputs"
	resultsTable   = "cheque_results"

	parserType    = "GEMINI_VISION"
	parserVersion = "v1"

	// maxErrorMessageLen caps what gets written into processing_runs.
	maxErrorMessageLen = 2000
)

// Repository provides the audit-trail database operations the pipeline and
// API need. The interface exists so tests can swap in mocks.
type Repository interface {
	InsertDocument(ctx context.Context, row *ChequeDocumentRow) error
	ListDocuments(ctx context.Context) ([]*ChequeDocumentRow, error)

	StartProcessingRun(ctx context.Context, documentID string) (string, error)
	MarkProcessingRunFailed(ctx context.Context, runID string, runErr error)
	MarkProcessingRunSucceeded(ctx context.Context, runID string) error

	InsertModelOutput(ctx context.Context, row *ModelOutputRow) error
	InsertResult(ctx context.Context, row *ChequeResultRow) error
	ListResults(ctx context.Context, limit int) ([]*ChequeResultRow, error)

	Close() error
}

// ChequeRepository is the BigQuery-backed Repository. It holds a shared
// client so each operation does not open a new connection.
type ChequeRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewChequeRepository creates a repository against the project in
// GCP_PROJECT. The dataset defaults to "echeque" and can be overridden with
// BQ_DATASET.
func NewChequeRepository(ctx context.Context) (*ChequeRepository, error) {
	projectID := os.Getenv("GCP_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("NewChequeRepository: GCP_PROJECT is not set")
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewChequeRepository: creating client: %w", err)
	}

	dataset := os.Getenv("BQ_DATASET")
	if dataset == "" {
		dataset = defaultDatasetID
	}

	return &ChequeRepository{client: client, dataset: dataset}, nil
}

// Close closes the underlying BigQuery client.
func (r *ChequeRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertDocument inserts a row into cheque_documents.
func (r *ChequeRepository) InsertDocument(ctx context.Context, row *ChequeDocumentRow) error {
	inserter := r.client.Dataset(r.dataset).Table(documentsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}

// StartProcessingRun inserts a processing run with status=RUNNING and returns
// its ID.
func (r *ChequeRepository) StartProcessingRun(ctx context.Context, documentID string) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			processing_run_id,
			document_id,
			started_ts,
			parser_type,
			parser_version,
			status
		)
		VALUES (
			@processing_run_id,
			@document_id,
			@started_ts,
			@parser_type,
			@parser_version,
			@status
		)
	`, r.dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "processing_run_id", Value: runID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "parser_type", Value: parserType},
		{Name: "parser_version", Value: parserVersion},
		{Name: "status", Value: "RUNNING"},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return "", fmt.Errorf("StartProcessingRun: %w", err)
	}
	return runID, nil
}

// MarkProcessingRunFailed sets status=FAILED with the (truncated) error
// message. Failures here are logged by callers, not propagated; the original
// pipeline error must win.
func (r *ChequeRepository) MarkProcessingRunFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessageLen {
			errMsg = errMsg[:maxErrorMessageLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE processing_run_id = @processing_run_id
	`, r.dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "processing_run_id", Value: runID},
	}

	_ = r.runAndWait(ctx, q)
}

// MarkProcessingRunSucceeded sets status=SUCCESS on a processing run.
func (r *ChequeRepository) MarkProcessingRunSucceeded(ctx context.Context, runID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = ""
		WHERE processing_run_id = @processing_run_id
	`, r.dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "processing_run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return fmt.Errorf("MarkProcessingRunSucceeded: %w", err)
	}
	return nil
}

// InsertModelOutput inserts the raw model response for a run.
func (r *ChequeRepository) InsertModelOutput(ctx context.Context, row *ModelOutputRow) error {
	if row.OutputID == "" {
		row.OutputID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	inserter := r.client.Dataset(r.dataset).Table(outputsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertModelOutput: inserting row: %w", err)
	}
	return nil
}

// InsertResult inserts the classified outcome for a run.
func (r *ChequeRepository) InsertResult(ctx context.Context, row *ChequeResultRow) error {
	if row.ProcessedTS.IsZero() {
		row.ProcessedTS = time.Now()
	}

	inserter := r.client.Dataset(r.dataset).Table(resultsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertResult: inserting row: %w", err)
	}
	return nil
}

func (r *ChequeRepository) runAndWait(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

var _ Repository = (*ChequeRepository)(nil)
