package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/echeque-clerk/internal/cheque"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/pipeline"
)

// mockRepository records every write so tests can assert on the audit trail.
type mockRepository struct {
	documents  []*infra.ChequeDocumentRow
	outputs    []*infra.ModelOutputRow
	results    []*infra.ChequeResultRow
	runStatus  string
	runErr     error
	failInsert error
}

func (m *mockRepository) InsertDocument(ctx context.Context, row *infra.ChequeDocumentRow) error {
	m.documents = append(m.documents, row)
	return nil
}

func (m *mockRepository) ListDocuments(ctx context.Context) ([]*infra.ChequeDocumentRow, error) {
	return m.documents, nil
}

func (m *mockRepository) StartProcessingRun(ctx context.Context, documentID string) (string, error) {
	m.runStatus = "RUNNING"
	return "test-run-id", nil
}

func (m *mockRepository) MarkProcessingRunFailed(ctx context.Context, runID string, runErr error) {
	m.runStatus = "FAILED"
	m.runErr = runErr
}

func (m *mockRepository) MarkProcessingRunSucceeded(ctx context.Context, runID string) error {
	m.runStatus = "SUCCESS"
	return nil
}

func (m *mockRepository) InsertModelOutput(ctx context.Context, row *infra.ModelOutputRow) error {
	m.outputs = append(m.outputs, row)
	return nil
}

func (m *mockRepository) InsertResult(ctx context.Context, row *infra.ChequeResultRow) error {
	if m.failInsert != nil {
		return m.failInsert
	}
	m.results = append(m.results, row)
	return nil
}

func (m *mockRepository) ListResults(ctx context.Context, limit int) ([]*infra.ChequeResultRow, error) {
	return m.results, nil
}

func (m *mockRepository) Close() error { return nil }

// mockStorage serves a fixed PDF and records the renamed upload.
type mockStorage struct {
	uploadedName string
	uploadedData []byte
}

func (m *mockStorage) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return []byte("%PDF-1.4 mock"), nil
}

func (m *mockStorage) UploadRenamedCopy(ctx context.Context, sourceURI, filename string, data []byte) (string, error) {
	m.uploadedName = filename
	m.uploadedData = data
	return "gs://cheques/processed/" + filename, nil
}

func (m *mockStorage) ExtractFilenameFromGCSURI(uri string) string {
	return "cheque.pdf"
}

// mockParser returns a canned model response.
type mockParser struct {
	response string
	err      error
}

func (m *mockParser) ExtractCheque(ctx context.Context, pdfBytes []byte) (string, error) {
	return m.response, m.err
}

// mockAliases resolves from a fixed table.
type mockAliases map[string]string

func (m mockAliases) Resolve(rawPayee string) string {
	if short, ok := m[cheque.CanonicalName(rawPayee)]; ok {
		return short
	}
	return rawPayee
}

const modelResponse = "```json\n" + `{
	"bank_name": "HSBC",
	"date": "2025-03-14",
	"payee": "Oreana Financial Services Limited",
	"payer": "WEALTH MANAGEMENT CUBE LIMITED",
	"amount_numerical": "66969.77",
	"cheque_number": "123456 789",
	"key_identifier": "123456",
	"currency": "HK$",
	"remarks": "management fee due",
	"is_trailer_fee": false,
	"is_management_fee": true,
	"next_step": "Process Payment"
}` + "\n```"

func testDeps(repo *mockRepository, storage *mockStorage, parser *mockParser) pipeline.Deps {
	return pipeline.Deps{
		Repo:    repo,
		Storage: storage,
		Parser:  parser,
		Aliases: mockAliases{"OREANA FINANCIAL SERVICES LIMITED": "OFS"},
	}
}

func TestProcessChequeFromGCS(t *testing.T) {
	repo := &mockRepository{}
	storage := &mockStorage{}
	parser := &mockParser{response: modelResponse}

	state, err := pipeline.ProcessChequeFromGCS(context.Background(), testDeps(repo, storage, parser), "gs://cheques/inbox/cheque.pdf")
	if err != nil {
		t.Fatalf("ProcessChequeFromGCS failed: %v", err)
	}

	if state.Filename != "123456 WMC-OFS MF.pdf" {
		t.Errorf("Filename = %q, want %q", state.Filename, "123456 WMC-OFS MF.pdf")
	}
	if state.Result.ResolvedPayee != "OFS" {
		t.Errorf("ResolvedPayee = %q, want OFS", state.Result.ResolvedPayee)
	}
	if state.Result.Currency != "HKD" {
		t.Errorf("Currency = %q, want HKD", state.Result.Currency)
	}
	if state.Result.NextStep != cheque.NextStepProcessPayment {
		t.Errorf("NextStep = %q, want %q", state.Result.NextStep, cheque.NextStepProcessPayment)
	}
	if state.Result.NextStepMismatch {
		t.Error("NextStepMismatch set although oracle and local routing agree")
	}

	if repo.runStatus != "SUCCESS" {
		t.Errorf("run status = %q, want SUCCESS", repo.runStatus)
	}
	if len(repo.documents) != 1 || len(repo.outputs) != 1 || len(repo.results) != 1 {
		t.Fatalf("audit rows = (%d docs, %d outputs, %d results), want 1 each",
			len(repo.documents), len(repo.outputs), len(repo.results))
	}
	if repo.results[0].Filename != state.Filename {
		t.Errorf("result row filename = %q, want %q", repo.results[0].Filename, state.Filename)
	}
	if repo.outputs[0].RawResponse != modelResponse {
		t.Error("raw model response not preserved in model_outputs")
	}
	if storage.uploadedName != state.Filename {
		t.Errorf("renamed copy uploaded as %q, want %q", storage.uploadedName, state.Filename)
	}
}

func TestProcessChequeFromGCS_OracleMismatchIsFlagged(t *testing.T) {
	mismatched := strings.Replace(modelResponse, "Process Payment", "Flag for Manual Review", 1)

	repo := &mockRepository{}
	state, err := pipeline.ProcessChequeFromGCS(context.Background(),
		testDeps(repo, &mockStorage{}, &mockParser{response: mismatched}), "gs://cheques/inbox/cheque.pdf")
	if err != nil {
		t.Fatalf("ProcessChequeFromGCS failed: %v", err)
	}

	if !state.Result.NextStepMismatch {
		t.Error("expected NextStepMismatch when oracle routing disagrees")
	}
	// Local routing wins over the oracle's copy.
	if state.Result.NextStep != cheque.NextStepProcessPayment {
		t.Errorf("NextStep = %q, want local verdict %q", state.Result.NextStep, cheque.NextStepProcessPayment)
	}
	if repo.results[0].OracleNextStep != cheque.NextStepManualReview {
		t.Errorf("OracleNextStep = %q, want the oracle value preserved", repo.results[0].OracleNextStep)
	}
}

func TestProcessChequeFromGCS_MalformedResponseFailsRun(t *testing.T) {
	repo := &mockRepository{}
	_, err := pipeline.ProcessChequeFromGCS(context.Background(),
		testDeps(repo, &mockStorage{}, &mockParser{response: "I could not read this cheque."}), "gs://cheques/inbox/cheque.pdf")

	if !errors.Is(err, cheque.ErrMalformedJSON) {
		t.Fatalf("err = %v, want ErrMalformedJSON", err)
	}
	if repo.runStatus != "FAILED" {
		t.Errorf("run status = %q, want FAILED", repo.runStatus)
	}
	// The raw response was stored before validation, so it stays inspectable.
	if len(repo.outputs) != 1 {
		t.Errorf("model outputs = %d, want 1", len(repo.outputs))
	}
	if len(repo.results) != 0 {
		t.Errorf("results = %d, want 0 after validation failure", len(repo.results))
	}
}

func TestProcessChequeFromGCS_ParserErrorFailsRun(t *testing.T) {
	repo := &mockRepository{}
	_, err := pipeline.ProcessChequeFromGCS(context.Background(),
		testDeps(repo, &mockStorage{}, &mockParser{err: errors.New("model unavailable")}), "gs://cheques/inbox/cheque.pdf")

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if repo.runStatus != "FAILED" {
		t.Errorf("run status = %q, want FAILED", repo.runStatus)
	}
}

func TestProcessChequeFromGCS_UnmappedPayeePassesThrough(t *testing.T) {
	response := strings.Replace(modelResponse, "Oreana Financial Services Limited", "Acme Corp", 1)
	response = strings.Replace(response, `"is_management_fee": true`, `"is_management_fee": false`, 1)

	repo := &mockRepository{}
	state, err := pipeline.ProcessChequeFromGCS(context.Background(),
		testDeps(repo, &mockStorage{}, &mockParser{response: response}), "gs://cheques/inbox/cheque.pdf")
	if err != nil {
		t.Fatalf("ProcessChequeFromGCS failed: %v", err)
	}

	if state.Result.ResolvedPayee != "Acme Corp" {
		t.Errorf("ResolvedPayee = %q, want pass-through", state.Result.ResolvedPayee)
	}
	if state.Filename != "123456 WMC-Acme Corp.pdf" {
		t.Errorf("Filename = %q", state.Filename)
	}
}
