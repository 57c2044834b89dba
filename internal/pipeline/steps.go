package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/echeque-clerk/internal/cheque"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/logger"
	"github.com/dvloznov/echeque-clerk/internal/naming"
)

// Step is a single stage of the processing pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps for one cheque.
type State struct {
	GCSURI          string
	DocumentID      string
	ProcessingRunID string
	PDFBytes        []byte
	RawResponse     string
	Record          *cheque.ExtractionRecord
	Result          cheque.ClassificationResult
	Filename        string
	RenamedURI      string
}

// Step 1: CreateDocumentStep records the source file in cheque_documents.
type CreateDocumentStep struct{ deps Deps }

func (s *CreateDocumentStep) Execute(ctx context.Context, state *State) error {
	state.DocumentID = uuid.NewString()

	row := &infra.ChequeDocumentRow{
		DocumentID:       state.DocumentID,
		GCSURI:           state.GCSURI,
		UploadTS:         time.Now(),
		ProcessingStatus: "PENDING",
		OriginalFilename: s.deps.Storage.ExtractFilenameFromGCSURI(state.GCSURI),
		FileMimeType:     "application/pdf",
	}
	if err := s.deps.Repo.InsertDocument(ctx, row); err != nil {
		return fmt.Errorf("CreateDocumentStep: %w", err)
	}
	return nil
}

// Step 2: StartRunStep opens a processing run (status=RUNNING).
type StartRunStep struct{ deps Deps }

func (s *StartRunStep) Execute(ctx context.Context, state *State) error {
	runID, err := s.deps.Repo.StartProcessingRun(ctx, state.DocumentID)
	if err != nil {
		return err
	}
	state.ProcessingRunID = runID
	return nil
}

// Step 3: FetchPDFStep downloads the cheque PDF from GCS.
type FetchPDFStep struct{ deps Deps }

func (s *FetchPDFStep) Execute(ctx context.Context, state *State) error {
	pdfBytes, err := s.deps.Storage.FetchFromGCS(ctx, state.GCSURI)
	if err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return err
	}
	state.PDFBytes = pdfBytes
	return nil
}

// Step 4: ExtractStep calls the vision model with the PDF.
type ExtractStep struct{ deps Deps }

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	raw, err := s.deps.Parser.ExtractCheque(ctx, state.PDFBytes)
	if err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return err
	}
	state.RawResponse = raw
	return nil
}

// Step 5: StoreModelOutputStep keeps the raw response for audit. It runs
// before validation so a malformed response stays inspectable.
type StoreModelOutputStep struct{ deps Deps }

func (s *StoreModelOutputStep) Execute(ctx context.Context, state *State) error {
	row := &infra.ModelOutputRow{
		ProcessingRunID: state.ProcessingRunID,
		DocumentID:      state.DocumentID,
		RawResponse:     state.RawResponse,
	}
	if err := s.deps.Repo.InsertModelOutput(ctx, row); err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return err
	}
	return nil
}

// Step 6: ValidateStep parses the raw response into an ExtractionRecord.
// Validation failure aborts the run; no partial classification happens.
type ValidateStep struct{ deps Deps }

func (s *ValidateStep) Execute(ctx context.Context, state *State) error {
	rec, err := cheque.Validate(state.RawResponse)
	if err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return fmt.Errorf("ValidateStep: %w", err)
	}
	state.Record = rec
	return nil
}

// Step 7: ClassifyStep runs the rule layer and resolves the payee. The
// model's next_step is never trusted; a mismatch with the local verdict is
// logged for audit.
type ClassifyStep struct{ deps Deps }

func (s *ClassifyStep) Execute(ctx context.Context, state *State) error {
	state.Result = cheque.Classify(state.Record)
	state.Result.ResolvedPayee = s.deps.Aliases.Resolve(state.Record.Payee)

	if state.Result.NextStepMismatch {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("document_id", state.DocumentID).
			Str("oracle_next_step", state.Result.OracleNextStep).
			Str("next_step", state.Result.NextStep).
			Msg("Model next_step disagrees with local routing")
	}
	return nil
}

// Step 8: SynthesizeFilenameStep derives the canonical output filename.
type SynthesizeFilenameStep struct{ deps Deps }

func (s *SynthesizeFilenameStep) Execute(ctx context.Context, state *State) error {
	state.Filename = naming.Synthesize(
		state.Record.KeyIdentifier,
		state.Record.Payer,
		state.Result.ResolvedPayee,
		state.Result.Currency,
		state.Result.IsTrailerFee,
		state.Result.IsManagementFee,
	)
	return nil
}

// Step 9: UploadRenamedCopyStep writes the cheque bytes back to the bucket
// under the synthesized name.
type UploadRenamedCopyStep struct{ deps Deps }

func (s *UploadRenamedCopyStep) Execute(ctx context.Context, state *State) error {
	uri, err := s.deps.Storage.UploadRenamedCopy(ctx, state.GCSURI, state.Filename, state.PDFBytes)
	if err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return err
	}
	state.RenamedURI = uri
	return nil
}

// Step 10: InsertResultStep records the classified outcome.
type InsertResultStep struct{ deps Deps }

func (s *InsertResultStep) Execute(ctx context.Context, state *State) error {
	rec, res := state.Record, state.Result

	row := &infra.ChequeResultRow{
		DocumentID:       state.DocumentID,
		ProcessingRunID:  state.ProcessingRunID,
		BankName:         rec.BankName,
		ChequeDate:       infra.ParseChequeDate(rec.Date),
		Payee:            rec.Payee,
		ResolvedPayee:    res.ResolvedPayee,
		Payer:            rec.Payer,
		AmountNumerical:  rec.AmountNumerical,
		ChequeNumber:     rec.ChequeNumber,
		KeyIdentifier:    rec.KeyIdentifier,
		CurrencyRaw:      rec.Currency,
		Currency:         res.Currency,
		Remarks:          rec.Remarks,
		IsTrailerFee:     res.IsTrailerFee,
		IsManagementFee:  res.IsManagementFee,
		NextStep:         res.NextStep,
		OracleNextStep:   res.OracleNextStep,
		NextStepMismatch: res.NextStepMismatch,
		Filename:         state.Filename,
	}
	if err := s.deps.Repo.InsertResult(ctx, row); err != nil {
		s.deps.Repo.MarkProcessingRunFailed(ctx, state.ProcessingRunID, err)
		return err
	}
	return nil
}

// Step 11: MarkSuccessStep closes the processing run.
type MarkSuccessStep struct{ deps Deps }

func (s *MarkSuccessStep) Execute(ctx context.Context, state *State) error {
	return s.deps.Repo.MarkProcessingRunSucceeded(ctx, state.ProcessingRunID)
}
