// Package bigquery holds the BigQuery rows and repository for the e-cheque
// audit trail: source documents, processing runs, raw model outputs and the
// classified results.
package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// ChequeDocumentRow is one uploaded e-cheque PDF.
type ChequeDocumentRow struct {
	DocumentID string `bigquery:"document_id"` // REQUIRED
	GCSURI     string `bigquery:"gcs_uri"`     // REQUIRED

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	ProcessingStatus string `bigquery:"processing_status"` // NULLABLE

	OriginalFilename string `bigquery:"original_filename"` // NULLABLE
	FileMimeType     string `bigquery:"file_mime_type"`    // NULLABLE
}

// ProcessingRunRow tracks one pipeline execution over a document.
type ProcessingRunRow struct {
	ProcessingRunID string `bigquery:"processing_run_id"`
	DocumentID      string `bigquery:"document_id"`

	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	ParserType    string `bigquery:"parser_type"`    // e.g. GEMINI_VISION
	ParserVersion string `bigquery:"parser_version"` // e.g. v1

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`
}

// ModelOutputRow keeps the raw model response for a run so a parse failure
// stays inspectable for manual correction.
type ModelOutputRow struct {
	OutputID        string    `bigquery:"output_id"`
	ProcessingRunID string    `bigquery:"processing_run_id"`
	DocumentID      string    `bigquery:"document_id"`
	RawResponse     string    `bigquery:"raw_response"`
	CreatedTS       time.Time `bigquery:"created_ts"`
}

// ChequeResultRow is the classified outcome for one document: the validated
// fields plus everything the rule layer derived.
type ChequeResultRow struct {
	DocumentID      string `bigquery:"document_id"`
	ProcessingRunID string `bigquery:"processing_run_id"`

	BankName   string            `bigquery:"bank_name"`
	ChequeDate bigquery.NullDate `bigquery:"cheque_date"`

	Payee         string `bigquery:"payee"`
	ResolvedPayee string `bigquery:"resolved_payee"`
	Payer         string `bigquery:"payer"`

	AmountNumerical string `bigquery:"amount_numerical"`
	ChequeNumber    string `bigquery:"cheque_number"`
	KeyIdentifier   string `bigquery:"key_identifier"`

	CurrencyRaw string `bigquery:"currency_raw"`
	Currency    string `bigquery:"currency"`
	Remarks     string `bigquery:"remarks"`

	IsTrailerFee    bool `bigquery:"is_trailer_fee"`
	IsManagementFee bool `bigquery:"is_management_fee"`

	NextStep         string `bigquery:"next_step"`
	OracleNextStep   string `bigquery:"oracle_next_step"`
	NextStepMismatch bool   `bigquery:"next_step_mismatch"`

	Filename    string    `bigquery:"filename"`
	ProcessedTS time.Time `bigquery:"processed_ts"`
}

// ParseChequeDate converts an ISO date string from the record into a nullable
// BigQuery date. An empty or malformed date stays NULL; the date is optional.
func ParseChequeDate(iso string) bigquery.NullDate {
	if iso == "" {
		return bigquery.NullDate{}
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: civil.DateOf(t), Valid: true}
}
