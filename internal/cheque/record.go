package cheque

// ExtractionRecord is the validated field set the vision model extracts from a
// single e-cheque. Only the fields listed in requiredFields are guaranteed to
// be present; everything else defaults to its zero value.
type ExtractionRecord struct {
	BankName        string `json:"bank_name"`
	Date            string `json:"date"` // YYYY-MM-DD
	Payee           string `json:"payee"`
	Payer           string `json:"payer"`
	AmountNumerical string `json:"amount_numerical"`
	AmountWords     string `json:"amount_words"`
	ChequeNumber    string `json:"cheque_number"`

	// KeyIdentifier is the first six characters of the cheque number, used as
	// the stable short reference embedded in filenames.
	KeyIdentifier string `json:"key_identifier"`

	// Currency as extracted, before normalization.
	Currency string `json:"currency"`

	Remarks string `json:"remarks"`

	IsTrailerFee    bool `json:"is_trailer_fee"`
	IsManagementFee bool `json:"is_management_fee"`

	// NextStep as reported by the model. Routing is recomputed locally and
	// this value is kept only for mismatch auditing.
	NextStep string `json:"next_step"`
}

// ClassificationResult is the derived verdict for one record. It is computed
// fresh per record and never cached.
type ClassificationResult struct {
	IsTrailerFee    bool   `json:"is_trailer_fee"`
	IsManagementFee bool   `json:"is_management_fee"`
	NextStep        string `json:"next_step"`
	Currency        string `json:"currency"`
	ResolvedPayee   string `json:"resolved_payee"`

	// OracleNextStep is the model-supplied routing verdict; NextStepMismatch
	// is set when it disagrees with the locally computed NextStep.
	OracleNextStep   string `json:"oracle_next_step,omitempty"`
	NextStepMismatch bool   `json:"next_step_mismatch,omitempty"`
}

// Classify runs the full rule layer over a validated record: currency
// normalization, fee classification and routing. Payee resolution happens
// separately because it needs the alias store.
func Classify(rec *ExtractionRecord) ClassificationResult {
	currency := NormalizeCurrency(rec.Currency)
	trailer, management := ClassifyFees(rec.Remarks, rec.Payee)
	next := Route(rec.Remarks, currency)

	return ClassificationResult{
		IsTrailerFee:     trailer,
		IsManagementFee:  management,
		NextStep:         next,
		Currency:         currency,
		OracleNextStep:   rec.NextStep,
		NextStepMismatch: rec.NextStep != next,
	}
}
