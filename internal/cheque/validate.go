package cheque

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedJSON reports that the model response could not be parsed as JSON
// even after stripping code fences. The raw text is kept alongside so the
// caller can surface it for manual correction.
var ErrMalformedJSON = errors.New("malformed JSON in model response")

// MissingFieldError reports a required field absent from the parsed response.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// FieldTypeError reports a required field present with the wrong JSON kind.
// The source system accepted such records as-is; here they are rejected so a
// boolean arriving as "true" never leaks into classification.
type FieldTypeError struct {
	Field string
	Want  string
	Got   interface{}
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q has type %T, want %s", e.Field, e.Got, e.Want)
}

// Validate parses a raw model response into an ExtractionRecord. It strips an
// optional fenced-code-block wrapper, decodes the JSON object and checks that
// every required field is present with the right primitive kind. Validation
// failure aborts classification for the document; there is no partial record.
func Validate(rawText string) (*ExtractionRecord, error) {
	clean := stripFences(rawText)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	rec := &ExtractionRecord{}

	var err error
	if rec.Payee, err = requireString(obj, "payee"); err != nil {
		return nil, err
	}
	if rec.Payer, err = requireString(obj, "payer"); err != nil {
		return nil, err
	}
	if rec.KeyIdentifier, err = requireString(obj, "key_identifier"); err != nil {
		return nil, err
	}
	if rec.Currency, err = requireString(obj, "currency"); err != nil {
		return nil, err
	}
	if rec.NextStep, err = requireString(obj, "next_step"); err != nil {
		return nil, err
	}
	if rec.IsTrailerFee, err = requireBool(obj, "is_trailer_fee"); err != nil {
		return nil, err
	}
	if rec.IsManagementFee, err = requireBool(obj, "is_management_fee"); err != nil {
		return nil, err
	}

	rec.BankName = optionalString(obj, "bank_name")
	rec.Date = optionalString(obj, "date")
	rec.AmountNumerical = optionalString(obj, "amount_numerical")
	rec.AmountWords = optionalString(obj, "amount_words")
	rec.ChequeNumber = optionalString(obj, "cheque_number")
	rec.Remarks = optionalString(obj, "remarks")

	return rec, nil
}

// stripFences removes a Markdown code-fence wrapper (``` or ```json) around
// the JSON payload if the model ignored the no-formatting instruction. As a
// last resort it keeps only the outermost {...} span.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func requireString(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", &MissingFieldError{Field: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldTypeError{Field: key, Want: "string", Got: v}
	}
	if strings.TrimSpace(s) == "" {
		return "", &MissingFieldError{Field: key}
	}
	return s, nil
}

func requireBool(obj map[string]interface{}, key string) (bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return false, &MissingFieldError{Field: key}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &FieldTypeError{Field: key, Want: "bool", Got: v}
	}
	return b, nil
}

func optionalString(obj map[string]interface{}, key string) string {
	if v, ok := obj[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
