package cheque

import (
	"testing"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"HK$", "HKD"},
		{"HKD", "HKD"},
		{"hk$ 1,200.00", "HKD"},
		{"$", "USD"},
		{"US$", "USD"},
		{"usd", "USD"},
		{"RMB", "CNY"},
		{"¥", "CNY"},
		{"￥", "CNY"},
		{"€", "EUR"},
		{"£", "GBP"},
		// Unrecognized values pass through unchanged.
		{"JPY", "JPY"},
		{"", ""},
		{"francs", "francs"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeCurrency(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCurrency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCurrency_HKDollarBeforeDollar(t *testing.T) {
	// "HK$" contains "$"; the rule order must keep it out of the USD bucket.
	if got := NormalizeCurrency("HK$ 500"); got != "HKD" {
		t.Errorf("NormalizeCurrency(\"HK$ 500\") = %q, want HKD", got)
	}
}

func TestClassifyFees(t *testing.T) {
	tests := []struct {
		name           string
		remarks        string
		payee          string
		wantTrailer    bool
		wantManagement bool
	}{
		{
			name:        "trailer rebate for unknown payee",
			remarks:     "urgent trailer rebate payment",
			payee:       "Acme",
			wantTrailer: true,
		},
		{
			name:           "management fee for OFS",
			remarks:        "management fee due",
			payee:          "OFS",
			wantManagement: true,
		},
		{
			name:           "management fee for full entity name",
			remarks:        "Managed Services Fee Q3",
			payee:          "Oreana Financial Services Limited",
			wantManagement: true,
		},
		{
			name:    "management fee gated on payee",
			remarks: "management fee due",
			payee:   "Acme",
			// Management-fee wording for an unrecognized payee never counts.
		},
		{
			name:           "both flags at once",
			remarks:        "trailer rebate and management fee",
			payee:          "OFS",
			wantTrailer:    true,
			wantManagement: true,
		},
		{
			name:    "plain payment",
			remarks: "invoice 42",
			payee:   "OFS",
		},
		{
			name:  "empty remarks",
			payee: "OFS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trailer, management := ClassifyFees(tt.remarks, tt.payee)
			if trailer != tt.wantTrailer || management != tt.wantManagement {
				t.Errorf("ClassifyFees(%q, %q) = (%v, %v), want (%v, %v)",
					tt.remarks, tt.payee, trailer, management, tt.wantTrailer, tt.wantManagement)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name     string
		remarks  string
		currency string
		want     string
	}{
		{"urgent marker", "please process URGENT", "HKD", NextStepManualReview},
		{"foreign currency", "standard payment", "USD", NextStepManualReview},
		{"unrecognized currency", "standard payment", "JPY", NextStepManualReview},
		{"domestic non-urgent", "standard payment", "HKD", NextStepProcessPayment},
		// The urgency marker is case-sensitive by convention.
		{"lowercase urgent ignored", "urgent payment", "HKD", NextStepProcessPayment},
		{"urgent wins over currency", "URGENT", "USD", NextStepManualReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.remarks, tt.currency)
			if got != tt.want {
				t.Errorf("Route(%q, %q) = %q, want %q", tt.remarks, tt.currency, got, tt.want)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Oreana Financial Services Limited", "OREANA FINANCIAL SERVICES LIMITED"},
		{"  acme   corp  ", "ACME CORP"},
		{"ACME\tCORP", "ACME CORP"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CanonicalName(tt.input)
			if got != tt.want {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	// Canonicalization is idempotent.
	once := CanonicalName("  Acme   Corp ")
	if twice := CanonicalName(once); twice != once {
		t.Errorf("CanonicalName not idempotent: %q != %q", twice, once)
	}
}

func TestClassify_RecomputesNextStep(t *testing.T) {
	rec := &ExtractionRecord{
		Payee:         "Acme",
		Payer:         "Other Bank",
		KeyIdentifier: "123456",
		Currency:      "HK$",
		Remarks:       "standard payment",
		NextStep:      NextStepManualReview, // oracle got it wrong
	}

	result := Classify(rec)

	if result.NextStep != NextStepProcessPayment {
		t.Errorf("NextStep = %q, want %q", result.NextStep, NextStepProcessPayment)
	}
	if !result.NextStepMismatch {
		t.Error("expected NextStepMismatch to be set when oracle disagrees")
	}
	if result.OracleNextStep != NextStepManualReview {
		t.Errorf("OracleNextStep = %q, want the oracle value preserved", result.OracleNextStep)
	}
	if result.Currency != "HKD" {
		t.Errorf("Currency = %q, want HKD", result.Currency)
	}
}
