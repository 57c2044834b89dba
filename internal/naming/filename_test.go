package naming

import (
	"testing"
)

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name          string
		keyIdentifier string
		payer         string
		resolvedPayee string
		currency      string
		isTrailerFee  bool
		isMgmtFee     bool
		want          string
	}{
		{
			name:          "WMC trailer fee",
			keyIdentifier: "123456",
			payer:         "WEALTH MANAGEMENT CUBE LIMITED",
			resolvedPayee: "Acme",
			currency:      "HKD",
			isTrailerFee:  true,
			want:          "123456 WMC-Acme_T.pdf",
		},
		{
			name:          "WMC plain",
			keyIdentifier: "123456",
			payer:         "WEALTH MANAGEMENT CUBE LIMITED",
			resolvedPayee: "Acme",
			currency:      "HKD",
			want:          "123456 WMC-Acme.pdf",
		},
		{
			name:          "WMC management fee for recognized entity",
			keyIdentifier: "123456",
			payer:         "WEALTH MANAGEMENT CUBE LIMITED",
			resolvedPayee: "OFS",
			currency:      "HKD",
			isMgmtFee:     true,
			want:          "123456 WMC-OFS MF.pdf",
		},
		{
			name:          "nominee trust account trailer fee",
			keyIdentifier: "654321",
			payer:         "WMC NOMINEE LIMITED-CLIENT TRUST ACCOUNT",
			resolvedPayee: "Acme",
			currency:      "USD",
			isTrailerFee:  true,
			want:          "USD 654321 Acme_T.pdf",
		},
		{
			name:          "nominee trust account plain",
			keyIdentifier: "654321",
			payer:         "WMC NOMINEE LIMITED-CLIENT TRUST ACCOUNT",
			resolvedPayee: "Acme",
			currency:      "HKD",
			want:          "HKD 654321 Acme.pdf",
		},
		{
			name:          "default payer management fee for recognized entity",
			keyIdentifier: "123456",
			payer:         "Other Bank",
			resolvedPayee: "OFS",
			currency:      "USD",
			isMgmtFee:     true,
			want:          "OFS_123456_USD MF.pdf",
		},
		{
			name:          "management flag without recognized payee falls to plain",
			keyIdentifier: "123456",
			payer:         "Other Bank",
			resolvedPayee: "Acme",
			currency:      "USD",
			isMgmtFee:     true,
			want:          "Acme_123456_USD.pdf",
		},
		{
			name:          "trailer takes precedence over management",
			keyIdentifier: "123456",
			payer:         "WEALTH MANAGEMENT CUBE LIMITED",
			resolvedPayee: "OFS",
			currency:      "HKD",
			isTrailerFee:  true,
			isMgmtFee:     true,
			want:          "123456 WMC-OFS_T.pdf",
		},
		{
			name:          "default payer plain",
			keyIdentifier: "123456",
			payer:         "Other Bank",
			resolvedPayee: "Acme",
			currency:      "USD",
			want:          "Acme_123456_USD.pdf",
		},
		{
			// Payer matching is exact-string; a recapitalized payer does not
			// get the dedicated layout.
			name:          "payer match is case-sensitive",
			keyIdentifier: "123456",
			payer:         "Wealth Management Cube Limited",
			resolvedPayee: "Acme",
			currency:      "HKD",
			want:          "Acme_123456_HKD.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.keyIdentifier, tt.payer, tt.resolvedPayee, tt.currency, tt.isTrailerFee, tt.isMgmtFee)
			if got != tt.want {
				t.Errorf("Synthesize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesize_SanitizesPayee(t *testing.T) {
	got := Synthesize("123456", "Other Bank", `A/B:C*D?E"F<G>H|I\J`, "HKD", false, false)
	want := "A_B_C_D_E_F_G_H_I_J_123456_HKD.pdf"
	if got != want {
		t.Errorf("Synthesize() = %q, want %q", got, want)
	}
}

func TestSynthesize_SanitizationLeavesOtherCharacters(t *testing.T) {
	got := Synthesize("123456", "Other Bank", "Acme & Sons (HK) Ltd.", "HKD", false, false)
	want := "Acme & Sons (HK) Ltd._123456_HKD.pdf"
	if got != want {
		t.Errorf("Synthesize() = %q, want %q", got, want)
	}
}
