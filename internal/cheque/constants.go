package cheque

// Routing verdicts. The values match what the extraction prompt instructs the
// model to produce, so local and oracle verdicts compare directly.
const (
	NextStepManualReview   = "Flag for Manual Review"
	NextStepProcessPayment = "Process Payment"
)

// urgencyMarker triggers manual review when it appears verbatim in remarks.
// The match is case-sensitive: operators write it in capitals by convention.
const urgencyMarker = "URGENT"

// currencyRule maps a set of symbols/codes to a normalized currency code.
// Rules are evaluated in order; "HK$" must be checked before the bare "$"
// rule or it would normalize to USD.
type currencyRule struct {
	code    string
	symbols []string
}

var currencyRules = []currencyRule{
	{code: "HKD", symbols: []string{"HK$", "HKD"}},
	{code: "CNY", symbols: []string{"RMB", "¥", "￥"}},
	{code: "EUR", symbols: []string{"€", "EUR"}},
	{code: "GBP", symbols: []string{"£", "GBP"}},
	{code: "USD", symbols: []string{"US$", "USD", "$"}},
}

// trailerFeeTerms mark a payment as a trailer-fee payment when any of them
// appears in the remarks (case-insensitive substring).
var trailerFeeTerms = []string{
	"trailer",
	"rebate for trailer",
}

// managementFeeTerms mark a payment as a management-fee payment, but only for
// payees in managementFeeEntities.
var managementFeeTerms = []string{
	"management fee",
	"managed services fee",
	"managed service fee",
}

// managementFeeEntities is the closed set of payees eligible for the
// management-fee classification, compared after canonicalization. Payments to
// anyone else are never management fees regardless of remarks.
var managementFeeEntities = map[string]bool{
	"OFS":                               true,
	"OREANA FINANCIAL SERVICES LIMITED": true,
}

// IsManagementFeeEntity reports whether the payee belongs to the recognized
// management-fee entity set.
func IsManagementFeeEntity(payee string) bool {
	return managementFeeEntities[CanonicalName(payee)]
}
