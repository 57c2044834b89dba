package cheque

import (
	"strings"
)

// CanonicalName canonicalizes a payee or entity name for comparison:
// uppercase, runs of whitespace collapsed to a single space, ends trimmed.
// The alias store and every rule that compares names use this one function.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

// NormalizeCurrency maps free text containing currency symbols or codes to one
// of the fixed codes {CNY, USD, HKD, EUR, GBP}. Matching is case-insensitive
// substring against an ordered rule table. Unrecognized input is returned
// unchanged; routing treats any non-HKD value as requiring manual review, so a
// miss degrades gracefully instead of failing.
func NormalizeCurrency(raw string) string {
	upper := strings.ToUpper(raw)
	for _, rule := range currencyRules {
		for _, sym := range rule.symbols {
			if strings.Contains(upper, sym) {
				return rule.code
			}
		}
	}
	return raw
}

// ClassifyFees derives the two independent fee flags from remarks and payee.
//
// The trailer flag depends on remarks alone. The management flag additionally
// requires the payee to be a recognized management-fee entity; for any other
// payee it is false no matter what the remarks say. That asymmetry is a
// business rule, not an oversight.
func ClassifyFees(remarks, payee string) (isTrailerFee, isManagementFee bool) {
	lower := strings.ToLower(remarks)

	for _, term := range trailerFeeTerms {
		if strings.Contains(lower, term) {
			isTrailerFee = true
			break
		}
	}

	if IsManagementFeeEntity(payee) {
		for _, term := range managementFeeTerms {
			if strings.Contains(lower, term) {
				isManagementFee = true
				break
			}
		}
	}

	return isTrailerFee, isManagementFee
}

// Route derives the next-action verdict from remarks and the normalized
// currency. First match wins:
//
//  1. remarks contain the literal "URGENT" marker → manual review
//  2. currency is not HKD (including unrecognized pass-throughs) → manual review
//  3. otherwise → process payment
//
// The model also reports a next_step, but it is never trusted; callers compare
// it against this result and flag mismatches for audit.
func Route(remarks, normalizedCurrency string) string {
	if strings.Contains(remarks, urgencyMarker) {
		return NextStepManualReview
	}
	if normalizedCurrency != "HKD" {
		return NextStepManualReview
	}
	return NextStepProcessPayment
}
