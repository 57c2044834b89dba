// Package naming synthesizes the canonical output filename for a classified
// e-cheque. Filenames are a pure function of the classified fields; nothing
// here touches storage.
package naming

import (
	"strings"

	"github.com/dvloznov/echeque-clerk/internal/cheque"
)

// sanitizer replaces filesystem-hostile characters in the payee before it is
// embedded in a filename. Only these characters change; everything else is
// kept verbatim.
var sanitizer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"*", "_",
	"?", "_",
	":", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Suffixes per fee tier. Trailer takes precedence when both flags hold.
const (
	suffixTrailer    = "_T"
	suffixManagement = " MF"
)

// payerTemplates maps a payer account name to its filename layout. Matching
// is exact-string: a differently capitalized payer falls into the default
// template. That brittleness reproduces the established filing convention and
// is kept as a data table so new layouts are additive.
var payerTemplates = map[string]string{
	"WEALTH MANAGEMENT CUBE LIMITED":           "{key} WMC-{payee}{suffix}.pdf",
	"WMC NOMINEE LIMITED-CLIENT TRUST ACCOUNT": "{currency} {key} {payee}{suffix}.pdf",
}

// defaultTemplate applies to any payer without a dedicated layout.
const defaultTemplate = "{payee}_{key}_{currency}{suffix}.pdf"

// Synthesize builds the output filename from the classified fields.
// resolvedPayee is the alias-resolved payee; the management-fee layout only
// applies when it names a recognized management-fee entity.
func Synthesize(keyIdentifier, payer, resolvedPayee, currency string, isTrailerFee, isManagementFee bool) string {
	suffix := ""
	switch {
	case isTrailerFee:
		suffix = suffixTrailer
	case isManagementFee && cheque.IsManagementFeeEntity(resolvedPayee):
		suffix = suffixManagement
	}

	tpl, ok := payerTemplates[payer]
	if !ok {
		tpl = defaultTemplate
	}

	return expand(tpl, keyIdentifier, sanitizer.Replace(resolvedPayee), currency, suffix)
}

func expand(tpl, key, payee, currency, suffix string) string {
	r := strings.NewReplacer(
		"{key}", key,
		"{payee}", payee,
		"{currency}", currency,
		"{suffix}", suffix,
	)
	return r.Replace(tpl)
}
