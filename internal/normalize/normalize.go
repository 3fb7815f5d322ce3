// Package normalize reduces company names to a canonical matching form so
// that superficially different spellings ("Acme Inc.", "acme", "ACME,
// Incorporated") claim the same reservation slot.
package normalize

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// legalSuffixes are trailing legal-entity tokens stripped during
// normalization. The set is deliberately conservative: tokens like "se"
// or "sa" stay because stripping them collapses distinct companies
// ("SAP SE" must normalize to "sap se", not "sap").
var legalSuffixes = map[string]struct{}{
	"inc":          {},
	"incorporated": {},
	"llc":          {},
	"ltd":          {},
	"limited":      {},
	"gmbh":         {},
	"ag":           {},
	"plc":          {},
	"corp":         {},
	"corporation":  {},
	"co":           {},
	"company":      {},
}

const keySuffixChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// CompanyName lowercases, strips punctuation, drops trailing legal-entity
// suffixes and collapses whitespace. At least one token is always kept so
// a name that is nothing but a suffix still normalizes to itself.
func CompanyName(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, ok := legalSuffixes[last]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// CompanyKey derives a stable registry key from a normalized name: the
// dash-joined slug plus a short random suffix ("sap se" -> "sap-se-x1").
// The suffix keeps keys unique if a name is released and reclaimed after
// its registry row was archived.
func CompanyKey(normalized string) string {
	slug := strings.ReplaceAll(normalized, " ", "-")
	if slug == "" {
		slug = "company"
	}
	return slug + "-" + randomSuffix(2)
}

func randomSuffix(n int) string {
	chars := []byte(keySuffixChars)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		out[i] = chars[idx.Int64()]
	}
	return string(out)
}
