// Package normalize implements the field and email canonicalization rules
// the ingest pipeline applies to every parsed cell before hashing or
// detection: Unicode compatibility normalization, full case-folding,
// punctuation substitution, whitespace collapse, and email-specific
// local-part/domain canonicalization.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

var punctuationReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"–", "-",
	"—", "-",
)

// Field normalizes a single value: trim, NFKC, full Unicode case-fold,
// punctuation substitution, and whitespace collapse. Idempotent.
func Field(input string) string {
	s := strings.TrimSpace(input)
	s = norm.NFKC.String(s)
	s = foldCaser.String(s)
	s = punctuationReplacer.Replace(s)
	s = collapseWhitespace(s)
	return strings.TrimSpace(s)
}

// Row maps Field over every cell of a row.
func Row(row []string) []string {
	out := make([]string, len(row))
	for i, f := range row {
		out[i] = Field(f)
	}
	return out
}

// SuffixRules maps a canonical email domain to the set of alternate domains
// that should be rewritten to it.
type SuffixRules map[string][]string

// Email normalizes an address: field-normalize the whole string, split on the
// last '@', canonicalize the local part (drop everything from the first '+',
// strip dots), then substitute the domain via rules if it matches a
// configured alternate.
func Email(email string, rules SuffixRules) string {
	normalized := Field(email)

	at := strings.LastIndex(normalized, "@")
	if at < 0 {
		return normalized
	}

	local := canonicalizeLocal(normalized[:at])
	domain := normalized[at+1:]
	domain = substituteDomain(domain, rules)

	return local + "@" + domain
}

func canonicalizeLocal(local string) string {
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return strings.ReplaceAll(local, ".", "")
}

func substituteDomain(domain string, rules SuffixRules) string {
	for canonical, alternates := range rules {
		for _, alt := range alternates {
			if alt == domain {
				return canonical
			}
		}
	}
	return domain
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
