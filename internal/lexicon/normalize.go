package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTopic turns a free-form topic hint into a lexicon key:
// case-folded, stripped of diacritics, non-alphanumeric runs collapsed,
// and the remaining tokens joined with "_".
//
//	"  Artificial Intelligence! " -> "artificial_intelligence"
//	"Next.js"                     -> "next_js"
func NormalizeTopic(topic string) string {
	folded := fold(topic)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(tokens, "_")
}

// NormalizeWord lowercases a single word for word-mode lookup.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// fold applies Unicode case folding and removes combining marks.
// Transformers carry state, so a fresh chain is built per call.
func fold(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// containsKey reports whether key occurs in topic. Empty keys never match.
func containsKey(topic, key string) bool {
	return key != "" && strings.Contains(topic, key)
}
