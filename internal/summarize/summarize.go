// Package summarize builds short extractive digests from article text.
package summarize

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

const (
	// MinSentenceChars is the length a sentence candidate must exceed to be kept.
	// Shorter candidates are navigation labels, captions and other fragments.
	MinSentenceChars = 20
	// MaxSentences is the number of sentences taken into a digest.
	MaxSentences = 2
)

// Digest returns the first MaxSentences qualifying sentences of text joined
// with ". " and terminated by a period. It returns "" when no sentence
// qualifies; callers treat that as "no summary available", not as an error.
func Digest(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")

	candidates := strings.FieldsFunc(cleaned, isSentenceTerminal)

	chosen := make([]string, 0, MaxSentences)
	for _, candidate := range candidates {
		// Length is measured before trimming, so a leading space counts.
		if utf8.RuneCountInString(candidate) <= MinSentenceChars {
			continue
		}
		chosen = append(chosen, strings.TrimSpace(candidate))
		if len(chosen) == MaxSentences {
			break
		}
	}

	if len(chosen) == 0 {
		return ""
	}
	return strings.Join(chosen, ". ") + "."
}

// Summarize wraps Digest into a Summary stamped with generatedAt.
// The digest depends only on bodyText.
func Summarize(url, bodyText string, generatedAt time.Time) types.Summary {
	return types.Summary{
		URL:         url,
		DigestText:  Digest(bodyText),
		GeneratedAt: generatedAt,
	}
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
