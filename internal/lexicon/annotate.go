package lexicon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// Mode selects how a digest is rendered. The two modes are never combined.
type Mode string

const (
	// ModeTopic replaces the whole digest with the translation stored for its topic.
	ModeTopic Mode = "topic"
	// ModeWord substitutes individual words found in the word table.
	ModeWord Mode = "word"
)

// ParseMode validates a configured mode name. Empty selects ModeTopic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTopic:
		return ModeTopic, nil
	case ModeWord:
		return ModeWord, nil
	default:
		return "", fmt.Errorf("unknown annotator mode %q (want %q or %q)", s, ModeTopic, ModeWord)
	}
}

var wordToken = regexp.MustCompile(`^([A-Za-z]+)([.,!?]*)$`)

// Annotator renders digests through a Lexicon.
type Annotator struct {
	lex  *Lexicon
	mode Mode
}

// NewAnnotator returns an Annotator using lex in the given mode.
func NewAnnotator(lex *Lexicon, mode Mode) *Annotator {
	if mode == "" {
		mode = ModeTopic
	}
	return &Annotator{lex: lex, mode: mode}
}

// Mode reports the configured mode.
func (a *Annotator) Mode() Mode {
	return a.mode
}

// Annotate renders digest. In topic mode topicHint selects the translation;
// in word mode it is ignored. A digest with no match is returned unchanged
// with MatchNone. Annotate never fails.
func (a *Annotator) Annotate(url, digest, topicHint string) types.Annotation {
	if a.mode == ModeWord {
		return a.annotateWords(url, digest)
	}
	return a.annotateTopic(url, digest, topicHint)
}

func (a *Annotator) annotateTopic(url, digest, topicHint string) types.Annotation {
	key := NormalizeTopic(topicHint)

	if key != "" {
		if translated, ok := a.lex.Topic(key); ok {
			return types.Annotation{URL: url, TranslatedText: translated, MatchKind: types.MatchExact}
		}
		if entry, ok := a.lex.FirstContained(key); ok {
			return types.Annotation{URL: url, TranslatedText: entry.Translated, MatchKind: types.MatchFuzzy}
		}
	}

	return types.Annotation{URL: url, TranslatedText: digest, MatchKind: types.MatchNone}
}

func (a *Annotator) annotateWords(url, digest string) types.Annotation {
	fields := strings.Fields(digest)
	substituted := false

	for i, field := range fields {
		m := wordToken.FindStringSubmatch(field)
		if m == nil {
			continue
		}
		if translated, ok := a.lex.Word(NormalizeWord(m[1])); ok {
			fields[i] = translated + m[2]
			substituted = true
		}
	}

	if !substituted {
		return types.Annotation{URL: url, TranslatedText: digest, MatchKind: types.MatchNone}
	}
	return types.Annotation{URL: url, TranslatedText: strings.Join(fields, " "), MatchKind: types.MatchExact}
}
