// Package lexicon maps digests to their Urdu rendering through a static lookup table.
package lexicon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paxto2002/blogtalkhees/internal/schemas"
)

//go:embed default_lexicon.json
var defaultLexicon []byte

// Entry is one topic phrase and its pre-written translation.
type Entry struct {
	Key        string `json:"key"`
	Translated string `json:"translated"`
}

// file mirrors the on-disk JSON layout.
type file struct {
	Topics []Entry            `json:"topics"`
	Words  map[string]string `json:"words,omitempty"`
}

// Lexicon is an immutable topic and word table.
// It is safe for concurrent use once constructed.
type Lexicon struct {
	topics []Entry // file order, used for substring matching
	index  map[string]string
	words  map[string]string
}

// LoadError reports a lexicon that could not be read or is malformed.
type LoadError struct {
	Source string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("lexicon unavailable (%s): %v", e.Source, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the lexicon embedded in the binary.
func Default() (*Lexicon, error) {
	return Parse("embedded", defaultLexicon)
}

// Load reads a lexicon from path, or the embedded default when path is empty.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Cause: err}
	}
	return Parse(path, data)
}

// Parse validates data against the lexicon schema and builds a Lexicon.
// Topic keys are normalized with NormalizeTopic; a key that normalizes to
// nothing is rejected.
func Parse(source string, data []byte) (*Lexicon, error) {
	if err := schemas.ValidateLexicon(data); err != nil {
		return nil, &LoadError{Source: source, Cause: err}
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{Source: source, Cause: err}
	}

	lex := &Lexicon{
		topics: make([]Entry, 0, len(f.Topics)),
		index:  make(map[string]string, len(f.Topics)),
		words:  make(map[string]string, len(f.Words)),
	}

	for i, entry := range f.Topics {
		key := NormalizeTopic(entry.Key)
		if key == "" {
			return nil, &LoadError{Source: source, Cause: fmt.Errorf("topic %d: key %q has no alphanumeric characters", i, entry.Key)}
		}
		if _, dup := lex.index[key]; dup {
			// First definition wins, matching lookup order
			continue
		}
		lex.index[key] = entry.Translated
		lex.topics = append(lex.topics, Entry{Key: key, Translated: entry.Translated})
	}

	for word, translated := range f.Words {
		lex.words[NormalizeWord(word)] = translated
	}

	return lex, nil
}

// Len returns the number of topic entries.
func (l *Lexicon) Len() int {
	return len(l.topics)
}

// WordCount returns the number of word entries.
func (l *Lexicon) WordCount() int {
	return len(l.words)
}

// Topic returns the translation stored under an already-normalized key.
func (l *Lexicon) Topic(key string) (string, bool) {
	translated, ok := l.index[key]
	return translated, ok
}

// FirstContained returns the first entry, in file order, whose key occurs
// inside topic.
func (l *Lexicon) FirstContained(topic string) (Entry, bool) {
	if topic == "" {
		return Entry{}, false
	}
	for _, entry := range l.topics {
		if containsKey(topic, entry.Key) {
			return entry, true
		}
	}
	return Entry{}, false
}

// Word returns the translation of a single lowercased word.
func (l *Lexicon) Word(word string) (string, bool) {
	translated, ok := l.words[word]
	return translated, ok
}
