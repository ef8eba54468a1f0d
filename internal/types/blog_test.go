package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_Empty(t *testing.T) {
	assert.True(t, Summary{}.Empty())
	assert.False(t, Summary{DigestText: "Something long enough to count."}.Empty())
}

func TestRecord_HasDigest(t *testing.T) {
	var nilRecord *Record
	assert.False(t, nilRecord.HasDigest())
	assert.False(t, (&Record{}).HasDigest())
	assert.True(t, (&Record{DigestText: "A digest."}).HasDigest())
}

func TestSourceDocument_RawMarkupNotSerialized(t *testing.T) {
	doc := SourceDocument{URL: "https://example.com", Title: "T", RawMarkup: []byte("<html></html>")}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "html")
	assert.Contains(t, string(data), `"url":"https://example.com"`)
}

func TestRecord_JSONFieldNames(t *testing.T) {
	rec := Record{
		URL:              "https://example.com/post",
		MatchKind:        MatchFuzzy,
		ExtractionMethod: MethodFallback,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "fuzzy", decoded["match_kind"])
	assert.Equal(t, "fallback", decoded["extraction_method"])
	assert.Contains(t, decoded, "digest_text")
	assert.Contains(t, decoded, "translated_text")
}
