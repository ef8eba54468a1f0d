package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

func TestHashContent(t *testing.T) {
	hash1 := HashContent([]byte("hello world"))
	hash2 := HashContent([]byte("hello world"))
	assert.Equal(t, hash1, hash2, "same content should produce same hash")

	hash3 := HashContent([]byte("different content"))
	assert.NotEqual(t, hash1, hash3)

	// SHA-256 hex
	assert.Len(t, hash1, 64)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{10, 10},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampLimit(tt.in), "clampLimit(%d)", tt.in)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"blogs.sql", "summaries.sql"} {
		sql, err := migrations.ReadFile("migrations/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS")
		assert.Contains(t, string(sql), "url")
		assert.Contains(t, string(sql), "UNIQUE")
	}
}

func TestBlog_Source(t *testing.T) {
	renderer := "browser"
	fetched := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &Blog{
		URL:       "https://example.com/post",
		Title:     "Post",
		RawMarkup: []byte("<html></html>"),
		Renderer:  &renderer,
		FetchedAt: fetched,
	}

	doc := b.Source()
	assert.Equal(t, "https://example.com/post", doc.URL)
	assert.Equal(t, "Post", doc.Title)
	assert.Equal(t, []byte("<html></html>"), doc.RawMarkup)
	assert.Equal(t, "browser", doc.Renderer)
	assert.Equal(t, fetched, doc.FetchedAt)

	b.Renderer = nil
	assert.Empty(t, b.Source().Renderer)
}

func TestSummaryRecordRoundTrip(t *testing.T) {
	rec := &types.Record{
		ID:               uuid.New(),
		URL:              "https://example.com/post",
		Title:            "Post",
		BodyText:         "long body",
		DigestText:       "A digest.",
		TranslatedText:   "ترجمہ",
		MatchKind:        types.MatchFuzzy,
		ExtractionMethod: "article",
		CompletedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	row := summaryFromRecord(rec)
	assert.Equal(t, rec.DigestText, row.Summary)
	assert.Equal(t, rec.TranslatedText, row.Translated)

	back := row.Record()
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.URL, back.URL)
	assert.Equal(t, rec.MatchKind, back.MatchKind)
	assert.Equal(t, rec.ExtractionMethod, back.ExtractionMethod)
	assert.Empty(t, back.BodyText, "body text is not part of the summaries table")
}

func TestStoreNames(t *testing.T) {
	assert.Equal(t, "blogs", NewBlogStore(nil).Name())
	assert.Equal(t, "summaries", NewSummaryStore(nil).Name())
}
