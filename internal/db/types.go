package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// Blog is a stored page from the blogs table.
type Blog struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	BodyText    string    `json:"body_text"`
	RawMarkup   []byte    `json:"-"`
	ContentHash *string   `json:"content_hash,omitempty"`
	Renderer    *string   `json:"renderer,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Source converts the stored row back into the document the fetcher produced.
func (b *Blog) Source() *types.SourceDocument {
	doc := &types.SourceDocument{
		URL:       b.URL,
		Title:     b.Title,
		RawMarkup: b.RawMarkup,
		FetchedAt: b.FetchedAt,
	}
	if b.Renderer != nil {
		doc.Renderer = *b.Renderer
	}
	return doc
}

// Summary is a stored digest from the summaries table.
type Summary struct {
	ID               uuid.UUID              `json:"id"`
	URL              string                 `json:"url"`
	Title            string                 `json:"title"`
	Summary          string                 `json:"summary"`
	Translated       string                 `json:"translated"`
	MatchKind        types.MatchKind        `json:"match_kind"`
	ExtractionMethod types.ExtractionMethod `json:"extraction_method"`
	CompletedAt      time.Time              `json:"completed_at"`
	CreatedAt        time.Time              `json:"created_at"`
}

// Record rebuilds the pipeline record a summary row was written from.
// BodyText is not stored in the summaries table and stays empty.
func (s *Summary) Record() *types.Record {
	return &types.Record{
		ID:               s.ID,
		URL:              s.URL,
		Title:            s.Title,
		DigestText:       s.Summary,
		TranslatedText:   s.Translated,
		MatchKind:        s.MatchKind,
		ExtractionMethod: s.ExtractionMethod,
		CompletedAt:      s.CompletedAt,
	}
}

// summaryFromRecord maps a finished record onto a summaries row.
func summaryFromRecord(rec *types.Record) *Summary {
	return &Summary{
		ID:               rec.ID,
		URL:              rec.URL,
		Title:            rec.Title,
		Summary:          rec.DigestText,
		Translated:       rec.TranslatedText,
		MatchKind:        rec.MatchKind,
		ExtractionMethod: rec.ExtractionMethod,
		CompletedAt:      rec.CompletedAt,
	}
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
