package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

// SummaryStore persists digests and translations of finished runs.
type SummaryStore struct {
	db *DB
}

// NewSummaryStore returns a SummaryStore backed by db.
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Name identifies the store in logs.
func (s *SummaryStore) Name() string { return "summaries" }

// Migrate creates the summaries table if needed.
func (s *SummaryStore) Migrate(ctx context.Context) error {
	return s.db.migrate(ctx, "summaries.sql")
}

// Save inserts the summary of a finished run. An existing row for the URL
// is left untouched.
func (s *SummaryStore) Save(ctx context.Context, out pipeline.Output) error {
	if out.Record == nil {
		return errors.New("summaries: output has no record")
	}
	row := summaryFromRecord(out.Record)

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO summaries (id, url, title, summary, translated, match_kind, extraction_method, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (url) DO NOTHING`,
		row.ID, row.URL, row.Title, row.Summary, row.Translated,
		string(row.MatchKind), string(row.ExtractionMethod), row.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

const summaryColumns = `id, url, title, summary, translated, match_kind, extraction_method, completed_at, created_at`

func scanSummary(row pgx.Row) (*Summary, error) {
	var s Summary
	var matchKind, method string
	if err := row.Scan(&s.ID, &s.URL, &s.Title, &s.Summary, &s.Translated, &matchKind, &method,
		&s.CompletedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.MatchKind = types.MatchKind(matchKind)
	s.ExtractionMethod = types.ExtractionMethod(method)
	return &s, nil
}

// GetSummary retrieves the summary for url. Returns nil, nil if not found.
func (s *SummaryStore) GetSummary(ctx context.Context, url string) (*Summary, error) {
	row, err := scanSummary(s.db.pool.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM summaries WHERE url = $1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return row, nil
}

// LookupRecord returns the record stored for url, or nil, nil if none.
// The record carries no article body.
func (s *SummaryStore) LookupRecord(ctx context.Context, url string) (*types.Record, error) {
	row, err := s.GetSummary(ctx, url)
	if err != nil || row == nil {
		return nil, err
	}
	return row.Record(), nil
}

// ListSummaries returns stored summaries, newest first.
func (s *SummaryStore) ListSummaries(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT `+summaryColumns+` FROM summaries ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		row, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}
