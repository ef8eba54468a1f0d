package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

// BlogStore persists fetched pages. It serves as the fetcher's source
// cache and as a pipeline sink.
type BlogStore struct {
	db *DB
}

// NewBlogStore returns a BlogStore backed by db.
func NewBlogStore(db *DB) *BlogStore {
	return &BlogStore{db: db}
}

// Name identifies the store in logs.
func (s *BlogStore) Name() string { return "blogs" }

// Migrate creates the blogs table if needed.
func (s *BlogStore) Migrate(ctx context.Context) error {
	return s.db.migrate(ctx, "blogs.sql")
}

// GetBlog retrieves a stored page by URL. Returns nil, nil if not found.
func (s *BlogStore) GetBlog(ctx context.Context, url string) (*Blog, error) {
	var b Blog
	err := s.db.pool.QueryRow(ctx,
		`SELECT id, url, title, body_text, raw_markup, content_hash, renderer, fetched_at, created_at
		 FROM blogs WHERE url = $1`,
		url,
	).Scan(&b.ID, &b.URL, &b.Title, &b.BodyText, &b.RawMarkup, &b.ContentHash, &b.Renderer,
		&b.FetchedAt, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return &b, nil
}

// GetSource returns the stored document for url, or nil, nil when absent.
// A row without markup cannot be re-extracted and counts as absent.
func (s *BlogStore) GetSource(ctx context.Context, url string) (*types.SourceDocument, error) {
	b, err := s.GetBlog(ctx, url)
	if err != nil || b == nil {
		return nil, err
	}
	if len(b.RawMarkup) == 0 {
		return nil, nil
	}
	return b.Source(), nil
}

// Save inserts the page behind a finished run. An existing row for the URL
// is only replaced by a strictly newer fetch, which happens when the row had
// no markup or the fetcher runs with a cache TTL.
func (s *BlogStore) Save(ctx context.Context, out pipeline.Output) error {
	if out.Record == nil {
		return errors.New("blogs: output has no record")
	}

	var (
		markup      []byte
		contentHash *string
		renderer    *string
	)
	fetchedAt := out.Record.FetchedAt
	if out.Source != nil {
		markup = out.Source.RawMarkup
		if !out.Source.FetchedAt.IsZero() {
			fetchedAt = out.Source.FetchedAt
		}
	}
	if len(markup) > 0 {
		hash := HashContent(markup)
		contentHash = &hash
	}
	if out.Record.Renderer != "" {
		r := out.Record.Renderer
		renderer = &r
	}

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO blogs (url, title, body_text, raw_markup, content_hash, renderer, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (url) DO UPDATE SET
		   title = EXCLUDED.title,
		   body_text = EXCLUDED.body_text,
		   raw_markup = EXCLUDED.raw_markup,
		   content_hash = EXCLUDED.content_hash,
		   renderer = EXCLUDED.renderer,
		   fetched_at = EXCLUDED.fetched_at
		 WHERE blogs.fetched_at IS NULL OR blogs.fetched_at < EXCLUDED.fetched_at`,
		out.Record.URL, out.Record.Title, out.Record.BodyText, markup, contentHash, renderer, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save blog: %w", err)
	}
	return nil
}

// ListBlogs returns stored pages, newest first. Markup is not loaded.
func (s *BlogStore) ListBlogs(ctx context.Context, limit int) ([]Blog, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT id, url, title, body_text, content_hash, renderer, fetched_at, created_at
		 FROM blogs ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []Blog
	for rows.Next() {
		var b Blog
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &b.BodyText, &b.ContentHash, &b.Renderer,
			&b.FetchedAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}
