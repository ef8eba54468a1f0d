package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// SourceStore looks up previously fetched documents by URL.
// GetSource returns nil, nil when the URL has not been stored.
type SourceStore interface {
	GetSource(ctx context.Context, url string) (*types.SourceDocument, error)
}

// DocumentFetcher is satisfied by Fetcher and CachedFetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*types.SourceDocument, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	// TTL expires stored documents. Zero keeps them forever.
	TTL    time.Duration
	Logger zerolog.Logger
	Now    func() time.Time
}

// CachedFetcher consults a SourceStore before delegating to a fetcher.
type CachedFetcher struct {
	store SourceStore
	next  DocumentFetcher
	cfg   CachedFetcherConfig
}

// NewCachedFetcher wraps next with store lookups. A nil store disables caching.
func NewCachedFetcher(store SourceStore, next DocumentFetcher, cfg CachedFetcherConfig) *CachedFetcher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CachedFetcher{store: store, next: next, cfg: cfg}
}

// Fetch returns the stored document for url when present and fresh,
// otherwise fetches it. Store errors are logged and fall through to a fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, url string) (*types.SourceDocument, error) {
	if _, err := ValidateURL(url); err != nil {
		return nil, err
	}

	if f.store != nil {
		doc, err := f.store.GetSource(ctx, url)
		switch {
		case err != nil:
			f.cfg.Logger.Warn().Err(err).Str("url", url).Msg("source store lookup failed")
		case doc != nil && f.fresh(doc):
			f.cfg.Logger.Debug().Str("url", url).Msg("using stored source document")
			return doc, nil
		}
	}

	return f.next.Fetch(ctx, url)
}

func (f *CachedFetcher) fresh(doc *types.SourceDocument) bool {
	if f.cfg.TTL <= 0 || doc.FetchedAt.IsZero() {
		return true
	}
	return f.cfg.Now().Sub(doc.FetchedAt) < f.cfg.TTL
}
