package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/paxto2002/blogtalkhees/internal/config"
	"github.com/paxto2002/blogtalkhees/internal/db"
	"github.com/paxto2002/blogtalkhees/internal/extract"
	"github.com/paxto2002/blogtalkhees/internal/fetch"
	"github.com/paxto2002/blogtalkhees/internal/lexicon"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
)

// app holds the wired pipeline and whichever stores are configured.
type app struct {
	pipeline  *pipeline.Orchestrator
	blogs     *db.BlogStore
	summaries *db.SummaryStore

	conns []*db.DB
}

// openStores connects the configured stores. The two DSNs may name the same
// database, in which case one pool is shared.
func openStores(ctx context.Context, sc config.StorageConfig) (*db.BlogStore, *db.SummaryStore, []*db.DB, error) {
	var (
		blogs     *db.BlogStore
		summaries *db.SummaryStore
		conns     []*db.DB
	)
	pools := map[string]*db.DB{}
	open := func(dsn string) (*db.DB, error) {
		if conn, ok := pools[dsn]; ok {
			return conn, nil
		}
		conn, err := db.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		pools[dsn] = conn
		conns = append(conns, conn)
		return conn, nil
	}
	closeAll := func() {
		for _, c := range conns {
			c.Close()
		}
	}

	if sc.BlogsDatabaseURL != "" {
		conn, err := open(sc.BlogsDatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("blogs store: %w", err)
		}
		blogs = db.NewBlogStore(conn)
	}
	if sc.SummariesDatabaseURL != "" {
		conn, err := open(sc.SummariesDatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("summaries store: %w", err)
		}
		summaries = db.NewSummaryStore(conn)
	}
	return blogs, summaries, conns, nil
}

// buildRenderer turns the configured renderer names into one Chain.
func buildRenderer(fc config.FetchConfig, log zerolog.Logger) (fetch.Renderer, error) {
	renderers := make([]fetch.Renderer, 0, len(fc.Renderers))
	for _, name := range fc.Renderers {
		switch name {
		case fetch.RendererHTTP:
			renderers = append(renderers, fetch.NewHTTPRenderer(fc.HTTPOptions()))
		case fetch.RendererBrowser:
			browserLog := log.With().Str("renderer", fetch.RendererBrowser).Logger()
			renderers = append(renderers, fetch.NewBrowserRenderer(fc.BrowserOptions(browserLog)))
		case fetch.RendererProxy:
			renderers = append(renderers, fetch.NewProxyRenderer(fc.Proxy.URL, fc.Proxy.APIKey, fc.Timeout))
		default:
			return nil, fmt.Errorf("unknown renderer %q", name)
		}
	}
	if len(renderers) == 0 {
		return nil, fmt.Errorf("no renderers configured")
	}
	return fetch.NewChain(log, fc.MinContentLength, renderers...), nil
}

// buildAnnotator loads the lexicon. A lexicon that cannot be loaded is
// logged and yields a nil annotator so runs fail as lexicon_unavailable
// instead of the process refusing to start.
func buildAnnotator(ac config.AnnotatorConfig, log zerolog.Logger) (pipeline.Annotator, error) {
	mode, err := lexicon.ParseMode(ac.Mode)
	if err != nil {
		return nil, err
	}
	lex, err := lexicon.Load(ac.LexiconPath)
	if err != nil {
		log.Error().Err(err).Str("path", ac.LexiconPath).Msg("lexicon unavailable")
		return nil, nil
	}
	log.Debug().Int("topics", lex.Len()).Int("words", lex.WordCount()).Str("mode", string(mode)).Msg("lexicon loaded")
	return lexicon.NewAnnotator(lex, mode), nil
}

// newApp wires the pipeline from cfg. With reuseRecords, URLs already in the
// summaries store return the stored record instead of running again.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reuseRecords bool) (*app, error) {
	renderer, err := buildRenderer(cfg.Fetch, log)
	if err != nil {
		return nil, err
	}
	annotator, err := buildAnnotator(cfg.Annotator, log)
	if err != nil {
		return nil, err
	}

	blogs, summaries, conns, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var fetcher pipeline.Fetcher = fetch.New(renderer, fetch.Options{
		Retry:   cfg.Fetch.Retry,
		Timeout: cfg.Fetch.Timeout,
		Logger:  log.With().Str("component", "fetch").Logger(),
	})
	var sinks []pipeline.Sink
	if blogs != nil {
		fetcher = fetch.NewCachedFetcher(blogs, fetcher, fetch.CachedFetcherConfig{
			TTL:    cfg.Fetch.CacheTTL,
			Logger: log,
		})
		sinks = append(sinks, blogs)
	}
	if summaries != nil {
		sinks = append(sinks, summaries)
	}

	opts := pipeline.Options{
		RunTimeout:       cfg.Pipeline.RunTimeout,
		SinkTimeout:      cfg.Pipeline.SinkTimeout,
		Sinks:            sinks,
		MaxCachedRecords: cfg.Pipeline.MaxCachedRecords,
		Logger:           log.With().Str("component", "pipeline").Logger(),
	}
	if reuseRecords && summaries != nil {
		opts.Records = summaries
	}
	orch := pipeline.New(fetcher, extract.New(cfg.Extract.Options()), annotator, opts)

	return &app{pipeline: orch, blogs: blogs, summaries: summaries, conns: conns}, nil
}

// migrate creates the tables of every configured store.
func (a *app) migrate(ctx context.Context) error {
	if a.blogs != nil {
		if err := a.blogs.Migrate(ctx); err != nil {
			return err
		}
	}
	if a.summaries != nil {
		if err := a.summaries.Migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for pending storage writes and releases the pools.
func (a *app) Close() error {
	err := a.pipeline.Close()
	for _, c := range a.conns {
		c.Close()
	}
	return err
}
