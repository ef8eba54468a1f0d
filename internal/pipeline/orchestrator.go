// Package pipeline sequences fetch, extract, summarize and annotate for a
// blog URL, caching completed records by URL and handing them to storage.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/paxto2002/blogtalkhees/internal/summarize"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

// DefaultRunTimeout bounds one pipeline run.
const DefaultRunTimeout = 90 * time.Second

// DefaultSinkTimeout bounds one background storage write.
const DefaultSinkTimeout = 30 * time.Second

// DefaultMaxCachedRecords is how many completed records stay in memory.
const DefaultMaxCachedRecords = 1024

// Fetcher retrieves raw page markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*types.SourceDocument, error)
}

// Extractor locates article text in markup.
type Extractor interface {
	Extract(url string, rawMarkup []byte) (*types.ExtractedArticle, error)
}

// Annotator renders a digest through the lexicon.
type Annotator interface {
	Annotate(url, digest, topicHint string) types.Annotation
}

// Output is what a finished run hands to each Sink.
type Output struct {
	Record *types.Record
	Source *types.SourceDocument
}

// Sink persists finished runs. Save must be idempotent per URL.
type Sink interface {
	Name() string
	Save(ctx context.Context, out Output) error
}

// RecordStore finds records completed by an earlier process.
// LookupRecord returns nil, nil when url has no record.
type RecordStore interface {
	LookupRecord(ctx context.Context, url string) (*types.Record, error)
}

// Options configures an Orchestrator.
type Options struct {
	RunTimeout  time.Duration
	SinkTimeout time.Duration
	Sinks       []Sink
	// Records, when set, is checked before a URL is run.
	Records RecordStore
	// MaxCachedRecords bounds the in-memory record cache; least recently
	// used records are evicted first.
	MaxCachedRecords int

	Logger zerolog.Logger
	Now    func() time.Time
}

// Orchestrator runs the pipeline. It is safe for concurrent use; concurrent
// calls for the same URL share one run.
type Orchestrator struct {
	fetcher   Fetcher
	extractor Extractor
	annotator Annotator
	opts      Options

	mu      sync.Mutex // serializes check-then-add on results
	results *lru.Cache[string, *types.Record]

	flights  singleflight.Group
	watchers watchers
	writes   errgroup.Group
}

// New returns an Orchestrator. A nil annotator makes every run fail with
// KindLexiconUnavailable.
func New(fetcher Fetcher, extractor Extractor, annotator Annotator, opts Options) *Orchestrator {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = DefaultSinkTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxCachedRecords <= 0 {
		opts.MaxCachedRecords = DefaultMaxCachedRecords
	}
	// Only fails for a non-positive size
	results, _ := lru.New[string, *types.Record](opts.MaxCachedRecords)
	return &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		annotator: annotator,
		opts:      opts,
		results:   results,
	}
}

// Process runs the pipeline for url, or returns the cached record when url
// already completed.
func (o *Orchestrator) Process(ctx context.Context, url string) (*types.Record, error) {
	return o.ProcessWithProgress(ctx, url, nil)
}

// ProcessWithProgress is Process with a callback receiving each state
// transition. Callers joining a run already in flight see the remaining
// transitions only.
func (o *Orchestrator) ProcessWithProgress(ctx context.Context, url string, onProgress ProgressCallback) (*types.Record, error) {
	key := strings.TrimSpace(url)

	if rec, ok := o.Lookup(key); ok {
		if onProgress != nil {
			onProgress(ProgressEvent{URL: key, State: StateDone, Message: stateMessages[StateDone], Record: rec})
		}
		return rec, nil
	}

	unsubscribe := o.watchers.subscribe(key, onProgress)
	defer unsubscribe()

	waitCtx, cancel := context.WithTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	ch := o.flights.DoChan(key, func() (interface{}, error) {
		// The run outlives any single caller; only RunTimeout bounds it.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.RunTimeout)
		defer cancel()
		return o.run(runCtx, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.Record), nil
	case <-waitCtx.Done():
		perr := wrap(StateStart, waitCtx.Err())
		if onProgress != nil {
			onProgress(failedEvent(key, perr))
		}
		return nil, perr
	}
}

// Lookup returns the completed record for url held in memory, if any.
func (o *Orchestrator) Lookup(url string) (*types.Record, bool) {
	return o.results.Get(strings.TrimSpace(url))
}

// remember caches rec unless a record for its URL is already cached, and
// returns whichever record is cached afterwards.
func (o *Orchestrator) remember(rec *types.Record) (*types.Record, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.results.Peek(rec.URL); ok {
		return existing, false
	}
	o.results.Add(rec.URL, rec)
	return rec, true
}

// stored returns the record an earlier process completed for url.
// Store failures are logged and treated as a miss.
func (o *Orchestrator) stored(ctx context.Context, url string, log zerolog.Logger) *types.Record {
	if o.opts.Records == nil {
		return nil
	}
	rec, err := o.opts.Records.LookupRecord(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("record store lookup failed")
		return nil
	}
	return rec
}

// Close waits for background storage writes to finish.
func (o *Orchestrator) Close() error {
	return o.writes.Wait()
}

func (o *Orchestrator) run(ctx context.Context, url string) (*types.Record, error) {
	// A run that finished between the caller's lookup and this flight starting
	if rec, ok := o.Lookup(url); ok {
		return rec, nil
	}

	log := o.opts.Logger.With().Str("url", url).Logger()

	if rec := o.stored(ctx, url, log); rec != nil {
		rec, _ = o.remember(rec)
		log.Debug().Msg("using stored record")
		o.watchers.emit(ProgressEvent{URL: url, State: StateDone, Message: stateMessages[StateDone], Record: rec})
		return rec, nil
	}

	start := o.opts.Now()

	rec, src, err := o.stages(ctx, url)
	if err != nil {
		perr := wrap(unstage(err))
		log.Warn().Err(perr.Cause).Str("kind", string(perr.Kind)).Str("stage", string(perr.Stage)).Msg("pipeline run failed")
		o.watchers.emit(failedEvent(url, perr))
		return nil, perr
	}

	if existing, added := o.remember(rec); !added {
		return existing, nil
	}

	log.Info().Str("method", string(rec.ExtractionMethod)).Str("match", string(rec.MatchKind)).
		Dur("elapsed", o.opts.Now().Sub(start)).Msg("pipeline run complete")
	o.watchers.emit(ProgressEvent{URL: url, State: StateDone, Message: stateMessages[StateDone], Record: rec})

	o.persist(Output{Record: rec, Source: src}, log)
	return rec, nil
}

// stageError records the state at which a stage failed.
type stageError struct {
	stage State
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func unstage(err error) (State, error) {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage, se.err
	}
	return StateStart, err
}

func (o *Orchestrator) stages(ctx context.Context, url string) (*types.Record, *types.SourceDocument, error) {
	if o.annotator == nil {
		return nil, nil, &stageError{stage: StateStart, err: ErrLexiconUnavailable}
	}

	o.progress(url, StateStart)

	doc, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, &stageError{stage: StateStart, err: err}
	}
	o.progress(url, StateFetched)

	if err := ctx.Err(); err != nil {
		return nil, nil, &stageError{stage: StateFetched, err: err}
	}
	article, err := o.extractor.Extract(url, doc.RawMarkup)
	if err != nil {
		return nil, nil, &stageError{stage: StateFetched, err: err}
	}
	o.progress(url, StateExtracted)

	summary := summarize.Summarize(url, article.BodyText, o.opts.Now().UTC())
	o.progress(url, StateSummarized)

	annotation := o.annotator.Annotate(url, summary.DigestText, topicHint(article, doc))
	o.progress(url, StateAnnotated)

	// A run that outlived its deadline is discarded even if it finished.
	if err := ctx.Err(); err != nil {
		return nil, nil, &stageError{stage: StateAnnotated, err: err}
	}

	title := article.Title
	if title == types.DefaultTitle && doc.Title != "" {
		title = doc.Title
	}

	rec := &types.Record{
		ID:               uuid.New(),
		URL:              url,
		Title:            title,
		BodyText:         article.BodyText,
		BodyHTML:         article.BodyHTML,
		DigestText:       summary.DigestText,
		TranslatedText:   annotation.TranslatedText,
		MatchKind:        annotation.MatchKind,
		ExtractionMethod: article.Method,
		Renderer:         doc.Renderer,
		FetchedAt:        doc.FetchedAt,
		CompletedAt:      o.opts.Now().UTC(),
	}
	return rec, doc, nil
}

// topicHint is the page title, falling back to the title the renderer saw.
func topicHint(article *types.ExtractedArticle, doc *types.SourceDocument) string {
	if article.Title != "" && article.Title != types.DefaultTitle {
		return article.Title
	}
	return doc.Title
}

func (o *Orchestrator) progress(url string, state State) {
	o.watchers.emit(ProgressEvent{URL: url, State: state, Message: stateMessages[state]})
}

func failedEvent(url string, perr *Error) ProgressEvent {
	return ProgressEvent{
		URL:     url,
		State:   StateFailed,
		Message: perr.Kind.Message(),
		Error:   &ErrorPayload{Kind: perr.Kind, Message: perr.Kind.Message()},
	}
}

// persist hands out to every sink in the background. Each sink runs
// independently; failures are logged and never reach the caller.
func (o *Orchestrator) persist(out Output, log zerolog.Logger) {
	if len(o.opts.Sinks) == 0 {
		return
	}
	o.writes.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.SinkTimeout)
		defer cancel()

		var g errgroup.Group
		for _, sink := range o.opts.Sinks {
			g.Go(func() error {
				if err := sink.Save(ctx, out); err != nil {
					log.Error().Err(err).Str("sink", sink.Name()).Msg("storage write failed")
					return err
				}
				log.Debug().Str("sink", sink.Name()).Msg("stored")
				return nil
			})
		}
		_ = g.Wait()
		return nil
	})
}
