// Package fetch retrieves raw page markup for a blog URL.
// A Fetcher runs a Renderer (plain HTTP, headless browser or remote proxy)
// under a bounded retry policy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// DefaultTimeout is the default per-attempt network timeout.
const DefaultTimeout = 30 * time.Second

// Timeout bounds accepted by configuration.
const (
	MinTimeout = 15 * time.Second
	MaxTimeout = 45 * time.Second
)

// DefaultUserAgent is sent by the HTTP renderer.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// ErrExhausted is matched by errors.Is on an ExhaustedError.
var ErrExhausted = errors.New("fetch attempts exhausted")

// Error represents a failure of a single fetch attempt.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	// Permanent marks failures that retrying cannot fix (404, 410, 451,
	// blocked addresses).
	Permanent bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Is lets errors.Is(err, ErrExhausted) match.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Page is the output of one successful render.
type Page struct {
	HTML  []byte
	Title string
}

// Renderer produces page markup for a URL in a single attempt.
type Renderer interface {
	Name() string
	Render(ctx context.Context, url string) (*Page, error)
}

// Options configures a Fetcher.
type Options struct {
	Retry   RetryPolicy
	Timeout time.Duration
	Logger  zerolog.Logger
	// Now is the clock used to stamp FetchedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Retry:   DefaultRetryPolicy(),
		Timeout: DefaultTimeout,
		Logger:  zerolog.Nop(),
		Now:     time.Now,
	}
}

// Fetcher retrieves source documents with retry and backoff.
// It has no persistence side effects.
type Fetcher struct {
	renderer Renderer
	opts     Options
}

// New returns a Fetcher that renders through r.
func New(r Renderer, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Fetcher{renderer: r, opts: opts}
}

// Fetch retrieves rawURL. It returns ErrInvalidURL without any network I/O
// when the URL is malformed, and an ExhaustedError wrapping the last
// attempt's error when every attempt fails.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*types.SourceDocument, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	log := f.opts.Logger.With().Str("url", rawURL).Str("renderer", f.renderer.Name()).Logger()

	var page *Page
	attempts, err := f.opts.Retry.Do(ctx, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()

		p, err := f.renderer.Render(attemptCtx, rawURL)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("fetch attempt failed")
			return err
		}
		page = p
		return nil
	}, IsPermanent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExhaustedError{URL: rawURL, Attempts: attempts, Last: err}
	}

	log.Debug().Int("attempts", attempts).Int("bytes", len(page.HTML)).Msg("fetched")

	return &types.SourceDocument{
		URL:       rawURL,
		Title:     strings.TrimSpace(page.Title),
		RawMarkup: page.HTML,
		Renderer:  f.renderer.Name(),
		FetchedAt: f.opts.Now().UTC(),
	}, nil
}

// ValidateURL checks that raw is an absolute http or https URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, raw)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}
	return u, nil
}

// IsPermanent reports whether err should stop retrying.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrInvalidURL) {
		return true
	}
	var fe *Error
	return errors.As(err, &fe) && fe.Permanent
}
