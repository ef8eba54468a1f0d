package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxBodyBytes caps a single HTTP response body.
const DefaultMaxBodyBytes int64 = 8 * 1024 * 1024

// HTTPOptions configures an HTTPRenderer.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// BrowserTLS dials https with a browser TLS fingerprint.
	BrowserTLS bool
	// AllowPrivate disables the private address guard. Tests against
	// httptest servers need it.
	AllowPrivate bool
	// MaxBodyBytes caps the response body; 0 means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// MaxConcurrent limits in-flight requests; 0 means unlimited.
	MaxConcurrent int
	// Client overrides the transport entirely.
	Client *http.Client
}

// DefaultHTTPOptions returns sensible defaults for fetching.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		BrowserTLS:   true,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// HTTPRenderer fetches markup with a single GET.
type HTTPRenderer struct {
	client  *http.Client
	opts    HTTPOptions
	limiter chan struct{}
	once    sync.Once
}

// NewHTTPRenderer builds an HTTPRenderer from opts.
func NewHTTPRenderer(opts HTTPOptions) *HTTPRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	client := opts.Client
	if client == nil {
		var rt http.RoundTripper = newStandardTransport(opts.Timeout, opts.AllowPrivate)
		if opts.BrowserTLS {
			rt = newBrowserTransport(opts.Timeout, opts.AllowPrivate)
		}
		client = &http.Client{Timeout: opts.Timeout, Transport: rt}
	}

	return &HTTPRenderer{client: client, opts: opts}
}

// Name implements Renderer.
func (r *HTTPRenderer) Name() string { return RendererHTTP }

// Render implements Renderer.
func (r *HTTPRenderer) Render(ctx context.Context, urlStr string) (*Page, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Permanent: true, Cause: err}
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	for key, value := range r.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		var blocked *BlockedAddressError
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Permanent: errors.As(err, &blocked), Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Permanent:  isPermanentStatus(resp.StatusCode),
		}
	}

	body, err := readLimited(resp.Body, r.opts.MaxBodyBytes)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	return &Page{HTML: body, Title: titleOf(body)}, nil
}

func (r *HTTPRenderer) acquire(ctx context.Context) error {
	if r.opts.MaxConcurrent <= 0 {
		return nil
	}
	r.once.Do(func() { r.limiter = make(chan struct{}, r.opts.MaxConcurrent) })
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *HTTPRenderer) release() {
	if r.opts.MaxConcurrent <= 0 {
		return
	}
	<-r.limiter
}

func isPermanentStatus(code int) bool {
	switch code {
	case http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	}
	return false
}

// readLimited reads up to limit bytes and fails when the body is larger.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds maximum allowed size (%d bytes)", limit)
	}
	return data, nil
}

// titleOf returns the trimmed <title> text, or "" when absent or unparsable.
func titleOf(markup []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// visibleTextLength approximates how much readable text the page carries.
func visibleTextLength(markup []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return 0
	}
	doc.Find("script, style, noscript, template").Remove()
	return len([]rune(strings.Join(strings.Fields(doc.Find("body").Text()), " ")))
}
