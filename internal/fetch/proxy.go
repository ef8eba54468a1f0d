package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultProxyURL is the ScraperAPI endpoint.
const DefaultProxyURL = "https://api.scraperapi.com/"

// ProxyRenderer asks a remote rendering service to load the page, in the
// ScraperAPI request shape: {base}?api_key=...&url=...&render=true.
type ProxyRenderer struct {
	BaseURL      string
	APIKey       string
	client       *http.Client
	maxBodyBytes int64
}

// NewProxyRenderer returns a ProxyRenderer. baseURL "" uses DefaultProxyURL.
func NewProxyRenderer(baseURL, apiKey string, timeout time.Duration) *ProxyRenderer {
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProxyRenderer{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		client:       &http.Client{Timeout: timeout},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Name implements Renderer.
func (p *ProxyRenderer) Name() string { return RendererProxy }

// Render implements Renderer.
func (p *ProxyRenderer) Render(ctx context.Context, target string) (*Page, error) {
	endpoint, err := p.requestURL(target)
	if err != nil {
		return nil, &Error{URL: target, Message: "invalid proxy endpoint", Permanent: true, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to create request", Permanent: true, Cause: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{URL: target, Message: "proxy request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			URL:        target,
			Message:    fmt.Sprintf("proxy returned HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Permanent:  isPermanentStatus(resp.StatusCode) || resp.StatusCode == http.StatusUnauthorized,
		}
	}

	body, err := readLimited(resp.Body, p.maxBodyBytes)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to read proxy response", Cause: err}
	}
	return &Page{HTML: body, Title: titleOf(body)}, nil
}

func (p *ProxyRenderer) requestURL(target string) (string, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", err
	}
	q := base.Query()
	q.Set("api_key", p.APIKey)
	q.Set("url", target)
	q.Set("render", "true")
	base.RawQuery = q.Encode()
	return base.String(), nil
}
