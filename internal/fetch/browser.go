package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Scroll loop limits for lazily loaded pages.
const (
	DefaultScrollIterations = 10
	DefaultScrollSettle     = time.Second
)

// BrowserOptions configures a BrowserRenderer.
type BrowserOptions struct {
	// ExecPath points at a Chrome binary; empty lets chromedp search.
	ExecPath         string
	ScrollIterations int
	ScrollSettle     time.Duration
	UserAgent        string
	Logger           zerolog.Logger
}

// DefaultBrowserOptions returns the scroll limits and a silent logger.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		ScrollIterations: DefaultScrollIterations,
		ScrollSettle:     DefaultScrollSettle,
		UserAgent:        DefaultUserAgent,
		Logger:           zerolog.Nop(),
	}
}

// BrowserRenderer renders pages in headless Chrome. Requires Chrome or
// Chromium on the host.
type BrowserRenderer struct {
	opts BrowserOptions
}

// NewBrowserRenderer returns a BrowserRenderer.
func NewBrowserRenderer(opts BrowserOptions) *BrowserRenderer {
	if opts.ScrollIterations < 0 {
		opts.ScrollIterations = 0
	}
	if opts.ScrollSettle <= 0 {
		opts.ScrollSettle = DefaultScrollSettle
	}
	return &BrowserRenderer{opts: opts}
}

// Name implements Renderer.
func (b *BrowserRenderer) Name() string { return RendererBrowser }

// blockedResources are failed before they reach the network.
var blockedResources = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeMedia:      true,
}

// Render implements Renderer. The caller's context bounds the whole render.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (*Page, error) {
	log := b.opts.Logger.With().Str("url", url).Logger()
	log.Debug().Msg("starting headless browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(b.opts.UserAgent))
	}
	if b.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		paused, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(browserCtx)
			execCtx := cdp.WithExecutor(browserCtx, c.Target)
			if blockedResources[paused.ResourceType] {
				_ = cdpfetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = cdpfetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})

	var (
		html  string
		title string
	)
	err := chromedp.Run(browserCtx,
		cdpfetch.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return b.scrollToEnd(ctx)
		}),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	log.Debug().Int("bytes", len(html)).Msg("rendered")
	return &Page{HTML: []byte(html), Title: title}, nil
}

const scrollScript = `(() => { window.scrollTo(0, document.body.scrollHeight); return document.body.scrollHeight; })()`

// scrollToEnd scrolls until the document height stops growing or the
// iteration limit is reached.
func (b *BrowserRenderer) scrollToEnd(ctx context.Context) error {
	var previous float64 = -1
	for i := 0; i < b.opts.ScrollIterations; i++ {
		var height float64
		if err := chromedp.Evaluate(scrollScript, &height).Do(ctx); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if height == previous {
			return nil
		}
		previous = height
		if err := sleep(ctx, b.opts.ScrollSettle); err != nil {
			return err
		}
	}
	return nil
}
