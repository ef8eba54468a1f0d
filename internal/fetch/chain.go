package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Renderer names recorded on SourceDocument.Renderer.
const (
	RendererHTTP    = "http"
	RendererBrowser = "browser"
	RendererProxy   = "proxy"
)

// MinContentLength is the visible text length below which a page is
// treated as a JavaScript shell and the next renderer in a Chain is tried.
const MinContentLength = 500

// Chain tries renderers in order within one attempt. A renderer that fails,
// or returns less than MinText characters of visible text, hands over to the
// next one. The last thin page is returned when nothing better turns up.
type Chain struct {
	renderers []Renderer
	minText   int
	logger    zerolog.Logger
}

// NewChain returns a Chain over renderers. minText <= 0 uses MinContentLength.
func NewChain(logger zerolog.Logger, minText int, renderers ...Renderer) *Chain {
	if minText <= 0 {
		minText = MinContentLength
	}
	return &Chain{renderers: renderers, minText: minText, logger: logger}
}

// Name reports the member names joined with "+".
func (c *Chain) Name() string {
	names := make([]string, len(c.renderers))
	for i, r := range c.renderers {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

// Render implements Renderer.
func (c *Chain) Render(ctx context.Context, url string) (*Page, error) {
	if len(c.renderers) == 0 {
		return nil, errors.New("no renderers configured")
	}

	var (
		thin *Page
		errs []error
	)
	for i, r := range c.renderers {
		page, err := r.Render(ctx, url)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			if IsPermanent(err) || ctx.Err() != nil {
				break
			}
			continue
		}
		if i == len(c.renderers)-1 || visibleTextLength(page.HTML) >= c.minText {
			return page, nil
		}
		c.logger.Debug().Str("url", url).Str("renderer", r.Name()).Msg("page text too short, trying next renderer")
		thin = page
	}

	if thin != nil {
		return thin, nil
	}
	return nil, errors.Join(errs...)
}
