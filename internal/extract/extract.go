// Package extract locates the main article text inside fetched page markup.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// Defaults
const (
	// DefaultMinRegionChars is the text length a strategy candidate must exceed.
	DefaultMinRegionChars = 200
	// DefaultMinBodyChars is the least text a page may yield before extraction fails.
	DefaultMinBodyChars = 100
	// DefaultMaxBodyChars caps the body text handed to later stages.
	DefaultMaxBodyChars = 10000
)

// NoiseSelectors are removed before any strategy runs.
var NoiseSelectors = []string{
	"script", "style", "noscript", "template", "nav", "footer", "header",
	"aside", "form", "iframe", "svg",
	".ad", ".ads", ".advertisement", ".sidebar", ".popup",
	".cookie-banner", ".cookie-consent", "#cookie-banner", "[aria-label='cookie banner']",
}

// ErrInsufficientContent is matched by errors.Is on an InsufficientContentError.
var ErrInsufficientContent = errors.New("insufficient content")

// InsufficientContentError reports a page without enough article text.
type InsufficientContentError struct {
	URL    string
	Length int
	Min    int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("page had no usable article text: %s yielded %d characters (need %d)", e.URL, e.Length, e.Min)
}

// Is lets errors.Is(err, ErrInsufficientContent) match.
func (e *InsufficientContentError) Is(target error) bool {
	return target == ErrInsufficientContent
}

// Options configures an Extractor.
type Options struct {
	Strategies     []Strategy
	MinRegionChars int
	MinBodyChars   int
	MaxBodyChars   int
}

// DefaultOptions returns the production thresholds and strategy order.
func DefaultOptions() Options {
	return Options{
		Strategies:     DefaultStrategies(),
		MinRegionChars: DefaultMinRegionChars,
		MinBodyChars:   DefaultMinBodyChars,
		MaxBodyChars:   DefaultMaxBodyChars,
	}
}

// Extractor runs the strategy list against page markup. It is stateless and
// safe for concurrent use.
type Extractor struct {
	opts Options
}

// New returns an Extractor. Zero thresholds take their defaults; a nil
// strategy list uses DefaultStrategies.
func New(opts Options) *Extractor {
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.MinRegionChars <= 0 {
		opts.MinRegionChars = DefaultMinRegionChars
	}
	if opts.MinBodyChars <= 0 {
		opts.MinBodyChars = DefaultMinBodyChars
	}
	if opts.MaxBodyChars <= 0 {
		opts.MaxBodyChars = DefaultMaxBodyChars
	}
	return &Extractor{opts: opts}
}

// Extract returns the article found in rawMarkup. The first strategy whose
// text exceeds MinRegionChars wins; otherwise the whole body is used with
// Method "fallback". A page whose fallback text is shorter than MinBodyChars
// fails with an InsufficientContentError.
func (e *Extractor) Extract(pageURL string, rawMarkup []byte) (*types.ExtractedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawMarkup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		title = types.DefaultTitle
	}

	doc.Find(strings.Join(NoiseSelectors, ", ")).Remove()

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed == nil {
		parsed = &url.URL{}
	}
	in := Input{Doc: doc, Raw: rawMarkup, PageURL: parsed}

	chosen, ok := e.pick(in)
	if !ok {
		chosen = candidateFromSelection(string(types.MethodFallback), doc.Find("body"))
		if chosen.Length < e.opts.MinBodyChars {
			return nil, &InsufficientContentError{URL: pageURL, Length: chosen.Length, Min: e.opts.MinBodyChars}
		}
	}

	return &types.ExtractedArticle{
		URL:      pageURL,
		Title:    title,
		BodyText: truncateRunes(chosen.Text, e.opts.MaxBodyChars),
		BodyHTML: chosen.HTML,
		Method:   types.ExtractionMethod(chosen.Name),
	}, nil
}

func (e *Extractor) pick(in Input) (Candidate, bool) {
	for _, s := range e.opts.Strategies {
		c, ok := s.Candidate(in)
		if ok && c.Length > e.opts.MinRegionChars {
			return c, true
		}
	}
	return Candidate{}, false
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
