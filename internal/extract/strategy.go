package extract

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Candidate is the content region one strategy proposes.
type Candidate struct {
	Name   string
	Text   string
	HTML   string
	Length int
}

// Input is what a strategy sees: the noise-stripped document plus the
// original markup for strategies that do their own parsing.
type Input struct {
	Doc     *goquery.Document
	Raw     []byte
	PageURL *url.URL
}

// Strategy proposes a main content region.
type Strategy interface {
	Name() string
	Candidate(in Input) (Candidate, bool)
}

// SelectorStrategy takes the first element matching a CSS selector.
type SelectorStrategy struct {
	Selector string
}

// Name implements Strategy.
func (s SelectorStrategy) Name() string { return s.Selector }

// Candidate implements Strategy.
func (s SelectorStrategy) Candidate(in Input) (Candidate, bool) {
	sel := in.Doc.Find(s.Selector).First()
	if sel.Length() == 0 {
		return Candidate{}, false
	}
	return candidateFromSelection(s.Selector, sel), true
}

// ReadabilityStrategy scores the page with the Mozilla Readability algorithm.
type ReadabilityStrategy struct{}

// Name implements Strategy.
func (ReadabilityStrategy) Name() string { return "readability" }

// Candidate implements Strategy.
func (r ReadabilityStrategy) Candidate(in Input) (Candidate, bool) {
	article, err := readability.FromReader(bytes.NewReader(in.Raw), in.PageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return Candidate{}, false
	}

	nodes, err := html.ParseFragment(strings.NewReader(article.Content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return Candidate{}, false
	}

	text := RenderText(nodes...)
	return Candidate{
		Name:   r.Name(),
		Text:   text,
		HTML:   article.Content,
		Length: utf8.RuneCountInString(text),
	}, true
}

// DefaultSelectors are tried in order before readability.
var DefaultSelectors = []string{
	"article",
	"main",
	"[itemprop='articleBody']",
	".post-content",
	".article-content",
	".entry-content",
	".blog-post",
	".blog-content",
	"#article",
	"#content",
}

// DefaultStrategies returns the selector strategies followed by readability.
func DefaultStrategies() []Strategy {
	strategies := make([]Strategy, 0, len(DefaultSelectors)+1)
	for _, sel := range DefaultSelectors {
		strategies = append(strategies, SelectorStrategy{Selector: sel})
	}
	return append(strategies, ReadabilityStrategy{})
}

// StrategiesFromNames builds strategies from configured names. "readability"
// selects ReadabilityStrategy; anything else is a CSS selector.
func StrategiesFromNames(names []string) []Strategy {
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case "readability":
			strategies = append(strategies, ReadabilityStrategy{})
		default:
			strategies = append(strategies, SelectorStrategy{Selector: name})
		}
	}
	return strategies
}

func candidateFromSelection(name string, sel *goquery.Selection) Candidate {
	text := RenderText(sel.Nodes...)
	markup, _ := goquery.OuterHtml(sel)
	return Candidate{
		Name:   name,
		Text:   text,
		HTML:   markup,
		Length: utf8.RuneCountInString(text),
	}
}
