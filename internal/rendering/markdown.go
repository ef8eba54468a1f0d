package rendering

import (
	"net/url"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
)

var (
	mdConverter     *converter.Converter
	mdConverterOnce sync.Once
)

// getMarkdownConverter returns a shared converter that replaces data URI
// images with alt-text placeholders instead of embedding them.
func getMarkdownConverter() *converter.Converter {
	mdConverterOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)
		// PriorityEarly runs before the commonmark img renderer.
		mdConverter.Register.RendererFor("img", converter.TagTypeInline,
			func(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
				src := dom.GetAttributeOr(n, "src", "")
				if !strings.HasPrefix(src, "data:") {
					return converter.RenderTryNext
				}
				if alt := strings.TrimSpace(dom.GetAttributeOr(n, "alt", "")); alt != "" {
					w.WriteString("[Image: " + alt + "]")
				}
				return converter.RenderSuccess
			},
			converter.PriorityEarly,
		)
	})
	return mdConverter
}

// HTMLToMarkdown converts an article fragment to CommonMark. Relative links
// and images resolve against pageURL.
func HTMLToMarkdown(fragment, pageURL string) (string, error) {
	conv := getMarkdownConverter()

	var (
		md  string
		err error
	)
	if u, perr := url.Parse(pageURL); perr == nil && u.Host != "" {
		md, err = conv.ConvertString(fragment, converter.WithDomain(u.Scheme+"://"+u.Host))
	} else {
		md, err = conv.ConvertString(fragment)
	}
	if err != nil {
		return "", &RenderError{URL: pageURL, Message: "markdown conversion failed", Cause: err}
	}
	return strings.TrimSpace(md), nil
}
