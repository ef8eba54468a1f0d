package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseBody(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestRenderText_BlockBoundaries(t *testing.T) {
	doc := parseBody(t, `<div><p>First paragraph.</p><p>Second <b>bold</b> paragraph.</p><ul><li>One</li><li>Two</li></ul></div>`)

	assert.Equal(t, "First paragraph.\nSecond bold paragraph.\nOne\nTwo", RenderText(doc))
}

func TestRenderText_CollapsesWhitespace(t *testing.T) {
	doc := parseBody(t, "<p>  spaced \t\t out\n\n text  </p>")

	assert.Equal(t, "spaced out text", RenderText(doc))
}

func TestRenderText_WrappedSourceLinesStayOneLine(t *testing.T) {
	doc := parseBody(t, "<article><p>The first sentence is wrapped\n    across source lines.\n</p>\n<p>Second <em>paragraph</em>\n here.</p></article>")

	assert.Equal(t, "The first sentence is wrapped across source lines.\nSecond paragraph here.", RenderText(doc))
}

func TestRenderText_SkipsScriptsAndHead(t *testing.T) {
	doc := parseBody(t, `<html><head><title>T</title><style>p{}</style></head><body><script>alert(1)</script><p>Visible</p><!-- hidden --></body></html>`)

	assert.Equal(t, "Visible", RenderText(doc))
}

func TestRenderText_BreakElement(t *testing.T) {
	doc := parseBody(t, `<p>line one<br>line two</p>`)

	assert.Equal(t, "line one\nline two", RenderText(doc))
}

func TestRenderText_Empty(t *testing.T) {
	assert.Equal(t, "", RenderText())
}
