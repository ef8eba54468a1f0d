package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articlePage(words int) *Page {
	body := strings.Repeat("word ", words)
	return &Page{HTML: []byte("<html><body><p>" + body + "</p></body></html>")}
}

func TestChain_FirstRendererSufficient(t *testing.T) {
	first := &stubRenderer{name: "http", results: []stubResult{{page: articlePage(200)}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{page: articlePage(300)}}}

	page, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, articlePage(200).HTML, page.HTML)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestChain_FallsBackOnThinPage(t *testing.T) {
	shell := &Page{HTML: []byte(`<html><body><div id="root"></div><script>boot()</script></body></html>`)}
	first := &stubRenderer{name: "http", results: []stubResult{{page: shell}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{page: articlePage(300)}}}

	page, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, articlePage(300).HTML, page.HTML)
	assert.Equal(t, int32(1), second.calls.Load())
}

func TestChain_FallsBackOnError(t *testing.T) {
	first := &stubRenderer{name: "http", results: []stubResult{{err: errors.New("reset")}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{page: articlePage(10)}}}

	page, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.NotNil(t, page)
}

func TestChain_KeepsThinPageWhenLaterRenderersFail(t *testing.T) {
	thin := articlePage(3)
	first := &stubRenderer{name: "http", results: []stubResult{{page: thin}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{err: errors.New("no chrome")}}}

	page, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, thin, page)
}

func TestChain_AllFail(t *testing.T) {
	first := &stubRenderer{name: "http", results: []stubResult{{err: errors.New("reset")}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{err: errors.New("no chrome")}}}

	_, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http: reset")
	assert.Contains(t, err.Error(), "browser: no chrome")
}

func TestChain_PermanentErrorStops(t *testing.T) {
	first := &stubRenderer{name: "http", results: []stubResult{{err: &Error{URL: "u", Message: "HTTP status 404", StatusCode: 404, Permanent: true}}}}
	second := &stubRenderer{name: "browser", results: []stubResult{{page: articlePage(300)}}}

	_, err := NewChain(zerolog.Nop(), 0, first, second).Render(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestChain_Name(t *testing.T) {
	c := NewChain(zerolog.Nop(), 0, &stubRenderer{name: "http"}, &stubRenderer{name: "browser"})
	assert.Equal(t, "http+browser", c.Name())
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(zerolog.Nop(), 0).Render(context.Background(), "https://example.com")
	assert.Error(t, err)
}
