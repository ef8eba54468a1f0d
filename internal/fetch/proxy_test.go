package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyRenderer_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "https://blog.example.com/post?id=7", q.Get("url"))
		assert.Equal(t, "true", q.Get("render"))
		_, _ = w.Write([]byte("<html><head><title>Rendered</title></head><body>hi</body></html>"))
	}))
	defer server.Close()

	p := NewProxyRenderer(server.URL, "secret", 5*time.Second)
	page, err := p.Render(context.Background(), "https://blog.example.com/post?id=7")
	require.NoError(t, err)

	assert.Equal(t, "Rendered", page.Title)
	assert.Equal(t, RendererProxy, p.Name())
}

func TestProxyRenderer_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewProxyRenderer(server.URL, "wrong", time.Second).Render(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestProxyRenderer_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewProxyRenderer(server.URL, "k", time.Second).Render(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestProxyRenderer_DefaultBase(t *testing.T) {
	p := NewProxyRenderer("", "k", 0)
	u, err := p.requestURL("https://example.com")
	require.NoError(t, err)
	assert.Contains(t, u, "https://api.scraperapi.com/?")
	assert.Contains(t, u, "render=true")
}
