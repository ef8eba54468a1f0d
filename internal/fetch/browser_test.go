package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBrowserRenderer_Defaults(t *testing.T) {
	b := NewBrowserRenderer(BrowserOptions{ScrollIterations: -1})

	assert.Equal(t, 0, b.opts.ScrollIterations)
	assert.Equal(t, DefaultScrollSettle, b.opts.ScrollSettle)
	assert.Equal(t, RendererBrowser, b.Name())
}

func TestBrowserRenderer_Render(t *testing.T) {
	if os.Getenv("CHROME_TESTS") != "1" {
		t.Skip("set CHROME_TESTS=1 to run headless Chrome tests")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Rendered Post</title></head><body>
			<article id="a"></article>
			<script>document.getElementById("a").textContent = "Injected by script";</script>
		</body></html>`))
	}))
	defer server.Close()

	opts := DefaultBrowserOptions()
	opts.ScrollIterations = 2
	opts.ScrollSettle = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := NewBrowserRenderer(opts).Render(ctx, server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Rendered Post", page.Title)
	assert.Contains(t, string(page.HTML), "Injected by script")
}
