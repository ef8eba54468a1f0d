package rendering

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

func testRecord() *types.Record {
	return &types.Record{
		URL:              "https://blog.example.com/posts/go",
		Title:            "Learning *Go* fast",
		BodyText:         "Plain body text.",
		BodyHTML:         `<h2>Intro</h2><p>See <a href="/docs">the docs</a>.</p><img src="data:image/png;base64,AAAA" alt="diagram">`,
		DigestText:       "Go is a small language with a big standard library. Concurrency is built in.",
		TranslatedText:   "گو ایک چھوٹی زبان ہے",
		MatchKind:        types.MatchExact,
		ExtractionMethod: "article",
		FetchedAt:        time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderMarkdown_SummaryOnly(t *testing.T) {
	md, err := RenderMarkdown(testRecord(), Options{})
	require.NoError(t, err)

	assert.Contains(t, md, `# Learning \*Go\* fast`)
	assert.Contains(t, md, "Source: <https://blog.example.com/posts/go>")
	assert.Contains(t, md, "Fetched: 2024-03-05T10:00:00Z")
	assert.Contains(t, md, "## Summary\n\nGo is a small language")
	assert.Contains(t, md, "## Translation\n\nگو ایک چھوٹی زبان ہے")
	assert.NotContains(t, md, "## Article")
}

func TestRenderMarkdown_WithArticle(t *testing.T) {
	md, err := RenderMarkdown(testRecord(), Options{IncludeArticle: true})
	require.NoError(t, err)

	assert.Contains(t, md, "## Article")
	assert.Contains(t, md, "## Intro")
	assert.Contains(t, md, "[the docs](https://blog.example.com/docs)")
	assert.Contains(t, md, "[Image: diagram]")
	assert.NotContains(t, md, "base64")
}

func TestRenderMarkdown_FallsBackToBodyText(t *testing.T) {
	rec := testRecord()
	rec.BodyHTML = ""

	md, err := RenderMarkdown(rec, Options{IncludeArticle: true})
	require.NoError(t, err)
	assert.Contains(t, md, "## Article\n\nPlain body text.")
}

func TestRenderMarkdown_EmptyDigest(t *testing.T) {
	rec := testRecord()
	rec.DigestText = ""

	md, err := RenderMarkdown(rec, Options{})
	require.NoError(t, err)
	assert.Contains(t, md, "_No sentence qualified for a summary._")
}

func TestRenderMarkdown_NilRecord(t *testing.T) {
	_, err := RenderMarkdown(nil, Options{})
	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
}

func TestRenderMarkdown_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .Title }} | {{ .Method }}"), 0644))

	md, err := RenderMarkdown(testRecord(), Options{TemplatePath: path})
	require.NoError(t, err)
	assert.Equal(t, "Learning \\*Go\\* fast | article\n", md)
}

func TestRenderMarkdown_TemplateErrors(t *testing.T) {
	_, err := RenderMarkdown(testRecord(), Options{TemplatePath: "/nonexistent/template.tmpl"})
	var tmplErr *TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Contains(t, err.Error(), "template file not found")

	path := filepath.Join(t.TempDir(), "broken.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .Title "), 0644))
	_, err = RenderMarkdown(testRecord(), Options{TemplatePath: path})
	require.ErrorAs(t, err, &tmplErr)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain title", "plain title"},
		{"a_b*c", `a\_b\*c`},
		{"#1 [draft]", `\#1 \[draft\]`},
		{"  spaced\n\nout ", "spaced out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMarkdown(tt.in), tt.in)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown(`<p><strong>Bold</strong> and <img src="https://cdn.example.com/a.png" alt="pic"></p>`, "")
	require.NoError(t, err)
	assert.Contains(t, md, "**Bold**")
	assert.Contains(t, md, "![pic](https://cdn.example.com/a.png)")
}
