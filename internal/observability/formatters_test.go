package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paxto2002/blogtalkhees/internal/db"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRecord(&types.Record{
		URL:              "https://example.com/post",
		Title:            "Machine Learning Basics",
		DigestText:       "Models learn from data. Training takes time.",
		TranslatedText:   "مشین لرننگ",
		MatchKind:        types.MatchFuzzy,
		ExtractionMethod: "article",
		Renderer:         "http",
	})
	output := buf.String()

	assert.Contains(t, output, "MACHINE LEARNING BASICS")
	assert.Contains(t, output, "https://example.com/post")
	assert.Contains(t, output, "fuzzy")
	assert.Contains(t, output, "Models learn from data.")
	assert.Contains(t, output, "مشین لرننگ")
}

func TestPrintRecord_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecord(nil)
	assert.Empty(t, buf.String())
}

func TestPrintRecord_EmptyDigest(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecord(&types.Record{Title: "T", MatchKind: types.MatchNone})
	assert.Contains(t, buf.String(), "(no sentence qualified)")
}

func TestPrintBox_LinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("word ", 40)
	p.printBox("TITLE", long+"\nمختصر خلاصہ\n"+strings.Repeat("x", 200))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Greater(t, len(lines), 5)
	for _, line := range lines {
		assert.Equal(t, boxWidth, runewidth.StringWidth(line), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrapLine("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrapLine("one two three", 8))
	assert.Equal(t, []string{""}, wrapLine("", 10))
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(pipeline.ProgressEvent{State: pipeline.StateFetched, Message: "Page fetched"})
	p.PrintProgress(pipeline.ProgressEvent{State: pipeline.StateDone, Message: "Done"})
	p.PrintProgress(pipeline.ProgressEvent{State: pipeline.StateFailed, Message: "could not fetch the page"})

	output := buf.String()
	assert.Contains(t, output, "• fetched")
	assert.Contains(t, output, "✓ done")
	assert.Contains(t, output, "✗ failed")
}

func TestPrintTable_AlignsWideText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTable([]string{"A", "B"}, [][]string{
		{"ascii", "x"},
		{"你好", "y"},
		{"only one"},
	})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	width := runewidth.StringWidth(lines[0])
	for _, line := range lines {
		assert.Equal(t, width, runewidth.StringWidth(line), "line %q", line)
	}
	assert.True(t, strings.HasPrefix(lines[1], "| ---"))
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTable([]string{"A"}, nil)
	assert.Equal(t, "(no rows)\n", buf.String())
}

func TestPrintBlogsAndSummaries(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	renderer := "browser"

	p.PrintBlogs([]db.Blog{{URL: "https://example.com/a", Title: "First", Renderer: &renderer, CreatedAt: created}})
	p.PrintSummaries([]db.Summary{{URL: "https://example.com/a", Summary: "Digest\ntext", MatchKind: types.MatchExact, CreatedAt: created}})

	output := buf.String()
	assert.Contains(t, output, "2024-06-01")
	assert.Contains(t, output, "First")
	assert.Contains(t, output, "browser")
	assert.Contains(t, output, "Digest text", "newlines are collapsed inside cells")
}
