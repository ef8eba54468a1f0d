// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/paxto2002/blogtalkhees/internal/db"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxCellWidth caps table columns
	maxCellWidth = 48
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are
// measured in terminal cells so Urdu and CJK text stay aligned.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(runewidth.Truncate(title, inner, "..."), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrapLine(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrapLine splits line on word boundaries into pieces at most width cells
// wide. Words longer than width are truncated.
func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var (
		out []string
		cur strings.Builder
		w   int
	)
	for _, word := range strings.Fields(line) {
		ww := runewidth.StringWidth(word)
		if ww > width {
			word = runewidth.Truncate(word, width, "...")
			ww = runewidth.StringWidth(word)
		}
		if w > 0 && w+1+ww > width {
			out = append(out, cur.String())
			cur.Reset()
			w = 0
		}
		if w > 0 {
			cur.WriteByte(' ')
			w++
		}
		cur.WriteString(word)
		w += ww
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// PrintRecord outputs a human-readable summary of a finished record.
func (p *Printer) PrintRecord(rec *types.Record) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:        %s\n", rec.URL))
	sb.WriteString(fmt.Sprintf("Extraction: %s\n", rec.ExtractionMethod))
	sb.WriteString(fmt.Sprintf("Match:      %s\n", rec.MatchKind))
	if rec.Renderer != "" {
		sb.WriteString(fmt.Sprintf("Renderer:   %s\n", rec.Renderer))
	}
	sb.WriteString("\nSummary:\n")
	if rec.DigestText == "" {
		sb.WriteString("  (no sentence qualified)\n")
	} else {
		sb.WriteString(rec.DigestText + "\n")
	}
	sb.WriteString("\nTranslation:\n")
	sb.WriteString(rec.TranslatedText)

	p.printBox(strings.ToUpper(rec.Title), sb.String())
}

// PrintProgress outputs one line per pipeline state transition.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	mark := "•"
	switch event.State {
	case pipeline.StateDone:
		mark = "✓"
	case pipeline.StateFailed:
		mark = "✗"
	}
	fmt.Fprintf(p.out, "%s %-10s %s\n", mark, event.State, event.Message)
}

// PrintBlogs outputs stored pages as a table.
func (p *Printer) PrintBlogs(blogs []db.Blog) {
	rows := make([][]string, 0, len(blogs))
	for _, b := range blogs {
		renderer := ""
		if b.Renderer != nil {
			renderer = *b.Renderer
		}
		rows = append(rows, []string{b.CreatedAt.UTC().Format(time.DateOnly), b.Title, b.URL, renderer})
	}
	p.PrintTable([]string{"DATE", "TITLE", "URL", "RENDERER"}, rows)
}

// PrintSummaries outputs stored summaries as a table.
func (p *Printer) PrintSummaries(summaries []db.Summary) {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{s.CreatedAt.UTC().Format(time.DateOnly), s.URL, string(s.MatchKind), s.Summary})
	}
	p.PrintTable([]string{"DATE", "URL", "MATCH", "SUMMARY"}, rows)
}

// PrintTable writes a pipe table with columns padded to display width.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "(no rows)")
		return
	}

	widths := make([]int, len(headers))
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, headers)
	for _, row := range rows {
		clipped := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				clipped[i] = runewidth.Truncate(strings.Join(strings.Fields(row[i]), " "), maxCellWidth, "...")
			}
		}
		cells = append(cells, clipped)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c), 3)
		}
	}

	for r, row := range cells {
		var sb strings.Builder
		sb.WriteString("|")
		for i, c := range row {
			sb.WriteString(" " + runewidth.FillRight(c, widths[i]) + " |")
		}
		fmt.Fprintln(p.out, sb.String())

		if r == 0 {
			sb.Reset()
			sb.WriteString("|")
			for _, w := range widths {
				sb.WriteString(" " + strings.Repeat("-", w) + " |")
			}
			fmt.Fprintln(p.out, sb.String())
		}
	}
}
