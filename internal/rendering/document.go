package rendering

import (
	_ "embed"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

//go:embed templates/record.md.tmpl
var defaultTemplate string

// TemplateData is the data passed to the document template.
type TemplateData struct {
	Title      string
	URL        string
	Fetched    string
	Method     string
	Digest     string
	Translated string
	Body       string // Markdown of the article, or its plain text
}

// Options configures RenderMarkdown.
type Options struct {
	// TemplatePath overrides the embedded template.
	TemplatePath string
	// IncludeArticle appends the full article after the summary.
	IncludeArticle bool
}

// RenderMarkdown renders rec as a Markdown document.
func RenderMarkdown(rec *types.Record, opts Options) (string, error) {
	if rec == nil {
		return "", &RenderError{Message: "no record to render"}
	}

	tmpl, err := parseTemplate(opts.TemplatePath)
	if err != nil {
		return "", err
	}

	data, err := buildTemplateData(rec, opts.IncludeArticle)
	if err != nil {
		return "", &RenderError{URL: rec.URL, Message: "failed to build template data", Cause: err}
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{Path: opts.TemplatePath, Message: "failed to execute template", Cause: err}
	}
	return strings.TrimSpace(result.String()) + "\n", nil
}

// parseTemplate reads the template at path, or the embedded one when path is empty.
func parseTemplate(path string) (*template.Template, error) {
	content := defaultTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &TemplateError{Path: path, Message: "template file not found", Cause: err}
			}
			return nil, &TemplateError{Path: path, Message: "failed to read template file", Cause: err}
		}
		content = string(raw)
	}

	tmpl, err := template.New("record").Parse(content)
	if err != nil {
		return nil, &TemplateError{Path: path, Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

func buildTemplateData(rec *types.Record, includeArticle bool) (TemplateData, error) {
	data := TemplateData{
		Title:      EscapeMarkdown(rec.Title),
		URL:        rec.URL,
		Method:     string(rec.ExtractionMethod),
		Digest:     rec.DigestText,
		Translated: rec.TranslatedText,
	}
	if data.Title == "" {
		data.Title = types.DefaultTitle
	}
	if !rec.FetchedAt.IsZero() {
		data.Fetched = rec.FetchedAt.UTC().Format(time.RFC3339)
	}

	if includeArticle {
		switch {
		case rec.BodyHTML != "":
			md, err := HTMLToMarkdown(rec.BodyHTML, rec.URL)
			if err != nil {
				return TemplateData{}, err
			}
			data.Body = md
		default:
			data.Body = rec.BodyText
		}
	}
	return data, nil
}
