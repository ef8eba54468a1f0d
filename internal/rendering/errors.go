// Package rendering exports pipeline records as Markdown documents.
package rendering

import "fmt"

// TemplateError reports a document template that could not be loaded or executed.
// Path is empty for the built-in template.
type TemplateError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", msg, e.Cause)
	}
	return "template error: " + msg
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError reports a record that could not be turned into Markdown.
type RenderError struct {
	URL     string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	prefix := "render error"
	if e.URL != "" {
		prefix = "render error for " + e.URL
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
