package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/paxto2002/blogtalkhees/internal/extract"
	"github.com/paxto2002/blogtalkhees/internal/fetch"
	"github.com/paxto2002/blogtalkhees/internal/lexicon"
)

// Kind classifies a failed run.
type Kind string

const (
	KindInvalidURL          Kind = "invalid_url"
	KindFetchExhausted      Kind = "fetch_exhausted"
	KindInsufficientContent Kind = "insufficient_content"
	KindLexiconUnavailable  Kind = "lexicon_unavailable"
	KindTimeout             Kind = "timeout"
	KindInternal            Kind = "internal_error"
)

// Message returns the human-readable text shown to callers for k.
func (k Kind) Message() string {
	switch k {
	case KindInvalidURL:
		return "the URL is not a valid http or https address"
	case KindFetchExhausted:
		return "could not fetch the page"
	case KindInsufficientContent:
		return "page had no usable article text"
	case KindLexiconUnavailable:
		return "translation lexicon is unavailable"
	case KindTimeout:
		return "processing took too long and was abandoned"
	default:
		return "unexpected error"
	}
}

// ErrLexiconUnavailable is reported when the orchestrator has no annotator.
var ErrLexiconUnavailable = errors.New("lexicon not loaded")

// Error is the single failure type returned by Process.
type Error struct {
	Kind    Kind
	Stage   State
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf classifies any error from the pipeline or its stages.
// A nil error has no kind and returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	var loadErr *lexicon.LoadError
	switch {
	case errors.Is(err, fetch.ErrInvalidURL):
		return KindInvalidURL
	case errors.Is(err, fetch.ErrExhausted):
		// Checked before context errors: per-attempt timeouts live inside.
		return KindFetchExhausted
	case errors.Is(err, extract.ErrInsufficientContent):
		return KindInsufficientContent
	case errors.Is(err, ErrLexiconUnavailable), errors.As(err, &loadErr):
		return KindLexiconUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	default:
		return KindInternal
	}
}

// wrap turns a stage error into an *Error. Errors already wrapped pass through.
func wrap(stage State, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	kind := KindOf(err)
	return &Error{Kind: kind, Stage: stage, Message: kind.Message(), Cause: err}
}
