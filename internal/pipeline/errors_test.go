package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paxto2002/blogtalkhees/internal/extract"
	"github.com/paxto2002/blogtalkhees/internal/fetch"
	"github.com/paxto2002/blogtalkhees/internal/lexicon"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"invalid url", fmt.Errorf("%w: bad", fetch.ErrInvalidURL), KindInvalidURL},
		{"exhausted", &fetch.ExhaustedError{URL: "u", Attempts: 3, Last: errors.New("x")}, KindFetchExhausted},
		{"exhausted by attempt timeouts", &fetch.ExhaustedError{URL: "u", Attempts: 3, Last: context.DeadlineExceeded}, KindFetchExhausted},
		{"insufficient", &extract.InsufficientContentError{URL: "u", Length: 5, Min: 100}, KindInsufficientContent},
		{"lexicon load", &lexicon.LoadError{Source: "f", Cause: errors.New("x")}, KindLexiconUnavailable},
		{"no annotator", ErrLexiconUnavailable, KindLexiconUnavailable},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"cancelled", fmt.Errorf("wrapped: %w", context.Canceled), KindTimeout},
		{"unknown", errors.New("boom"), KindInternal},
		{"already classified", &Error{Kind: KindInsufficientContent}, KindInsufficientContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_MessagesAreDistinct(t *testing.T) {
	seen := map[string]Kind{}
	for _, k := range []Kind{KindInvalidURL, KindFetchExhausted, KindInsufficientContent, KindLexiconUnavailable, KindTimeout, KindInternal} {
		msg := k.Message()
		assert.NotEmpty(t, msg)
		_, dup := seen[msg]
		assert.False(t, dup, "duplicate message for %s", k)
		seen[msg] = k
	}
	assert.Equal(t, "unexpected error", KindInternal.Message())
}

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := wrap(StateStart, cause)

	assert.Equal(t, KindInternal, err.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal_error at start: unexpected error: dial tcp: refused", err.Error())

	// Wrapping twice keeps the original classification
	assert.Same(t, err, wrap(StateDone, err))
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateFetched.Terminal())
}
