package pipeline

import (
	"sync"

	"github.com/paxto2002/blogtalkhees/internal/types"
)

// State is a step of a pipeline run.
type State string

const (
	StateStart      State = "start"
	StateFetched    State = "fetched"
	StateExtracted  State = "extracted"
	StateSummarized State = "summarized"
	StateAnnotated  State = "annotated"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// ProgressEvent is emitted once per state transition.
type ProgressEvent struct {
	URL     string        `json:"url"`
	State   State         `json:"state"`
	Message string        `json:"message"`
	Record  *types.Record `json:"record,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload is the wire form of an *Error.
type ErrorPayload struct {
	Kind    Kind   `json:"error"`
	Message string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// watchers fans progress for an in-flight URL out to every caller waiting on it.
type watchers struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]ProgressCallback
}

func (w *watchers) subscribe(url string, fn ProgressCallback) func() {
	if fn == nil {
		return func() {}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subs == nil {
		w.subs = make(map[string]map[int]ProgressCallback)
	}
	if w.subs[url] == nil {
		w.subs[url] = make(map[int]ProgressCallback)
	}
	id := w.next
	w.next++
	w.subs[url][id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[url], id)
		if len(w.subs[url]) == 0 {
			delete(w.subs, url)
		}
	}
}

func (w *watchers) emit(ev ProgressEvent) {
	w.mu.Lock()
	fns := make([]ProgressCallback, 0, len(w.subs[ev.URL]))
	for _, fn := range w.subs[ev.URL] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

var stateMessages = map[State]string{
	StateStart:      "Fetching page",
	StateFetched:    "Page fetched, extracting article",
	StateExtracted:  "Article extracted, summarizing",
	StateSummarized: "Summary ready, translating",
	StateAnnotated:  "Translation ready",
	StateDone:       "Done",
}
