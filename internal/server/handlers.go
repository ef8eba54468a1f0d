package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/server/middleware"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

// decodeSubmit reads and validates a submission body.
func decodeSubmit(r *http.Request, w http.ResponseWriter) (string, error) {
	var req types.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return "", &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return "", &ErrValidation{Field: "url", Message: err.Error()}
	}
	return req.Target(), nil
}

// handleSubmit runs the pipeline for a URL and returns the record.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	url, err := decodeSubmit(r, w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	rec, err := s.deps.Pipeline.ProcessWithProgress(r.Context(), url, nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleSubmitStream runs the pipeline and streams progress via SSE
func (s *Server) handleSubmitStream(w http.ResponseWriter, r *http.Request) {
	url, err := decodeSubmit(r, w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	defer sse.Close()

	log := s.log.With().Str("request_id", middleware.GetRequestID(r.Context())).Str("url", url).Logger()
	onProgress := func(event pipeline.ProgressEvent) {
		// Terminal states are reported by complete/error below
		if event.State.Terminal() {
			return
		}
		if err := sse.WriteEvent("step", event); err != nil {
			log.Debug().Err(err).Msg("dropped progress event")
		}
	}

	rec, err := s.deps.Pipeline.ProcessWithProgress(r.Context(), url, onProgress)
	if err != nil {
		_, payload := HTTPStatus(err)
		sse.WriteError(payload)
		return
	}
	sse.WriteComplete(rec)
}

// handleListBlogs lists stored pages, newest first.
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Blogs == nil {
		s.unavailable(w, "blogs store is not configured")
		return
	}
	blogs, err := s.deps.Blogs.ListBlogs(r.Context(), listLimit(r))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"blogs": nonNil(blogs), "count": len(blogs)})
}

// handleListSummaries lists stored summaries, newest first.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summaries == nil {
		s.unavailable(w, "summaries store is not configured")
		return
	}
	summaries, err := s.deps.Summaries.ListSummaries(r.Context(), listLimit(r))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"summaries": nonNil(summaries), "count": len(summaries)})
}

// handleGetRecord returns the record for ?url=, from memory or the summaries store.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		s.errorResponse(w, r, &ErrValidation{Field: "url", Message: "url query parameter is required"})
		return
	}

	if rec, ok := s.deps.Pipeline.Lookup(url); ok {
		s.jsonResponse(w, http.StatusOK, rec)
		return
	}

	if s.deps.Summaries != nil {
		row, err := s.deps.Summaries.GetSummary(r.Context(), url)
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}
		if row != nil {
			s.jsonResponse(w, http.StatusOK, row.Record())
			return
		}
	}

	s.jsonResponse(w, http.StatusNotFound, ErrorPayload{Error: codeNotFound, Message: "no record for this URL"})
}

func (s *Server) unavailable(w http.ResponseWriter, msg string) {
	s.jsonResponse(w, http.StatusServiceUnavailable, ErrorPayload{Error: codeUnavailable, Message: msg})
}

func listLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

