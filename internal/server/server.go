// Package server provides the HTTP API for submitting blog URLs and reading results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/paxto2002/blogtalkhees/internal/db"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
	"github.com/paxto2002/blogtalkhees/internal/server/middleware"
	"github.com/paxto2002/blogtalkhees/internal/server/ratelimit"
	"github.com/paxto2002/blogtalkhees/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Processor runs the pipeline for a URL.
type Processor interface {
	ProcessWithProgress(ctx context.Context, url string, onProgress pipeline.ProgressCallback) (*types.Record, error)
	Lookup(url string) (*types.Record, bool)
}

// BlogLister reads the blogs store.
type BlogLister interface {
	ListBlogs(ctx context.Context, limit int) ([]db.Blog, error)
}

// SummaryReader reads the summaries store.
type SummaryReader interface {
	ListSummaries(ctx context.Context, limit int) ([]db.Summary, error)
	GetSummary(ctx context.Context, url string) (*db.Summary, error)
}

// Config holds server configuration
type Config struct {
	Port        int
	CORSOrigins []string
	// WriteTimeout must exceed the pipeline run timeout.
	WriteTimeout time.Duration
}

// Deps are the collaborators the handlers call. Blogs and Summaries may be
// nil when the matching store is not configured.
type Deps struct {
	Pipeline  Processor
	Blogs     BlogLister
	Summaries SummaryReader
	Limiter   *ratelimit.Limiter
	Logger    zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	deps       Deps
	log        zerolog.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{deps: deps, log: deps.Logger}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = pipeline.DefaultRunTimeout + 30*time.Second
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler(cfg.CORSOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handler(corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/submit/stream", s.handleSubmitStream)
	mux.HandleFunc("GET /api/blogs", s.handleListBlogs)
	mux.HandleFunc("GET /api/summaries", s.handleListSummaries)
	mux.HandleFunc("GET /api/records", s.handleGetRecord)
	mux.HandleFunc("GET /health", s.handleHealth)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(s.log),
		middleware.CORS(corsOrigins),
		s.withRateLimit,
	)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.deps.Limiter != nil {
		s.deps.Limiter.Stop()
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.deps.Limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.deps.Limiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"blogs":     s.deps.Blogs != nil,
		"summaries": s.deps.Summaries != nil,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes the status and payload for err.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg(payload.Message)
	}
	s.jsonResponse(w, status, payload)
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds())
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warn().Str("client", extractClientID(r)).Str("path", r.URL.Path).
		Int("limit", info.Limit).Msg("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
