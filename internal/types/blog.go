// Package types provides type definitions for the records produced by the blog digest pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is used when a page has no usable <title>.
const DefaultTitle = "Untitled"

// SourceDocument is the raw page content retrieved for a URL.
// It is immutable once stored.
type SourceDocument struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	RawMarkup []byte    `json:"-"`
	Renderer  string    `json:"renderer,omitempty"` // http, browser, proxy
	FetchedAt time.Time `json:"fetched_at"`
}

// ExtractionMethod names the strategy that produced an article body.
type ExtractionMethod string

// MethodFallback marks a body taken from the full page text.
const MethodFallback ExtractionMethod = "fallback"

// ExtractedArticle is the main article content located in a SourceDocument.
// It is derived data and can always be regenerated from the source.
type ExtractedArticle struct {
	URL      string           `json:"url"`
	Title    string           `json:"title"`
	BodyText string           `json:"body_text"`
	BodyHTML string           `json:"-"` // Markup of the chosen region, for export
	Method   ExtractionMethod `json:"extraction_method"`
}

// Summary is the extractive digest of an article body.
type Summary struct {
	URL         string    `json:"url"`
	DigestText  string    `json:"digest_text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Empty reports whether no sentence qualified for the digest.
func (s Summary) Empty() bool {
	return s.DigestText == ""
}

// MatchKind describes how a lexicon lookup resolved.
type MatchKind string

const (
	// MatchExact is a direct key hit
	MatchExact MatchKind = "exact"
	// MatchFuzzy is a key found as a substring of the topic
	MatchFuzzy MatchKind = "fuzzy"
	// MatchNone means the input was returned unchanged
	MatchNone MatchKind = "none"
)

// Annotation is the lexicon rendering of a digest.
type Annotation struct {
	URL            string    `json:"url"`
	TranslatedText string    `json:"translated_text"`
	MatchKind      MatchKind `json:"match_kind"`
}

// Record is the finished output of one pipeline run for a URL.
type Record struct {
	ID               uuid.UUID        `json:"id"`
	URL              string           `json:"url"`
	Title            string           `json:"title"`
	BodyText         string           `json:"body_text"`
	BodyHTML         string           `json:"-"` // Not stored; used by Markdown export
	DigestText       string           `json:"digest_text"`
	TranslatedText   string           `json:"translated_text"`
	MatchKind        MatchKind        `json:"match_kind"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	Renderer         string           `json:"renderer,omitempty"`
	FetchedAt        time.Time        `json:"fetched_at"`
	CompletedAt      time.Time        `json:"completed_at"`
}

// HasDigest reports whether the record carries a non-empty digest.
func (r *Record) HasDigest() bool {
	return r != nil && r.DigestText != ""
}
