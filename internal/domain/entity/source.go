package entity

import (
	"fmt"
	"strings"
)

// SourceKind identifies how a source endpoint is parsed.
type SourceKind string

const (
	// SourceKindRSS is an RSS or Atom feed document.
	SourceKindRSS SourceKind = "rss"
	// SourceKindHTML is an HTML category page listing <article> blocks.
	SourceKindHTML SourceKind = "html"
)

// Source is one configured upstream endpoint. Sources are static configuration
// and read-only at runtime.
type Source struct {
	Category  string     `json:"category" yaml:"category"`
	URL       string     `json:"url" yaml:"url"`
	Kind      SourceKind `json:"kind" yaml:"kind"`
	Publisher string     `json:"publisher,omitempty" yaml:"publisher,omitempty"`
}

// Validate checks the source fields. An empty Kind is normalized to RSS.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}

	if s.Kind == "" {
		s.Kind = SourceKindRSS
	}
	switch s.Kind {
	case SourceKindRSS, SourceKindHTML:
	default:
		return &ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind %q (must be rss or html)", s.Kind),
		}
	}

	return ValidateURL(s.URL)
}

// CacheKey is the per-source cache identity: category label plus endpoint.
func (s Source) CacheKey() string {
	return "source:" + s.Category + "|" + s.URL
}
