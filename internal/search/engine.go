// Package search provides in-memory search over outline entries. Matching
// ignores case and Vietnamese diacritics, so "chuong" finds "Chương".
package search

import (
	"errors"
	"strings"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
)

// ErrEmptyQuery is returned when a query has no searchable terms.
var ErrEmptyQuery = errors.New("empty search query")

// Default snippet markers wrap matched terms.
const (
	DefaultHighlightStart = "«"
	DefaultHighlightEnd   = "»"
)

// Options configures search behavior.
type Options struct {
	// Limit is the maximum number of results to return. Zero means 20.
	Limit int

	// Level restricts results to entries at one level. Nil matches all.
	Level *outline.Level

	// MinScore is the minimum relevance score for results (0.0-1.0).
	MinScore float64
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{Limit: 20}
}

// WithLimit returns a copy of the options with the specified limit.
func (o Options) WithLimit(limit int) Options {
	o.Limit = limit
	return o
}

// WithLevel returns a copy of the options restricted to level.
func (o Options) WithLevel(level outline.Level) Options {
	o.Level = &level
	return o
}

// WithMinScore returns a copy of the options with the specified minimum score.
func (o Options) WithMinScore(minScore float64) Options {
	o.MinScore = minScore
	return o
}

// Result is a matched entry.
type Result struct {
	Document Document

	// Score is the relevance score (0.0-1.0). Higher is better.
	Score float64

	// Snippet is a fragment of the content or summary around the first
	// match, with matched terms wrapped in highlight markers. It is empty
	// when only the title matched.
	Snippet string
}

// Document is one searchable outline entry.
type Document struct {
	ID      string
	Level   outline.Level
	Title   string
	Summary string
	Content string

	// Path is the titles from the root down to the entry's parent.
	Path []string
}

// Breadcrumb joins the path and the title for display.
func (d Document) Breadcrumb() string {
	parts := append(append([]string(nil), d.Path...), d.Title)
	return strings.Join(parts, " › ")
}

// Documents flattens an outline into documents in outline order.
func Documents(root outline.Node) []Document {
	var docs []Document
	var walk func(n outline.Node, path []string)
	walk = func(n outline.Node, path []string) {
		docs = append(docs, Document{
			ID:      n.ID,
			Level:   n.Level,
			Title:   n.Title,
			Summary: n.Summary,
			Content: n.Content,
			Path:    path,
		})
		childPath := append(append([]string(nil), path...), n.Title)
		for _, c := range n.Children {
			walk(c, childPath)
		}
	}
	walk(root, nil)
	return docs
}
