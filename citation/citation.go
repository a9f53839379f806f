//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package citation turns ranked candidates into human-readable source
// references with bounded previews and relevance labels.
package citation

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/retrieval"
)

// MetadataRelativePath is the candidate metadata key holding the source path.
const MetadataRelativePath = "relative_path"

// UnknownPath is the sentinel path used when a candidate carries no
// relative_path metadata.
const UnknownPath = "Unknown"

// Defaults for preview construction.
const (
	DefaultPreviewLength = 200
	DefaultSnippetSize   = 150
)

const ellipsis = "..."

// Relevance labels by score bucket.
const (
	LabelHighlyRelevant     = "Highly Relevant"
	LabelRelevant           = "Relevant"
	LabelModeratelyRelevant = "Moderately Relevant"
	LabelSlightlyRelevant   = "Slightly Relevant"
	LabelMinimallyRelevant  = "Minimally Relevant"
)

// SourceReference is a user-facing pointer to the origin of retrieved
// content. It is immutable once built.
type SourceReference struct {
	DocumentID     string  `json:"documentID"`     // DocumentID references the document chunk.
	RelativePath   string  `json:"relativePath"`   // RelativePath is the path to the source document.
	Score          float64 `json:"score"`          // Score is the relevance score in [0, 1].
	ContentPreview string  `json:"contentPreview"` // ContentPreview is the bounded preview text.
}

// Builder builds source references and previews from ranked candidates.
type Builder struct {
	previewLength int
	snippetSize   int
}

// Option represents a functional option for configuring Builder.
type Option func(*Builder)

// WithPreviewLength sets the maximum content preview length.
func WithPreviewLength(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.previewLength = n
		}
	}
}

// WithSnippetSize sets the size of each query-aware snippet window.
func WithSnippetSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.snippetSize = n
		}
	}
}

// NewBuilder creates a new citation builder with options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		previewLength: DefaultPreviewLength,
		snippetSize:   DefaultSnippetSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildReferences maps ranked candidates to source references. Candidates
// without relative_path metadata fall back to the Unknown sentinel.
func (b *Builder) BuildReferences(candidates []*retrieval.Candidate) []*SourceReference {
	sources := make([]*SourceReference, 0, len(candidates))
	for _, c := range candidates {
		id := c.ID
		if id == "" {
			id = "unknown"
		}
		path := UnknownPath
		if raw, ok := c.Metadata[MetadataRelativePath].(string); ok && raw != "" {
			path = raw
		}
		sources = append(sources, &SourceReference{
			DocumentID:     id,
			RelativePath:   path,
			Score:          c.Score,
			ContentPreview: truncate(c.Content, b.previewLength),
		})
	}
	return sources
}

// BuildReferencesForQuery is BuildReferences with query-aware previews: each
// preview is a context window around the query terms rather than the leading
// slice of the content. An empty query falls back to BuildReferences.
func (b *Builder) BuildReferencesForQuery(candidates []*retrieval.Candidate, query string) []*SourceReference {
	if query == "" {
		return b.BuildReferences(candidates)
	}
	sources := make([]*SourceReference, 0, len(candidates))
	for _, c := range candidates {
		id := c.ID
		if id == "" {
			id = "unknown"
		}
		path := UnknownPath
		if raw, ok := c.Metadata[MetadataRelativePath].(string); ok && raw != "" {
			path = raw
		}
		sources = append(sources, &SourceReference{
			DocumentID:     id,
			RelativePath:   path,
			Score:          c.Score,
			ContentPreview: b.ContextPreview(c.Content, query),
		})
	}
	return sources
}

// RelevanceLabel maps a score to its human-readable relevance bucket.
func RelevanceLabel(score float64) string {
	switch {
	case score >= 0.8:
		return LabelHighlyRelevant
	case score >= 0.6:
		return LabelRelevant
	case score >= 0.4:
		return LabelModeratelyRelevant
	case score >= 0.2:
		return LabelSlightlyRelevant
	default:
		return LabelMinimallyRelevant
	}
}

// Validate reports whether the source references meet quality criteria: a
// non-empty list, scores in [0, 1], and non-empty document IDs and paths.
func Validate(sources []*SourceReference) bool {
	if len(sources) == 0 {
		log.Warn("no source references provided")
		return false
	}
	for i, src := range sources {
		if src.Score < 0 || src.Score > 1 {
			log.Warnf("source %d has invalid score: %v", i, src.Score)
			return false
		}
		if src.DocumentID == "" {
			log.Warnf("source %d has empty document id", i)
			return false
		}
		if src.RelativePath == "" {
			log.Warnf("source %d has empty relative path", i)
			return false
		}
	}
	return true
}

// FilterByThreshold returns the sources with a score of at least minScore.
func FilterByThreshold(sources []*SourceReference, minScore float64) []*SourceReference {
	filtered := make([]*SourceReference, 0, len(sources))
	for _, src := range sources {
		if src.Score >= minScore {
			filtered = append(filtered, src)
		}
	}
	return filtered
}

// SortByRelevance returns a new list sorted by score descending, stable on
// ties.
func SortByRelevance(sources []*SourceReference) []*SourceReference {
	sorted := make([]*SourceReference, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// TopK returns the k most relevant sources.
func TopK(sources []*SourceReference, k int) []*SourceReference {
	if k < 0 {
		k = 0
	}
	sorted := SortByRelevance(sources)
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// FormatCitation formats a source reference as human-readable citation text.
func FormatCitation(src *SourceReference) string {
	return fmt.Sprintf("[%s] (Relevance: %.2f)", src.RelativePath, src.Score)
}

// FormatCitations formats multiple source references as citation texts.
func FormatCitations(sources []*SourceReference) []string {
	citations := make([]string, len(sources))
	for i, src := range sources {
		citations[i] = FormatCitation(src)
	}
	return citations
}

// Preview is a detailed view of a source reference.
type Preview struct {
	DocumentID         string  `json:"documentID"`
	RelativePath       string  `json:"relativePath"`
	Score              float64 `json:"score"`
	Content            string  `json:"content"`
	RelevanceIndicator string  `json:"relevanceIndicator"`
	ContentLength      int     `json:"contentLength"`
}

// SourcePreview builds a detailed preview of a source reference. When
// fullContent is non-empty it replaces the stored preview text.
func (b *Builder) SourcePreview(src *SourceReference, fullContent string) *Preview {
	content := src.ContentPreview
	if fullContent != "" {
		content = fullContent
	}
	return &Preview{
		DocumentID:         src.DocumentID,
		RelativePath:       src.RelativePath,
		Score:              src.Score,
		Content:            content,
		RelevanceIndicator: RelevanceLabel(src.Score),
		ContentLength:      utf8.RuneCountInString(content),
	}
}

// truncate bounds content to maxLen characters, appending an ellipsis marker
// only when truncation actually occurred. Cuts fall on rune boundaries so
// multibyte content never yields invalid UTF-8.
func truncate(content string, maxLen int) string {
	if utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	return string([]rune(content)[:maxLen]) + ellipsis
}
