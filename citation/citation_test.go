//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package citation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-rag-go/retrieval"
)

func TestBuildReferences(t *testing.T) {
	long := strings.Repeat("x", 300)
	short := strings.Repeat("y", 150)

	candidates := []*retrieval.Candidate{
		{
			ID:       "doc-1",
			Content:  long,
			Score:    0.9,
			Metadata: map[string]any{MetadataRelativePath: "docs/intro.md"},
		},
		{
			ID:      "doc-2",
			Content: short,
			Score:   0.5,
		},
		{
			ID:      "",
			Content: "tiny",
			Score:   0.1,
		},
	}

	sources := NewBuilder().BuildReferences(candidates)
	require.Len(t, sources, 3)

	// Truncated preview carries the ellipsis marker: 200 chars + 3.
	assert.Equal(t, "doc-1", sources[0].DocumentID)
	assert.Equal(t, "docs/intro.md", sources[0].RelativePath)
	assert.Len(t, sources[0].ContentPreview, 203)
	assert.True(t, strings.HasSuffix(sources[0].ContentPreview, "..."))

	// Short content is returned unchanged, no marker.
	assert.Equal(t, UnknownPath, sources[1].RelativePath)
	assert.Equal(t, short, sources[1].ContentPreview)

	// Empty candidate ID falls back to the unknown sentinel.
	assert.Equal(t, "unknown", sources[2].DocumentID)
}

func TestBuildReferencesMultibyte(t *testing.T) {
	content := strings.Repeat("世", 300)
	sources := NewBuilder().BuildReferences([]*retrieval.Candidate{
		{ID: "doc-1", Content: content, Score: 0.9},
	})
	require.Len(t, sources, 1)

	// Truncation counts characters, never splitting a rune.
	preview := sources[0].ContentPreview
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, 203, utf8.RuneCountInString(preview))
	assert.Equal(t, strings.Repeat("世", 200)+"...", preview)
}

func TestBuildReferencesForQuery(t *testing.T) {
	content := strings.Repeat("a", 200) + " payload " + strings.Repeat("b", 200)
	candidates := []*retrieval.Candidate{
		{ID: "doc-1", Content: content, Score: 0.9},
	}

	b := NewBuilder(WithSnippetSize(40))

	// The preview window centers on the query term instead of the head.
	sources := b.BuildReferencesForQuery(candidates, "payload")
	require.Len(t, sources, 1)
	assert.Contains(t, sources[0].ContentPreview, "payload")
	assert.LessOrEqual(t, len(sources[0].ContentPreview), 80)

	// Empty query degrades to the plain leading preview.
	sources = b.BuildReferencesForQuery(candidates, "")
	require.Len(t, sources, 1)
	assert.Equal(t, NewBuilder().BuildReferences(candidates)[0].ContentPreview, sources[0].ContentPreview)
}

func TestRelevanceLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.85, LabelHighlyRelevant},
		{0.8, LabelHighlyRelevant},
		{0.6, LabelRelevant},
		{0.55, LabelModeratelyRelevant},
		{0.4, LabelModeratelyRelevant},
		{0.2, LabelSlightlyRelevant},
		{0.05, LabelMinimallyRelevant},
		{0.0, LabelMinimallyRelevant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelevanceLabel(tt.score), "score %v", tt.score)
	}
}

func TestRelevanceLabelMonotonic(t *testing.T) {
	rank := map[string]int{
		LabelMinimallyRelevant:  0,
		LabelSlightlyRelevant:   1,
		LabelModeratelyRelevant: 2,
		LabelRelevant:           3,
		LabelHighlyRelevant:     4,
	}
	prev := -1
	for score := 0.0; score <= 1.0; score += 0.01 {
		r := rank[RelevanceLabel(score)]
		assert.GreaterOrEqual(t, r, prev, "label rank regressed at score %v", score)
		prev = r
	}
}

func TestValidate(t *testing.T) {
	valid := &SourceReference{DocumentID: "d", RelativePath: "p", Score: 0.5}

	tests := []struct {
		name    string
		sources []*SourceReference
		want    bool
	}{
		{name: "empty list", sources: nil, want: false},
		{name: "valid", sources: []*SourceReference{valid}, want: true},
		{
			name:    "score out of range",
			sources: []*SourceReference{{DocumentID: "d", RelativePath: "p", Score: 1.2}},
			want:    false,
		},
		{
			name:    "empty document id",
			sources: []*SourceReference{{RelativePath: "p", Score: 0.5}},
			want:    false,
		},
		{
			name:    "empty relative path",
			sources: []*SourceReference{{DocumentID: "d", Score: 0.5}},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.sources))
		})
	}
}

func TestFilterSortTopK(t *testing.T) {
	sources := []*SourceReference{
		{DocumentID: "a", RelativePath: "a.md", Score: 0.3},
		{DocumentID: "b", RelativePath: "b.md", Score: 0.9},
		{DocumentID: "c", RelativePath: "c.md", Score: 0.6},
		{DocumentID: "d", RelativePath: "d.md", Score: 0.6},
	}

	filtered := FilterByThreshold(sources, 0.6)
	require.Len(t, filtered, 3)
	assert.Equal(t, "b", filtered[0].DocumentID)

	sorted := SortByRelevance(sources)
	require.Len(t, sorted, 4)
	assert.Equal(t, "b", sorted[0].DocumentID)
	// Stable: c before d on equal scores.
	assert.Equal(t, "c", sorted[1].DocumentID)
	assert.Equal(t, "d", sorted[2].DocumentID)
	assert.Equal(t, "a", sorted[3].DocumentID)
	// Input order untouched.
	assert.Equal(t, "a", sources[0].DocumentID)

	top := TopK(sources, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].DocumentID)
	assert.Equal(t, "c", top[1].DocumentID)

	assert.Len(t, TopK(sources, 10), 4)
	assert.Empty(t, TopK(sources, 0))
}

func TestFormatCitation(t *testing.T) {
	src := &SourceReference{DocumentID: "a", RelativePath: "docs/a.md", Score: 0.873}
	assert.Equal(t, "[docs/a.md] (Relevance: 0.87)", FormatCitation(src))

	got := FormatCitations([]*SourceReference{src, {RelativePath: "b.md", Score: 0.5}})
	require.Len(t, got, 2)
	assert.Equal(t, "[b.md] (Relevance: 0.50)", got[1])
}

func TestSourcePreview(t *testing.T) {
	b := NewBuilder()
	src := &SourceReference{
		DocumentID:     "a",
		RelativePath:   "a.md",
		Score:          0.85,
		ContentPreview: "stored preview",
	}

	p := b.SourcePreview(src, "")
	assert.Equal(t, "stored preview", p.Content)
	assert.Equal(t, LabelHighlyRelevant, p.RelevanceIndicator)
	assert.Equal(t, len("stored preview"), p.ContentLength)

	p = b.SourcePreview(src, "full content wins")
	assert.Equal(t, "full content wins", p.Content)
}
