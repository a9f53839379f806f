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
)

func TestContextPreviewNoQuery(t *testing.T) {
	b := NewBuilder(WithSnippetSize(20))

	short := "short content"
	assert.Equal(t, short, b.ContextPreview(short, ""))

	long := strings.Repeat("a", 50)
	got := b.ContextPreview(long, "")
	assert.Equal(t, strings.Repeat("a", 20)+"...", got)
}

func TestContextPreviewQueryNotFound(t *testing.T) {
	b := NewBuilder(WithSnippetSize(20))
	content := strings.Repeat("abcde ", 20)
	got := b.ContextPreview(content, "zebra")
	assert.Equal(t, truncate(content, 20), got)
}

func TestContextPreviewCentersOnTerm(t *testing.T) {
	b := NewBuilder(WithSnippetSize(30))
	content := strings.Repeat("x", 100) + " needle " + strings.Repeat("y", 100)
	got := b.ContextPreview(content, "Needle")
	assert.Contains(t, got, "needle")
	assert.LessOrEqual(t, len(got), 60)
}

func TestContextPreviewTwoSnippets(t *testing.T) {
	b := NewBuilder(WithSnippetSize(20))
	content := "alpha " + strings.Repeat("x", 100) + " alpha " + strings.Repeat("y", 100) + " alpha"
	got := b.ContextPreview(content, "alpha")
	// At most two windows, joined by the separator.
	assert.LessOrEqual(t, strings.Count(got, snippetSeparator), 1)
	assert.LessOrEqual(t, len(got), 40)
}

func TestContextPreviewOverlappingOccurrencesSkipped(t *testing.T) {
	b := NewBuilder(WithSnippetSize(40))
	// Both occurrences fall inside one window; only one snippet results.
	content := "term and term again " + strings.Repeat("z", 200)
	got := b.ContextPreview(content, "term")
	assert.NotContains(t, got, snippetSeparator)
	assert.LessOrEqual(t, len(got), 80)
}

func TestContextPreviewBounded(t *testing.T) {
	sizes := []int{10, 50, 150}
	contents := []string{
		"",
		"tiny",
		strings.Repeat("lorem ipsum dolor sit amet ", 50),
		strings.Repeat("a", 1000) + " lorem " + strings.Repeat("b", 1000),
	}
	queries := []string{"", "lorem", "lorem ipsum", "missing"}

	for _, size := range sizes {
		b := NewBuilder(WithSnippetSize(size))
		for _, content := range contents {
			for _, query := range queries {
				got := b.ContextPreview(content, query)
				assert.LessOrEqual(t, len(got), 2*size,
					"size=%d query=%q content len=%d", size, query, len(content))
			}
		}
	}
}

func TestContextPreviewMultibyte(t *testing.T) {
	b := NewBuilder(WithSnippetSize(20))

	content := strings.Repeat("界", 60) + " 目標 " + strings.Repeat("世", 60)
	got := b.ContextPreview(content, "目標")
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "目標")
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 40)

	// Leading truncation counts characters, not bytes.
	got = b.ContextPreview(strings.Repeat("世", 60), "")
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("世", 20)+"...", got)
}

func TestTermPositions(t *testing.T) {
	positions := termPositions("the cat and the hat", "the")
	assert.Equal(t, []int{0, 12}, positions)

	positions = termPositions("aaa", "a")
	assert.Equal(t, []int{0, 1, 2}, positions)

	assert.Empty(t, termPositions("content", "zebra"))
}
