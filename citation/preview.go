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
	"sort"
	"strings"
	"unicode/utf8"
)

const snippetSeparator = " ... "

// ContextPreview extracts a bounded preview of content. Without a query the
// content is truncated from the front. With a query, up to two non-overlapping
// windows of the builder's snippet size are centered on query term
// occurrences and joined; when no term occurs in the content the leading
// truncation is used. Sizes and offsets count characters, not bytes, so
// multibyte content is cut on rune boundaries. The result never exceeds
// twice the snippet size.
func (b *Builder) ContextPreview(content, query string) string {
	size := b.snippetSize
	if query == "" {
		return truncate(content, size)
	}

	positions := termPositions(content, query)
	if len(positions) == 0 {
		return truncate(content, size)
	}

	runes := []rune(content)
	var snippets []string
	processedEnd := -1
	for _, pos := range positions {
		// Skip occurrences already covered by a previous window.
		if pos < processedEnd {
			continue
		}
		start := pos - size/2
		if start < 0 {
			start = 0
		}
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		// Pull the window back when it runs past the end of the content.
		if end-start < size {
			start = end - size
			if start < 0 {
				start = 0
			}
		}
		snippets = append(snippets, strings.TrimSpace(string(runes[start:end])))
		processedEnd = end
		if len(snippets) >= 2 {
			break
		}
	}

	preview := strings.Join(snippets, snippetSeparator)
	if utf8.RuneCountInString(preview) > size*2 {
		cut := []rune(preview)[:size*2-len(ellipsis)]
		preview = string(cut) + ellipsis
	}
	return preview
}

// termPositions returns the sorted, de-duplicated rune offsets of every
// case-insensitive query term occurrence within content.
func termPositions(content, query string) []int {
	lower := []rune(strings.ToLower(content))

	seen := make(map[int]bool)
	var positions []int
	for _, term := range strings.Fields(strings.ToLower(query)) {
		t := []rune(term)
		for from := 0; from+len(t) <= len(lower); from++ {
			if !runesMatchAt(lower, from, t) {
				continue
			}
			if !seen[from] {
				seen[from] = true
				positions = append(positions, from)
			}
		}
	}
	sort.Ints(positions)
	return positions
}

func runesMatchAt(haystack []rune, at int, needle []rune) bool {
	for i, r := range needle {
		if haystack[at+i] != r {
			return false
		}
	}
	return true
}
