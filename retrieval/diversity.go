//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package retrieval

import (
	"trpc.group/trpc-go/trpc-rag-go/internal/vector"
	"trpc.group/trpc-go/trpc-rag-go/log"
)

// Diversify greedily removes near-duplicate candidates from a ranked list.
// The first candidate is always kept; each later candidate is dropped when
// its embedding similarity with any already-kept candidate exceeds threshold.
// The output preserves rank order, is non-empty whenever the input is
// non-empty, and every pair of kept candidates has pairwise similarity at
// most threshold.
func Diversify(ranked []*Candidate, threshold float64) []*Candidate {
	if len(ranked) <= 1 {
		return ranked
	}

	selected := make([]*Candidate, 0, len(ranked))
	selected = append(selected, ranked[0])

	for _, c := range ranked[1:] {
		diverse := true
		for _, kept := range selected {
			if vector.Cosine(c.Embedding, kept.Embedding) > threshold {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c)
		}
	}

	log.Debugf("diversity filter kept %d of %d candidates", len(selected), len(ranked))
	return selected
}
