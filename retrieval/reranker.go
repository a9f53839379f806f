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
	"sort"

	"trpc.group/trpc-go/trpc-rag-go/log"
)

// MetadataQualityScore is the metadata key carrying a document quality signal
// in [0, 1].
const MetadataQualityScore = "quality_score"

// Blend weights for combining base similarity with the quality signal.
const (
	similarityWeight = 0.7
	qualityWeight    = 0.3
)

// Reranker refines relevance scores by blending base similarity with
// metadata signals.
type Reranker struct{}

// NewReranker creates a new reranker.
func NewReranker() *Reranker {
	return &Reranker{}
}

// Score returns the refined relevance score for a base similarity and the
// candidate metadata. When the metadata carries a quality signal in [0, 1],
// the result is 0.7*base + 0.3*quality; otherwise the base passes through.
// The result is clamped to [0, 1].
func (r *Reranker) Score(base float64, metadata map[string]any) float64 {
	quality, ok := qualitySignal(metadata)
	if !ok {
		return clamp01(base)
	}
	return clamp01(similarityWeight*base + qualityWeight*quality)
}

// Rerank rescores candidates and re-sorts the list by score descending,
// stable on ties. When limit is positive, only the first limit candidates in
// input order are rescored; the remainder keep their scores. The returned
// candidates are copies.
func (r *Reranker) Rerank(candidates []*Candidate, limit int) []*Candidate {
	if len(candidates) == 0 {
		return []*Candidate{}
	}
	rescore := len(candidates)
	if limit > 0 && limit < rescore {
		rescore = limit
	}

	result := make([]*Candidate, len(candidates))
	for i, c := range candidates {
		copied := c.clone()
		if i < rescore {
			copied.Score = r.Score(c.Score, c.Metadata)
		}
		result[i] = copied
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	log.Debugf("reranked %d of %d candidates", rescore, len(candidates))
	return result
}

// qualitySignal extracts the quality metadata field, accepting the numeric
// types an open metadata map may carry. Values outside [0, 1] are ignored.
func qualitySignal(metadata map[string]any) (float64, bool) {
	raw, ok := metadata[MetadataQualityScore]
	if !ok {
		return 0, false
	}
	var quality float64
	switch v := raw.(type) {
	case float64:
		quality = v
	case float32:
		quality = float64(v)
	case int:
		quality = float64(v)
	case int64:
		quality = float64(v)
	default:
		return 0, false
	}
	if quality < 0 || quality > 1 {
		return 0, false
	}
	return quality, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
