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
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-rag-go/internal/vector"
	"trpc.group/trpc-go/trpc-rag-go/log"
)

// defaultParallelThreshold is the candidate count above which similarity
// scoring is dispatched to the worker pool, when one is configured.
const defaultParallelThreshold = 1024

// Ranker selects the top-k candidates above a similarity threshold.
type Ranker struct {
	pool              *ants.Pool
	parallelThreshold int
}

// RankerOption represents a functional option for configuring Ranker.
type RankerOption func(*Ranker)

// WithPool sets a worker pool used to parallelize similarity scoring over
// large candidate sets. Without a pool, scoring runs on the calling goroutine.
func WithPool(pool *ants.Pool) RankerOption {
	return func(r *Ranker) {
		r.pool = pool
	}
}

// WithParallelThreshold sets the candidate count at which scoring switches
// to the worker pool.
func WithParallelThreshold(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.parallelThreshold = n
		}
	}
}

// NewRanker creates a new ranker with options.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{
		parallelThreshold: defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scored pairs a candidate with its similarity and original position so that
// ties keep input order.
type scored struct {
	candidate *Candidate
	score     float64
	index     int
}

// less orders by score descending, input position ascending. Using the full
// ordering in both the partition and the final sort keeps the result stable.
func (a scored) less(b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.index < b.index
}

// TopK returns at most k candidates with similarity to queryEmbedding of at
// least minScore, sorted by similarity descending. Every candidate embedding
// must match the query embedding dimension. The returned candidates are
// copies carrying the computed similarity as their score.
func (r *Ranker) TopK(queryEmbedding []float64, candidates []*Candidate, k int, minScore float64) ([]*Candidate, error) {
	if len(candidates) == 0 || k <= 0 {
		return []*Candidate{}, nil
	}
	dim := len(queryEmbedding)
	for _, c := range candidates {
		if len(c.Embedding) != dim {
			return nil, fmt.Errorf("candidate %s: %w: query has %d dimensions, candidate has %d",
				c.ID, ErrDimensionMismatch, dim, len(c.Embedding))
		}
	}

	scores := r.similarities(queryEmbedding, candidates)

	qualified := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if scores[i] >= minScore {
			qualified = append(qualified, scored{candidate: c, score: scores[i], index: i})
		}
	}
	if len(qualified) == 0 {
		return []*Candidate{}, nil
	}

	// Isolate the top k with an O(n) partition, then sort only that subset.
	if k < len(qualified) {
		selectTop(qualified, k)
		qualified = qualified[:k]
	}
	sort.Slice(qualified, func(i, j int) bool {
		return qualified[i].less(qualified[j])
	})

	result := make([]*Candidate, len(qualified))
	for i, s := range qualified {
		c := s.candidate.clone()
		c.Score = s.score
		result[i] = c
	}
	log.Debugf("ranked %d candidates, kept %d", len(candidates), len(result))
	return result, nil
}

// similarities computes the cosine similarity of each candidate against the
// query embedding, using the worker pool for large candidate sets.
func (r *Ranker) similarities(queryEmbedding []float64, candidates []*Candidate) []float64 {
	scores := make([]float64, len(candidates))
	if r.pool == nil || len(candidates) < r.parallelThreshold {
		for i, c := range candidates {
			scores[i] = vector.Cosine(queryEmbedding, c.Embedding)
		}
		return scores
	}

	workers := r.pool.Cap()
	if workers <= 0 {
		workers = 1
	}
	chunk := (len(candidates) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(candidates); start += chunk {
		end := start + chunk
		if end > len(candidates) {
			end = len(candidates)
		}
		lo, hi := start, end
		wg.Add(1)
		task := func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				scores[i] = vector.Cosine(queryEmbedding, candidates[i].Embedding)
			}
		}
		// Run inline if the pool rejects the task (e.g. it was released).
		if err := r.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return scores
}

// selectTop partitions items so that the k best by the scored ordering occupy
// items[:k], in arbitrary order. Average O(n) quickselect.
func selectTop(items []scored, k int) {
	lo, hi := 0, len(items)-1
	for lo < hi {
		p := partition(items, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

// partition uses a middle pivot to avoid quadratic behavior on sorted input.
func partition(items []scored, lo, hi int) int {
	mid := lo + (hi-lo)/2
	items[mid], items[hi] = items[hi], items[mid]
	pivot := items[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if items[j].less(pivot) {
			items[i], items[j] = items[j], items[i]
			i++
		}
	}
	items[i], items[hi] = items[hi], items[i]
	return i
}
