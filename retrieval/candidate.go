//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package retrieval provides candidate ranking, reranking, and diversity
// filtering over embedding similarity.
package retrieval

import (
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-rag-go/log"
)

var (
	// ErrDimensionMismatch is returned when a candidate embedding does not
	// match the query embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidScore is returned when a score is outside [0, 1].
	ErrInvalidScore = errors.New("score out of range [0, 1]")
)

// Candidate is a document fragment proposed by a vector search for a query.
// Candidates are built fresh per query and live for one pipeline invocation.
type Candidate struct {
	ID        string         `json:"id"`        // ID is the document chunk identifier.
	Content   string         `json:"content"`   // Content is the chunk text.
	Embedding []float64      `json:"embedding"` // Embedding is the chunk vector.
	Metadata  map[string]any `json:"metadata"`  // Metadata holds open extension fields.
	Score     float64        `json:"score"`     // Score is the relevance score in [0, 1].
}

// Validate checks that the candidate score lies in [0, 1].
func (c *Candidate) Validate() error {
	if c.Score < 0 || c.Score > 1 {
		return fmt.Errorf("candidate %s: %w: %v", c.ID, ErrInvalidScore, c.Score)
	}
	return nil
}

// clone returns a shallow copy of the candidate. The embedding and metadata
// are shared; pipeline stages only ever rewrite Score on the copy.
func (c *Candidate) clone() *Candidate {
	copied := *c
	return &copied
}

// ValidateResults reports whether a retrieval result set meets quality
// criteria: it is non-empty and every score lies in [0, 1].
func ValidateResults(candidates []*Candidate) bool {
	if len(candidates) == 0 {
		log.Warn("no documents retrieved")
		return false
	}
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			log.Warnf("document has invalid score: %v", err)
			return false
		}
	}
	return true
}

// FilterByMetadata returns the candidates whose metadata matches every
// key-value pair in filters.
func FilterByMetadata(candidates []*Candidate, filters map[string]any) []*Candidate {
	filtered := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		match := true
		for key, value := range filters {
			if c.Metadata[key] != value {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
