//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package vectorstore defines the interface for vector similarity search
// backends.
package vectorstore

import (
	"context"

	"trpc.group/trpc-go/trpc-rag-go/retrieval"
)

// VectorStore supplies the initial candidate set for a query embedding.
// Implementations (pgvector, qdrant, a local index) live outside this
// module; the candidates they return carry base similarity scores that the
// ranking pipeline refines.
type VectorStore interface {
	// Search returns at most limit candidates with a base similarity of at
	// least minScore, coarsely ordered or unordered.
	Search(ctx context.Context, queryEmbedding []float64, limit int, minScore float64) ([]*retrieval.Candidate, error)

	// Close releases any resources held by the store.
	Close() error
}
