//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package embedder defines the interface for text embedding providers.
package embedder

import "context"

// Embedder converts text into a dense vector embedding. Implementations
// (OpenAI, Cohere, local models) live outside this module; the ranking
// pipeline only consumes the vectors.
type Embedder interface {
	// GetEmbedding returns the embedding vector for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float64, error)

	// GetDimensions returns the embedding dimension the provider produces.
	// All embeddings in one deployment share this dimension.
	GetDimensions() int
}
