//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package vector provides similarity math over embedding vectors.
package vector

import "math"

// Dot returns the dot product of a and b.
// Both vectors must have the same length; callers validate dimensions
// at their boundary.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b.
// A zero-norm vector carries no directional information, so the result
// is 0.0 rather than an error or NaN.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return Dot(a, b) / (normA * normB)
}
