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
	"math"
	"sort"
)

// Stats summarizes the score distribution of a candidate set.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
}

// ComputeStats returns score statistics for a candidate set. An empty set
// yields zero statistics.
func ComputeStats(candidates []*Candidate) Stats {
	if len(candidates) == 0 {
		return Stats{}
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	sort.Float64s(scores)

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	n := len(scores)
	var median float64
	if n%2 == 0 {
		median = (scores[n/2-1] + scores[n/2]) / 2
	} else {
		median = scores[n/2]
	}

	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(n)

	return Stats{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
		Min:    scores[0],
		Max:    scores[n-1],
		Range:  scores[n-1] - scores[0],
	}
}
