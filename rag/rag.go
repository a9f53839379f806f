//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package rag composes the retrieval ranking pipeline into an end-to-end
// engine: candidate ranking, reranking, diversity filtering, citation
// building, and conversation context assembly.
package rag

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-rag-go/citation"
	"trpc.group/trpc-go/trpc-rag-go/embedder"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/retrieval"
	"trpc.group/trpc-go/trpc-rag-go/session"
	"trpc.group/trpc-go/trpc-rag-go/vectorstore"
)

// Pipeline defaults.
const (
	DefaultTopK               = 5
	DefaultMinScore           = 0.3
	DefaultDiversityThreshold = 0.8
)

var (
	// ErrNoEmbedder is returned by Search when no embedder is configured.
	ErrNoEmbedder = errors.New("no embedder configured")
	// ErrNoVectorStore is returned by Search when no vector store is configured.
	ErrNoVectorStore = errors.New("no vector store configured")
	// ErrNoSessionService is returned by session operations when no session
	// service is configured.
	ErrNoSessionService = errors.New("no session service configured")
)

// Generator produces a text completion from a prompt and conversation
// history. The engine supplies the cited context and history such a provider
// consumes but never calls it.
type Generator interface {
	Complete(ctx context.Context, prompt string, history []string) (string, error)
}

// Result is the outcome of the ranking pipeline: the surviving candidates
// and their source references.
type Result struct {
	Candidates []*retrieval.Candidate      `json:"candidates"`
	Sources    []*citation.SourceReference `json:"sources"`
}

// Engine drives the retrieval ranking and citation pipeline.
type Engine struct {
	ranker    *retrieval.Ranker
	reranker  *retrieval.Reranker
	citations *citation.Builder
	embed     embedder.Embedder
	store     vectorstore.VectorStore
	sessions  session.Service

	topK               int
	minScore           float64
	diversityThreshold float64
	rerankLimit        int
}

// Option represents a functional option for configuring Engine.
type Option func(*Engine)

// WithRanker sets the candidate ranker.
func WithRanker(r *retrieval.Ranker) Option {
	return func(e *Engine) {
		e.ranker = r
	}
}

// WithReranker sets the reranker.
func WithReranker(r *retrieval.Reranker) Option {
	return func(e *Engine) {
		e.reranker = r
	}
}

// WithCitationBuilder sets the citation builder.
func WithCitationBuilder(b *citation.Builder) Option {
	return func(e *Engine) {
		e.citations = b
	}
}

// WithEmbedder sets the embedding provider used by Search.
func WithEmbedder(em embedder.Embedder) Option {
	return func(e *Engine) {
		e.embed = em
	}
}

// WithVectorStore sets the vector store used by Search.
func WithVectorStore(vs vectorstore.VectorStore) Option {
	return func(e *Engine) {
		e.store = vs
	}
}

// WithSessionService sets the session service backing SessionContext and
// RecordExchange.
func WithSessionService(s session.Service) Option {
	return func(e *Engine) {
		e.sessions = s
	}
}

// WithTopK sets the default number of candidates Search keeps.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithMinScore sets the default similarity threshold for Search.
func WithMinScore(min float64) Option {
	return func(e *Engine) {
		e.minScore = min
	}
}

// WithDiversityThreshold sets the default pairwise similarity ceiling for
// kept candidates.
func WithDiversityThreshold(t float64) Option {
	return func(e *Engine) {
		e.diversityThreshold = t
	}
}

// WithRerankLimit bounds reranking to the first n ranked candidates; zero
// reranks all of them.
func WithRerankLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rerankLimit = n
		}
	}
}

// New creates a new engine with options.
func New(opts ...Option) *Engine {
	e := &Engine{
		ranker:             retrieval.NewRanker(),
		reranker:           retrieval.NewReranker(),
		citations:          citation.NewBuilder(),
		topK:               DefaultTopK,
		minScore:           DefaultMinScore,
		diversityThreshold: DefaultDiversityThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RankAndCite runs the full pipeline over raw similarity candidates: bound
// and sort the top k above minScore, refine scores with metadata signals,
// drop near-duplicates, and build source references for what survives. A
// non-empty query makes previews center on its occurrences in the content.
// An empty candidate list yields an empty result, not an error.
func (e *Engine) RankAndCite(
	ctx context.Context,
	query string,
	queryEmbedding []float64,
	candidates []*retrieval.Candidate,
	topK int,
	minScore float64,
	diversityThreshold float64,
) (*Result, error) {
	ranked, err := e.ranker.TopK(queryEmbedding, candidates, topK, minScore)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}
	reranked := e.reranker.Rerank(ranked, e.rerankLimit)
	diverse := retrieval.Diversify(reranked, diversityThreshold)
	sources := e.citations.BuildReferencesForQuery(diverse, query)

	log.Debugf("pipeline: %d raw -> %d ranked -> %d diverse", len(candidates), len(ranked), len(diverse))
	return &Result{Candidates: diverse, Sources: sources}, nil
}

// Search embeds the query, fetches raw candidates from the vector store, and
// runs RankAndCite with the engine defaults.
func (e *Engine) Search(ctx context.Context, query string) (*Result, error) {
	if e.embed == nil {
		return nil, ErrNoEmbedder
	}
	if e.store == nil {
		return nil, ErrNoVectorStore
	}

	queryEmbedding, err := e.embed.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := e.store.Search(ctx, queryEmbedding, e.topK, e.minScore)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return e.RankAndCite(ctx, query, queryEmbedding, candidates, e.topK, e.minScore, e.diversityThreshold)
}

// SessionContext returns the most recent windowSize messages of a session as
// "{role}: {content}" lines for prompt assembly.
func (e *Engine) SessionContext(ctx context.Context, sessionID string, windowSize int) ([]string, error) {
	if e.sessions == nil {
		return nil, ErrNoSessionService
	}
	msgs, err := e.sessions.GetMessages(ctx, sessionID, windowSize)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return lines, nil
}

// RecordExchange appends a completed query/answer pair to the session.
func (e *Engine) RecordExchange(ctx context.Context, sessionID, query, answer string) error {
	if e.sessions == nil {
		return ErrNoSessionService
	}
	if _, err := e.sessions.AddMessage(ctx, sessionID, session.RoleUser, query, nil); err != nil {
		return err
	}
	if _, err := e.sessions.AddMessage(ctx, sessionID, session.RoleAssistant, answer, nil); err != nil {
		return err
	}
	return nil
}
