//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory session service implementation.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/session"
)

var _ session.Service = (*Service)(nil)

const defaultShardCount = 16

// shard holds a slice of the session map behind its own lock, so expiration
// sweeps and concurrent mutations never contend on a single store-wide lock.
type shard struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// Service provides an in-memory implementation of session.Service. Sessions
// are distributed over a fixed set of shards selected by murmur3 hash of the
// session id.
type Service struct {
	shards []*shard
	opts   serviceOpts

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closeOnce     sync.Once
}

type serviceOpts struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	shardCount      int
	now             func() time.Time
}

// ServiceOpt is the option for the in-memory session service.
type ServiceOpt func(*serviceOpts)

// WithTTL sets the session inactivity window. Non-positive values fall back
// to the default of 24 hours.
func WithTTL(ttl time.Duration) ServiceOpt {
	return func(o *serviceOpts) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCleanupInterval enables a background sweep that evicts expired
// sessions periodically. Without it, eviction happens lazily on access.
func WithCleanupInterval(interval time.Duration) ServiceOpt {
	return func(o *serviceOpts) {
		o.cleanupInterval = interval
	}
}

// WithShardCount sets the number of session shards.
func WithShardCount(n int) ServiceOpt {
	return func(o *serviceOpts) {
		if n > 0 {
			o.shardCount = n
		}
	}
}

// WithClock sets the time source, letting tests drive expiration
// deterministically.
func WithClock(now func() time.Time) ServiceOpt {
	return func(o *serviceOpts) {
		if now != nil {
			o.now = now
		}
	}
}

// NewService creates a new in-memory session service.
func NewService(options ...ServiceOpt) *Service {
	opts := serviceOpts{
		ttl:        session.DefaultTTL,
		shardCount: defaultShardCount,
		now:        time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	s := &Service{
		shards:      make([]*shard, opts.shardCount),
		opts:        opts,
		cleanupDone: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*session.Session)}
	}

	if opts.cleanupInterval > 0 {
		s.startCleanupRoutine()
	}
	return s
}

func (s *Service) shardFor(sessionID string) *shard {
	idx := murmur3.Sum32([]byte(sessionID)) % uint32(len(s.shards))
	return s.shards[idx]
}

func (s *Service) isExpired(sess *session.Session) bool {
	return s.opts.now().Sub(sess.UpdatedAt) > s.opts.ttl
}

// CreateSession creates a new active session with a fresh identifier.
func (s *Service) CreateSession(ctx context.Context, userID string, metadata map[string]any) (*session.Session, error) {
	now := s.opts.now()
	sess := &session.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []session.Message{},
		IsActive:  true,
	}
	if metadata != nil {
		sess.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			sess.Metadata[k] = v
		}
	}

	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	sh.sessions[sess.ID] = sess
	sh.mu.Unlock()

	log.Debugf("created session %s", sess.ID)
	return sess.Clone(), nil
}

// GetSession retrieves a session by id. An expired session is evicted and
// reported as not found.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// liveSession returns the stored session when present and not expired,
// evicting it otherwise. The shard lock must be held.
func (s *Service) liveSession(sh *shard, sessionID string) (*session.Session, error) {
	sess, ok := sh.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if s.isExpired(sess) {
		delete(sh.sessions, sessionID)
		log.Debugf("session %s expired, evicted", sessionID)
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// AddMessage appends a message to a session. The role is validated before
// the session lookup so an invalid role is reported even for missing
// sessions.
func (s *Service) AddMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*session.Message, error) {
	if !session.ValidRole(role) {
		return nil, session.ErrInvalidRole
	}

	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	msg := session.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	if metadata != nil {
		msg.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			msg.Metadata[k] = v
		}
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = now

	copied := msg.Clone()
	return &copied, nil
}

// GetMessages returns the most recent limit messages in chronological order,
// or the full history when limit is not positive or exceeds the history.
func (s *Service) GetMessages(ctx context.Context, sessionID string, limit int) ([]session.Message, error) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return nil, err
	}

	msgs := sess.Messages
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]session.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out, nil
}

// ClearMessages removes all messages while keeping the session.
func (s *Service) ClearMessages(ctx context.Context, sessionID string) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return err
	}
	sess.Messages = []session.Message{}
	sess.UpdatedAt = s.opts.now()
	return nil
}

// EndSession marks the session inactive. It stays retrievable until expiry.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return err
	}
	sess.IsActive = false
	sess.UpdatedAt = s.opts.now()
	return nil
}

// DeleteSession removes a session from storage.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[sessionID]; !ok {
		return session.ErrSessionNotFound
	}
	delete(sh.sessions, sessionID)
	log.Debugf("deleted session %s", sessionID)
	return nil
}

// CleanupExpired evicts all expired sessions and returns the count. Each
// shard is swept under its own lock, so the sweep never blocks the whole
// store.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if s.isExpired(sess) {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	if evicted > 0 {
		log.Infof("cleaned up %d expired sessions", evicted)
	}
	return evicted, nil
}

// ListUserSessions returns all live sessions of a user ordered by creation
// time, evicting expired sessions encountered during the scan.
func (s *Service) ListUserSessions(ctx context.Context, userID string) ([]*session.Session, error) {
	var result []*session.Session
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if s.isExpired(sess) {
				delete(sh.sessions, id)
				continue
			}
			if sess.UserID == userID {
				result = append(result, sess.Clone())
			}
		}
		sh.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ActiveCount returns the number of live sessions, evicting expired ones.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	count := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if s.isExpired(sess) {
				delete(sh.sessions, id)
				continue
			}
			count++
		}
		sh.mu.Unlock()
	}
	return count, nil
}

// Summary returns a metadata snapshot of a session.
func (s *Service) Summary(ctx context.Context, sessionID string) (*session.Summary, error) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, err := s.liveSession(sh, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &session.Summary{
		ID:           sess.ID,
		UserID:       sess.UserID,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		MessageCount: len(sess.Messages),
		IsActive:     sess.IsActive,
	}
	if sess.Metadata != nil {
		summary.Metadata = make(map[string]any, len(sess.Metadata))
		for k, v := range sess.Metadata {
			summary.Metadata[k] = v
		}
	}
	return summary, nil
}

// Close stops the background cleanup routine.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.cleanupDone)
	})
	return nil
}

func (s *Service) startCleanupRoutine() {
	s.cleanupTicker = time.NewTicker(s.opts.cleanupInterval)
	ticker := s.cleanupTicker
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.CleanupExpired(context.Background()); err != nil {
					log.Errorf("session cleanup failed: %v", err)
				}
			case <-s.cleanupDone:
				return
			}
		}
	}()
}
