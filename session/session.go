//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package session provides conversation session management.
package session

import (
	"context"
	"errors"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrSessionNotFound is the error for a missing or expired session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidRole is the error for a message role outside {user, assistant}.
	ErrInvalidRole = errors.New("invalid message role")
)

// DefaultTTL is the default inactivity window after which a session expires.
const DefaultTTL = 24 * time.Hour

// ValidRole reports whether role is a recognized message role.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// Message is one entry in a conversation history. Messages are created only
// by the session service and never mutated afterwards.
type Message struct {
	ID        string         `json:"id"`        // ID is the message id.
	Role      string         `json:"role"`      // Role is user or assistant.
	Content   string         `json:"content"`   // Content is the message text.
	Timestamp time.Time      `json:"timestamp"` // Timestamp is the creation time.
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy of the message with its own metadata map, so the
// caller cannot reach stored state through it.
func (m Message) Clone() Message {
	copied := m
	if m.Metadata != nil {
		copied.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			copied.Metadata[k] = v
		}
	}
	return copied
}

// Session is a bounded, time-expiring record of a conversation. Messages are
// insertion-ordered and append-only; individual messages are never removed.
type Session struct {
	ID        string         `json:"id"`     // ID is the session id.
	UserID    string         `json:"userID"` // UserID is the owning user, if any.
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsActive  bool           `json:"isActive"`
}

// Clone returns a deep copy of the session so callers never hold a mutable
// reference into the store.
func (s *Session) Clone() *Session {
	copied := &Session{
		ID:        s.ID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]Message, len(s.Messages)),
		IsActive:  s.IsActive,
	}
	for i, m := range s.Messages {
		copied.Messages[i] = m.Clone()
	}
	if s.Metadata != nil {
		copied.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			copied.Metadata[k] = v
		}
	}
	return copied
}

// Summary is a metadata snapshot of a session without its message bodies.
type Summary struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userID"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	MessageCount int            `json:"messageCount"`
	IsActive     bool           `json:"isActive"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Service is the interface that all session services must implement.
// Missing or expired sessions yield ErrSessionNotFound; expiration is
// enforced at read time, and expired sessions encountered on any access are
// evicted.
type Service interface {
	// CreateSession creates a new active session with a fresh identifier.
	CreateSession(ctx context.Context, userID string, metadata map[string]any) (*Session, error)

	// GetSession gets a session by id.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// AddMessage appends a message to a session and advances its update time.
	// An invalid role yields ErrInvalidRole; a missing session is never
	// auto-created.
	AddMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*Message, error)

	// GetMessages returns the most recent limit messages in chronological
	// order, or the full history when limit is not positive.
	GetMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)

	// ClearMessages removes all messages while keeping the session.
	ClearMessages(ctx context.Context, sessionID string) error

	// EndSession marks the session inactive; it stays retrievable until it
	// expires.
	EndSession(ctx context.Context, sessionID string) error

	// DeleteSession removes a session from storage.
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpired evicts all expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int, error)

	// ListUserSessions returns all live sessions of a user, evicting any
	// expired ones encountered during the scan.
	ListUserSessions(ctx context.Context, userID string) ([]*Session, error)

	// ActiveCount returns the number of live sessions, evicting expired ones.
	ActiveCount(ctx context.Context) (int, error)

	// Summary returns a metadata snapshot of a session.
	Summary(ctx context.Context, sessionID string) (*Summary, error)

	// Close closes the service.
	Close() error
}
