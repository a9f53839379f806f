//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleAssistant))
	assert.False(t, ValidRole("system"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("User"))
}

func TestSessionClone(t *testing.T) {
	now := time.Now()
	sess := &Session{
		ID:        "sess-1",
		UserID:    "user-1",
		CreatedAt: now,
		UpdatedAt: now,
		Messages: []Message{
			{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: now,
				Metadata: map[string]any{"source": "cli"}},
		},
		Metadata: map[string]any{"topic": "robotics"},
		IsActive: true,
	}

	copied := sess.Clone()
	require.Equal(t, sess.ID, copied.ID)
	require.Equal(t, sess.UserID, copied.UserID)
	require.Len(t, copied.Messages, 1)

	// Mutating the clone must not leak back into the original, down to the
	// per-message metadata maps.
	copied.Messages[0].Content = "changed"
	copied.Messages[0].Metadata["source"] = "changed"
	copied.Metadata["topic"] = "changed"
	assert.Equal(t, "hi", sess.Messages[0].Content)
	assert.Equal(t, "cli", sess.Messages[0].Metadata["source"])
	assert.Equal(t, "robotics", sess.Metadata["topic"])
}

func TestMessageClone(t *testing.T) {
	msg := Message{ID: "m1", Role: RoleUser, Content: "hi",
		Metadata: map[string]any{"source": "cli"}}

	copied := msg.Clone()
	copied.Metadata["source"] = "changed"
	assert.Equal(t, "cli", msg.Metadata["source"])

	assert.Nil(t, Message{ID: "m2"}.Clone().Metadata)
}

func TestSessionCloneNilMetadata(t *testing.T) {
	sess := &Session{ID: "sess-1"}
	copied := sess.Clone()
	assert.Nil(t, copied.Metadata)
	assert.Empty(t, copied.Messages)
}
