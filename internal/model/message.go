// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync/atomic"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// MESSAGE STATUS
// =============================================================================

// MessageStatus tracks the delivery state of a message.
type MessageStatus string

const (
	// StatusLocal marks a user message that has been appended locally.
	StatusLocal MessageStatus = "local"

	// StatusLoading marks an assistant message whose stream is in flight.
	StatusLoading MessageStatus = "loading"

	// StatusSuccess marks a message whose round finished cleanly.
	StatusSuccess MessageStatus = "success"

	// StatusError marks a failed user message eligible for retry.
	StatusError MessageStatus = "error"
)

// IsTerminal reports whether the message can no longer change.
func (s MessageStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Content is mutated in place by the streaming engine while Status is
// loading; once Status reaches success or error the message is immutable.
type Message struct {
	ID      int64         `json:"id"`
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Status  MessageStatus `json:"status"`
}

// lastMessageID guarantees strictly increasing IDs even when two messages
// are created within the same millisecond (user message + placeholder).
var lastMessageID atomic.Int64

// NextMessageID returns a unique, monotonically increasing message ID
// derived from the current wall clock.
func NextMessageID() int64 {
	now := time.Now().UnixMilli()
	for {
		last := lastMessageID.Load()
		if now <= last {
			now = last + 1
		}
		if lastMessageID.CompareAndSwap(last, now) {
			return now
		}
	}
}

// NewUserMessage creates a user message in the local state.
func NewUserMessage(content string) Message {
	return Message{
		ID:      NextMessageID(),
		Role:    RoleUser,
		Content: content,
		Status:  StatusLocal,
	}
}

// NewAssistantPlaceholder creates an empty assistant message in the
// loading state; the streaming engine fills Content in.
func NewAssistantPlaceholder() Message {
	return Message{
		ID:     NextMessageID(),
		Role:   RoleAssistant,
		Status: StatusLoading,
	}
}

// CountByRole returns the number of messages with the given role.
func CountByRole(messages []Message, role Role) int {
	n := 0
	for _, m := range messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
