// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleTool:
		return "Analyst"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the conversation.
//
// User messages start pending and settle when the backend answers the query
// (completion, filter request, or cancellation). Tool messages carry the
// backend's reply and are never pending.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Pending is true while the backend is still working on this query.
	Pending bool `json:"pending"`

	// Thinking window for the query this message started. Zero values mean
	// the corresponding edge has not been observed.
	ThinkingStart time.Time `json:"-"`
	ThinkingEnd   time.Time `json:"-"`
}

// NewMessage creates a message with the given identity and content.
// User messages begin pending.
func NewMessage(id string, role Role, content string) *Message {
	return &Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Pending:   role == RoleUser,
	}
}

// ThinkingSeconds returns the elapsed thinking time in whole seconds,
// truncated. It returns 0 unless both edges of the window are set.
func (m *Message) ThinkingSeconds() int {
	if m.ThinkingStart.IsZero() || m.ThinkingEnd.IsZero() {
		return 0
	}
	d := m.ThinkingEnd.Sub(m.ThinkingStart)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Preview returns the first maxRunes characters of the content, with an
// ellipsis when truncated.
func (m *Message) Preview(maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(m.Content)
	if len(runes) <= maxRunes {
		return m.Content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
