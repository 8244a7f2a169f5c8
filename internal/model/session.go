// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SESSION TYPES
// =============================================================================

// SessionMetadata describes how a session was created on the backend.
type SessionMetadata struct {
	QueryType    string `json:"query_type,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	WorkflowType string `json:"workflow_type,omitempty"`
}

// Session is one conversation known to the backend. Timestamps are kept in
// the backend's wire format (ISO 8601 strings) since they are display-only.
type Session struct {
	SessionID string          `json:"session_id"`
	Title     string          `json:"title"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	IsActive  bool            `json:"is_active"`
	Metadata  SessionMetadata `json:"metadata"`
}

// SessionsData is the session snapshot delivered on connection.
type SessionsData struct {
	Success      bool      `json:"success"`
	UserID       string    `json:"user_id"`
	ConnectionID string    `json:"connection_id"`
	Sessions     []Session `json:"sessions"`
	SessionCount int       `json:"session_count"`
	SortedBy     string    `json:"sorted_by,omitempty"`
	SortOrder    string    `json:"sort_order,omitempty"`
}

// NewGeneratedSession builds the session entry synthesized when the backend
// announces a freshly generated title for the current conversation.
func NewGeneratedSession(sessionID, title, timestamp string) Session {
	return Session{
		SessionID: sessionID,
		Title:     title,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
		IsActive:  true,
		Metadata: SessionMetadata{
			QueryType:    "assistant_query",
			SessionID:    sessionID,
			WorkflowType: "default",
		},
	}
}
