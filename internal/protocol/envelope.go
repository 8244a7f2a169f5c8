// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"github.com/morganforge/finchat-tui/internal/model"
)

// =============================================================================
// OUTBOUND FRAME TYPES
// =============================================================================

const (
	TypeConnect        = "connect"
	TypeQuery          = "query"
	TypeCancel         = "cancel"
	TypeGetChatHistory = "get_chat_history"
	TypePing           = "ping"
)

// QueryContext identifies the conversation an outbound frame belongs to.
// Selected business entities ride along so the backend can scope queries.
type QueryContext struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Entities  []model.SelectedEntity `json:"entities,omitempty"`
}

// Envelope is the shape of every frame the client sends.
//
// Content is either the user's query text or, for filter responses, the
// map of filter values.
type Envelope struct {
	Type      string       `json:"type"`
	MessageID string       `json:"message_id,omitempty"`
	Content   any          `json:"content,omitempty"`
	Data      QueryContext `json:"data"`
}

// NewConnectFrame announces the client to the backend.
func NewConnectFrame(ctx QueryContext) Envelope {
	return Envelope{Type: TypeConnect, Data: ctx}
}

// NewQueryFrame submits a query. Content is free text for regular queries
// and a map of filter values for filter responses.
func NewQueryFrame(ctx QueryContext, messageID string, content any) Envelope {
	return Envelope{Type: TypeQuery, MessageID: messageID, Content: content, Data: ctx}
}

// NewCancelFrame requests best-effort cancellation of the in-flight query.
func NewCancelFrame(ctx QueryContext, messageID string) Envelope {
	return Envelope{Type: TypeCancel, MessageID: messageID, Data: ctx}
}

// NewHistoryFrame asks for the full history of the session named in ctx.
func NewHistoryFrame(ctx QueryContext) Envelope {
	return Envelope{Type: TypeGetChatHistory, Data: ctx}
}

// NewPingFrame is the keep-alive frame sent by the transport ticker.
func NewPingFrame(ctx QueryContext) Envelope {
	return Envelope{Type: TypePing, Data: ctx}
}
