// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/morganforge/finchat-tui/internal/model"
)

// =============================================================================
// INBOUND FRAME TYPES
// =============================================================================

const (
	TypeConnected           = "connected"
	TypeProgress            = "progress"
	TypeQueryCompleted      = "query_completed"
	TypeChatHistoryResponse = "chat_history_response"
)

// Workflow steps carried on progress frames.
const (
	StepWaitingFilters = "waiting_filters"
	StepComplete       = "complete"
)

// Update types carried on progress frames.
const (
	UpdateTitleGenerated             = "title_generated"
	UpdateDetailedFormattingComplete = "detailed_formatting_complete"
)

// Payload carries the per-message fields of an inbound frame. Depending on
// backend code path the same fields arrive under "data" or "result"; both
// decode into this type and Normalize picks whichever is present.
type Payload struct {
	MessageID               string              `json:"message_id"`
	Message                 string              `json:"message"`
	Step                    string              `json:"step"`
	Filters                 []model.Filter      `json:"filters"`
	SessionID               string              `json:"session_id"`
	Title                   string              `json:"title"`
	ChartSuggestions        json.RawMessage     `json:"chart_suggestions"`
	RawResult               json.RawMessage     `json:"raw_result"`
	DetailedFormattedResult string              `json:"detailed_formatted_result"`
	DetailedRawResult       json.RawMessage     `json:"detailed_raw_result"`
	IsWarehouseQuery        *bool               `json:"is_warehouse_query"`
	SessionsData            *model.SessionsData `json:"sessions_data"`
	Messages                []HistoryRecord     `json:"messages"`
}

// Frame is the raw decoded shape of every frame the backend sends.
type Frame struct {
	Type         string              `json:"type"`
	UpdateType   string              `json:"update_type"`
	Timestamp    string              `json:"timestamp"`
	MessageID    string              `json:"message_id"`
	SessionID    string              `json:"session_id"`
	Data         *Payload            `json:"data"`
	Result       *Payload            `json:"result"`
	SessionsData *model.SessionsData `json:"sessions_data"`
	Messages     []HistoryRecord     `json:"messages"`
}

// Decode parses one wire frame. Callers drop frames that fail to decode.
func Decode(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}

// =============================================================================
// CANONICAL EVENT
// =============================================================================

// Event is the flattened view of a Frame that the dispatcher consumes.
// After Normalize there is exactly one place to look for every field.
type Event struct {
	Type       string
	UpdateType string
	Timestamp  string

	MessageID string
	Message   string
	Step      string
	Filters   []model.Filter

	SessionID string
	Title     string

	ChartSuggestions  json.RawMessage
	RawResult         json.RawMessage
	DetailedFormatted string
	DetailedRaw       json.RawMessage
	WarehouseQuery    *bool

	Sessions *model.SessionsData
	History  []HistoryRecord
}

// Normalize folds the frame into a canonical Event. The payload is taken
// from "data" when present, otherwise from "result"; a few fields also
// appear at the top level on some backend paths and are used as fallbacks.
func (f *Frame) Normalize() *Event {
	p := f.Data
	if p == nil {
		p = f.Result
	}
	if p == nil {
		p = &Payload{}
	}

	ev := &Event{
		Type:       f.Type,
		UpdateType: f.UpdateType,
		Timestamp:  f.Timestamp,

		MessageID: p.MessageID,
		Message:   p.Message,
		Step:      p.Step,
		Filters:   p.Filters,

		SessionID: p.SessionID,
		Title:     p.Title,

		ChartSuggestions:  p.ChartSuggestions,
		RawResult:         p.RawResult,
		DetailedFormatted: p.DetailedFormattedResult,
		DetailedRaw:       p.DetailedRawResult,
		WarehouseQuery:    p.IsWarehouseQuery,

		Sessions: p.SessionsData,
		History:  p.Messages,
	}

	if ev.MessageID == "" {
		ev.MessageID = f.MessageID
	}
	if ev.SessionID == "" {
		ev.SessionID = f.SessionID
	}
	if ev.Sessions == nil {
		ev.Sessions = f.SessionsData
	}
	if len(ev.History) == 0 {
		ev.History = f.Messages
	}
	return ev
}
