// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
)

// =============================================================================
// CHAT HISTORY RECORDS
// =============================================================================

// FlexString decodes a JSON value that is usually a string but occasionally
// a structured object. Non-string values are kept as their compact JSON.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// WorkflowData links a system-role history record to the user message whose
// progress trail it belongs to.
type WorkflowData struct {
	MessageID string `json:"message_id"`
}

// HistoryMetadata is the metadata block on a history record.
type HistoryMetadata struct {
	MessageID    string        `json:"message_id"`
	WorkflowData *WorkflowData `json:"workflow_data"`
}

// HistoryRecord is one persisted message returned by get_chat_history.
// raw_data, formatted_data and chart_suggestions arrive as JSON encoded
// inside JSON strings; use the Parsed helpers to unwrap them.
type HistoryRecord struct {
	MessageID        string           `json:"message_id"`
	Role             string           `json:"role"`
	Content          FlexString       `json:"content"`
	Timestamp        string           `json:"timestamp"`
	MessageOrder     int              `json:"message_order"`
	RawData          string           `json:"raw_data"`
	FormattedData    string           `json:"formatted_data"`
	ChartSuggestions string           `json:"chart_suggestions"`
	Metadata         *HistoryMetadata `json:"metadata"`
}

// TrailMessageID returns the user message id a system record's progress
// line belongs to, or "" when the record has no workflow linkage.
func (r *HistoryRecord) TrailMessageID() string {
	if r.Metadata == nil || r.Metadata.WorkflowData == nil {
		return ""
	}
	return r.Metadata.WorkflowData.MessageID
}

// UserMessageID returns the id a replayed user message should carry,
// preferring the metadata message id the live path used.
func (r *HistoryRecord) UserMessageID() string {
	if r.Metadata != nil && r.Metadata.MessageID != "" {
		return r.Metadata.MessageID
	}
	return r.MessageID
}

// ParsedRaw unwraps the nested raw_data JSON. ok is false when the field is
// empty or does not hold valid JSON; replay degrades instead of failing.
func (r *HistoryRecord) ParsedRaw() (json.RawMessage, bool) {
	return unwrapJSON(r.RawData)
}

// ParsedChartSuggestions unwraps the nested chart_suggestions JSON.
func (r *HistoryRecord) ParsedChartSuggestions() (json.RawMessage, bool) {
	return unwrapJSON(r.ChartSuggestions)
}

func unwrapJSON(s string) (json.RawMessage, bool) {
	if s == "" {
		return nil, false
	}
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}
