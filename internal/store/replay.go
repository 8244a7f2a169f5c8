// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/protocol"
)

// =============================================================================
// CHAT HISTORY REPLAY
// =============================================================================

// ApplyHistory rebuilds the conversation from persisted records.
//
// Records are stable-sorted by message_order, the conversation is reset to
// the greeting, and messages plus progress trails are rebuilt in one pass.
// The progress map is swapped wholesale at the end so a render between
// mutations never sees a half-built trail set. Replayed queries are settled;
// nested payloads that fail to parse are skipped, never fatal.
func (s *Store) ApplyHistory(records []protocol.HistoryRecord) {
	sorted := make([]protocol.HistoryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MessageOrder < sorted[j].MessageOrder
	})

	s.mu.Lock()

	s.messages = []*model.Message{model.NewMessage("", model.RoleTool, greeting)}
	s.settled = make(map[string]struct{})
	s.filters = make(map[string][]model.Filter)
	s.filterOrder = nil
	s.pending = false

	// Per-message results belong to the conversation being replaced; stale
	// entries must not bleed into the recalled session.
	s.chartSuggestions = make(map[string]json.RawMessage)
	s.rawResults = make(map[string]json.RawMessage)
	s.detailedFormatted = make(map[string]string)
	s.detailedRaw = make(map[string]json.RawMessage)
	s.warehouse = make(map[string]bool)
	s.chartPayloads = make(map[string]json.RawMessage)

	newProgress := make(map[string][]string)
	for _, r := range sorted {
		switch model.Role(r.Role) {
		case model.RoleUser:
			id := r.UserMessageID()
			m := model.NewMessage(id, model.RoleUser, string(r.Content))
			m.Pending = false
			if ts := parseWireTime(r.Timestamp); !ts.IsZero() {
				m.Timestamp = ts
			}
			s.messages = append(s.messages, m)
			if id != "" {
				s.settled[id] = struct{}{}
			}

		case "assistant", model.RoleTool:
			content := string(r.Content)
			if r.FormattedData != "" {
				content = r.FormattedData
			}
			m := model.NewMessage(r.MessageID, model.RoleTool, content)
			if ts := parseWireTime(r.Timestamp); !ts.IsZero() {
				m.Timestamp = ts
			}
			s.messages = append(s.messages, m)
			if raw, ok := r.ParsedRaw(); ok {
				s.rawResults[r.MessageID] = raw
			}
			if charts, ok := r.ParsedChartSuggestions(); ok {
				s.chartSuggestions[r.MessageID] = charts
			}
			if r.MessageID != "" {
				s.settled[r.MessageID] = struct{}{}
			}

		case model.RoleSystem:
			id := r.TrailMessageID()
			if id != "" && string(r.Content) != "" {
				newProgress[id] = append(newProgress[id], string(r.Content))
			}
		}
	}
	s.progress = newProgress

	s.mu.Unlock()
	s.notify()
}

func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
