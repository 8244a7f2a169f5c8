// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/protocol"
)

func historyFixture() []protocol.HistoryRecord {
	return []protocol.HistoryRecord{
		{
			MessageID:    "a1",
			Role:         "assistant",
			Content:      "Revenue was up 4%.",
			MessageOrder: 2,
			RawData:      `{"rows":[{"q":"Q3","rev":120}]}`,
		},
		{
			MessageID:    "sys1",
			Role:         "system",
			Content:      "Running warehouse query",
			MessageOrder: 3,
			Metadata: &protocol.HistoryMetadata{
				WorkflowData: &protocol.WorkflowData{MessageID: "u1"},
			},
		},
		{
			MessageID:    "db-u1",
			Role:         "user",
			Content:      "how did revenue do?",
			MessageOrder: 1,
			Timestamp:    "2025-06-01T12:00:00Z",
			Metadata:     &protocol.HistoryMetadata{MessageID: "u1"},
		},
	}
}

func TestApplyHistoryRebuildsConversation(t *testing.T) {
	s := New()
	s.AddUserMessage("stale", "old message")
	s.AppendProgress("stale", "old trail")
	s.SetPending(true)

	s.ApplyHistory(historyFixture())

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected greeting + 2 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != greeting {
		t.Error("replay should re-seed the greeting")
	}
	// Records arrive out of order; message_order decides placement.
	if msgs[1].Role != model.RoleUser || msgs[1].ID != "u1" {
		t.Errorf("msgs[1] = %+v, want user u1", msgs[1])
	}
	if msgs[2].Role != model.RoleTool || msgs[2].ID != "a1" {
		t.Errorf("msgs[2] = %+v, want tool a1", msgs[2])
	}
	if msgs[1].Pending {
		t.Error("replayed user message must not be pending")
	}
	if s.Pending() {
		t.Error("replay should clear the pending flag")
	}

	// System records become progress trails keyed by workflow message id,
	// and stale trails are gone.
	if got := s.Progress("u1"); len(got) != 1 || got[0] != "Running warehouse query" {
		t.Errorf("trail = %v", got)
	}
	if s.Progress("stale") != nil {
		t.Error("stale trail survived the wholesale swap")
	}

	// Nested raw_data was hydrated.
	if string(s.RawResult("a1")) != `{"rows":[{"q":"Q3","rev":120}]}` {
		t.Errorf("raw result = %s", s.RawResult("a1"))
	}
}

func TestApplyHistoryIsDeterministic(t *testing.T) {
	a, b := New(), New()
	a.ApplyHistory(historyFixture())

	// Same records, different arrival order.
	records := historyFixture()
	records[0], records[2] = records[2], records[0]
	b.ApplyHistory(records)

	am, bm := a.Messages(), b.Messages()
	if len(am) != len(bm) {
		t.Fatalf("lengths differ: %d vs %d", len(am), len(bm))
	}
	for i := range am {
		if am[i].ID != bm[i].ID || am[i].Content != bm[i].Content || am[i].Role != bm[i].Role {
			t.Errorf("message %d differs: %+v vs %+v", i, am[i], bm[i])
		}
	}
	if !reflect.DeepEqual(a.Progress("u1"), b.Progress("u1")) {
		t.Error("trails differ across arrival orders")
	}
}

func TestApplyHistoryDegradesOnBadNestedJSON(t *testing.T) {
	s := New()
	s.ApplyHistory([]protocol.HistoryRecord{
		{
			MessageID:        "a1",
			Role:             "assistant",
			Content:          "answer",
			MessageOrder:     1,
			RawData:          "{broken",
			ChartSuggestions: "also broken",
		},
	})

	msgs := s.Messages()
	if len(msgs) != 2 || msgs[1].Content != "answer" {
		t.Fatalf("message should survive bad nested payloads: %+v", msgs)
	}
	if s.RawResult("a1") != nil {
		t.Error("broken raw_data should be skipped")
	}
	if s.ChartSuggestions("a1") != nil {
		t.Error("broken chart_suggestions should be skipped")
	}
}

func TestApplyHistoryPrefersFormattedData(t *testing.T) {
	s := New()
	s.ApplyHistory([]protocol.HistoryRecord{
		{
			MessageID:     "a1",
			Role:          "assistant",
			Content:       "plain",
			FormattedData: "# Formatted",
			MessageOrder:  1,
		},
	})
	msgs := s.Messages()
	if msgs[1].Content != "# Formatted" {
		t.Errorf("content = %q, want formatted data", msgs[1].Content)
	}
}

func TestApplyHistoryFreezesReplayedQueries(t *testing.T) {
	s := New()
	s.ApplyHistory(historyFixture())

	s.AppendProgress("u1", "late line after replay")
	if got := s.Progress("u1"); len(got) != 1 {
		t.Errorf("replayed query should be settled, trail = %v", got)
	}
	if s.SettleMessage("u1") {
		t.Error("replayed query should already be settled")
	}
}

func TestApplyHistoryClearsPriorSessionResults(t *testing.T) {
	s := New()
	s.UpsertToolMessage("old", "previous session reply")
	s.SetRawResult("old", json.RawMessage(`{"rows":[]}`))
	s.SetChartSuggestions("old", json.RawMessage(`[{"chart_type":"bar"}]`))
	s.SetDetailedResult("old", "# Old detail", json.RawMessage(`{"d":1}`))
	s.SetWarehouseQuery("old", true)
	s.SetChartPayload("old", json.RawMessage(`{"series":[]}`))

	s.ApplyHistory(historyFixture())

	if s.RawResult("old") != nil {
		t.Error("stale raw result survived replay")
	}
	if s.ChartSuggestions("old") != nil {
		t.Error("stale chart suggestions survived replay")
	}
	if s.DetailedFormatted("old") != "" {
		t.Error("stale detailed formatting survived replay")
	}
	if s.DetailedRaw("old") != nil {
		t.Error("stale detailed raw survived replay")
	}
	if s.IsWarehouseQuery("old") {
		t.Error("stale warehouse flag survived replay")
	}
	if s.ChartPayload("old") != nil {
		t.Error("stale chart payload survived replay")
	}

	// The recalled session's own results still hydrate.
	if string(s.RawResult("a1")) != `{"rows":[{"q":"Q3","rev":120}]}` {
		t.Errorf("raw result = %s", s.RawResult("a1"))
	}
}

func TestApplyHistoryEmpty(t *testing.T) {
	s := New()
	s.AddUserMessage("m1", "q")
	s.ApplyHistory(nil)

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Content != greeting {
		t.Errorf("empty history should reset to greeting: %+v", msgs)
	}
}
