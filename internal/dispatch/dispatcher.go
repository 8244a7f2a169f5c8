// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"log"
	"time"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/protocol"
	"github.com/morganforge/finchat-tui/internal/store"
)

// Dispatcher applies inbound frames to the store.
type Dispatcher struct {
	store *store.Store

	// now is swappable for tests.
	now func() time.Time
}

// New creates a dispatcher bound to one store.
func New(st *store.Store) *Dispatcher {
	return &Dispatcher{store: st, now: time.Now}
}

// Run consumes frames until the channel closes. Intended to be run as a
// goroutine per connection; ordering is preserved because there is exactly
// one consumer.
func (d *Dispatcher) Run(frames <-chan *protocol.Frame) {
	for f := range frames {
		d.Dispatch(f)
	}
}

// Dispatch normalizes one frame and applies its effects.
func (d *Dispatcher) Dispatch(f *protocol.Frame) {
	if f == nil {
		return
	}
	ev := f.Normalize()

	// Result payloads ride on several frame types; apply them regardless
	// of the discriminator so a backend that attaches them early or late
	// behaves the same.
	d.applyResultFields(ev)

	switch ev.Type {
	case protocol.TypeConnected:
		d.handleConnected(ev)
	case protocol.TypeProgress:
		d.handleProgress(ev)
	case protocol.TypeQueryCompleted:
		d.handleQueryCompleted(ev)
	case protocol.TypeChatHistoryResponse:
		d.store.ApplyHistory(ev.History)
	default:
		log.Printf("dispatch: ignoring frame type %q", ev.Type)
	}
}

func (d *Dispatcher) applyResultFields(ev *protocol.Event) {
	if ev.MessageID == "" {
		return
	}
	if len(ev.ChartSuggestions) > 0 {
		d.store.SetChartSuggestions(ev.MessageID, ev.ChartSuggestions)
	}
	if len(ev.RawResult) > 0 {
		d.store.SetRawResult(ev.MessageID, ev.RawResult)
	}
	if ev.WarehouseQuery != nil {
		d.store.SetWarehouseQuery(ev.MessageID, *ev.WarehouseQuery)
	}
}

func (d *Dispatcher) handleConnected(ev *protocol.Event) {
	d.store.SetStatus(model.StatusConnected)
	if ev.Sessions != nil {
		d.store.SetSessionsData(ev.Sessions)
	}
}

func (d *Dispatcher) handleProgress(ev *protocol.Event) {
	switch ev.UpdateType {
	case protocol.UpdateTitleGenerated:
		if ev.SessionID != "" && ev.Title != "" {
			d.store.AddSession(model.NewGeneratedSession(ev.SessionID, ev.Title, ev.Timestamp))
		}
	case protocol.UpdateDetailedFormattingComplete:
		if ev.MessageID != "" {
			d.store.SetDetailedResult(ev.MessageID, ev.DetailedFormatted, ev.DetailedRaw)
		}
	}

	// Everything below needs a target query.
	if ev.MessageID == "" {
		return
	}

	if ev.Message != "" {
		d.store.AppendProgress(ev.MessageID, ev.Message)
	}

	switch ev.Step {
	case protocol.StepWaitingFilters:
		if len(ev.Filters) > 0 {
			d.store.SetFilters(ev.MessageID, ev.Filters)
			d.store.SettleMessage(ev.MessageID)
			d.store.SetPending(false)
		}
	case protocol.StepComplete:
		d.store.SettleMessage(ev.MessageID)
		d.store.SetPending(false)
	}
}

func (d *Dispatcher) handleQueryCompleted(ev *protocol.Event) {
	if ev.MessageID == "" {
		log.Printf("dispatch: query_completed without message_id dropped")
		return
	}
	if ev.Message != "" {
		d.store.UpsertToolMessage(ev.MessageID, ev.Message)
	}
	d.store.MarkThinkingEnd(ev.MessageID, d.now())
	d.store.SettleMessage(ev.MessageID)
	d.store.SetPending(false)
}
