// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/morganforge/finchat-tui/internal/model"
)

// Greeting shown at the top of every fresh conversation.
const greeting = "Hello, how can I help?"

// =============================================================================
// STORE
// =============================================================================

// Store is the single source of truth for one chat session.
type Store struct {
	mu sync.RWMutex

	// Connection
	status     model.Status
	connecting bool
	pending    bool

	// Identity
	sessionID string
	userID    string

	// Conversation
	messages []*model.Message

	// Progress trails and settlement, keyed by user message id. A settled
	// id accepts no further trail lines and cannot settle again.
	progress map[string][]string
	settled  map[string]struct{}

	// Filter requests keyed by message id; order tracks arrival so the
	// most recent unresolved request can be surfaced.
	filters     map[string][]model.Filter
	filterOrder []string

	// Per-message results.
	chartSuggestions  map[string]json.RawMessage
	rawResults        map[string]json.RawMessage
	detailedFormatted map[string]string
	detailedRaw       map[string]json.RawMessage
	warehouse         map[string]bool
	chartPayloads     map[string]json.RawMessage

	// Sessions
	sessions     []model.Session
	sessionsData *model.SessionsData

	// Business entities (see entities.go)
	entities        map[string][]model.Entity
	entitiesErr     string
	entitiesLoading bool
	selected        []model.SelectedEntity

	onChange func()
}

// New creates an empty store seeded with the greeting message.
func New() *Store {
	s := &Store{
		status:            model.StatusDisconnected,
		progress:          make(map[string][]string),
		settled:           make(map[string]struct{}),
		filters:           make(map[string][]model.Filter),
		chartSuggestions:  make(map[string]json.RawMessage),
		rawResults:        make(map[string]json.RawMessage),
		detailedFormatted: make(map[string]string),
		detailedRaw:       make(map[string]json.RawMessage),
		warehouse:         make(map[string]bool),
		chartPayloads:     make(map[string]json.RawMessage),
		entities:          make(map[string][]model.Entity),
	}
	s.messages = []*model.Message{model.NewMessage("", model.RoleTool, greeting)}
	return s
}

// SetOnChange registers the change subscriber. The callback runs after the
// mutation, outside the lock; it must not call back into the store's
// mutating methods.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// =============================================================================
// CONNECTION STATE
// =============================================================================

// SetStatus records the connection status.
func (s *Store) SetStatus(status model.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.notify()
}

// Status returns the current connection status.
func (s *Store) Status() model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetConnecting flags an in-progress dial.
func (s *Store) SetConnecting(v bool) {
	s.mu.Lock()
	s.connecting = v
	s.mu.Unlock()
	s.notify()
}

// Connecting reports whether a dial is in progress.
func (s *Store) Connecting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connecting
}

// SetPending records whether a query is in flight.
func (s *Store) SetPending(v bool) {
	s.mu.Lock()
	s.pending = v
	s.mu.Unlock()
	s.notify()
}

// Pending reports whether a query is in flight.
func (s *Store) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// =============================================================================
// IDENTITY
// =============================================================================

// SetIdentity records the session and user ids used on outbound frames.
func (s *Store) SetIdentity(sessionID, userID string) {
	s.mu.Lock()
	s.sessionID = sessionID
	s.userID = userID
	s.mu.Unlock()
	s.notify()
}

// SetSessionID switches the current session, e.g. when recalling history.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
	s.notify()
}

// SessionID returns the current session id.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// UserID returns the current user id.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// =============================================================================
// MESSAGES
// =============================================================================

// AddUserMessage appends a pending user message.
func (s *Store) AddUserMessage(id, content string) {
	s.mu.Lock()
	s.messages = append(s.messages, model.NewMessage(id, model.RoleUser, content))
	s.mu.Unlock()
	s.notify()
}

// UpsertToolMessage records the backend's reply for a message id. A second
// reply for the same id updates the existing message in place instead of
// appending a duplicate.
func (s *Store) UpsertToolMessage(id, content string) {
	s.mu.Lock()
	updated := false
	if id != "" {
		for _, m := range s.messages {
			if m.ID == id && m.Role == model.RoleTool {
				m.Content = content
				updated = true
				break
			}
		}
	}
	if !updated {
		s.messages = append(s.messages, model.NewMessage(id, model.RoleTool, content))
	}
	s.mu.Unlock()
	s.notify()
}

// Messages returns a snapshot of the conversation.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// MarkThinkingStart stamps the thinking start on every message with the id.
func (s *Store) MarkThinkingStart(id string, t time.Time) {
	s.mu.Lock()
	for _, m := range s.messages {
		if m.ID == id {
			m.ThinkingStart = t
		}
	}
	s.mu.Unlock()
	s.notify()
}

// MarkThinkingEnd stamps the thinking end on every message with the id.
// Only the first end sticks, so duplicate completions keep the duration
// stable.
func (s *Store) MarkThinkingEnd(id string, t time.Time) {
	s.mu.Lock()
	for _, m := range s.messages {
		if m.ID == id && m.ThinkingEnd.IsZero() {
			m.ThinkingEnd = t
		}
	}
	s.mu.Unlock()
	s.notify()
}

// ThinkingSeconds returns the thinking duration for the first message with
// the id, in whole seconds.
func (s *Store) ThinkingSeconds(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m.ThinkingSeconds()
		}
	}
	return 0
}

// =============================================================================
// SETTLEMENT AND PROGRESS
// =============================================================================

// SettleMessage marks a query as answered: its messages stop being pending
// and its progress trail freezes. Settling is one-shot; later terminal
// events for the same id report false and change nothing.
func (s *Store) SettleMessage(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	if _, done := s.settled[id]; done {
		s.mu.Unlock()
		return false
	}
	s.settled[id] = struct{}{}
	for _, m := range s.messages {
		if m.ID == id {
			m.Pending = false
		}
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// Settled reports whether the id has already seen a terminal event.
func (s *Store) Settled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.settled[id]
	return ok
}

// AppendProgress adds one trail line for a pending query. Lines arriving
// after the query settled are dropped.
func (s *Store) AppendProgress(id, line string) {
	if id == "" || line == "" {
		return
	}
	s.mu.Lock()
	if _, done := s.settled[id]; done {
		s.mu.Unlock()
		return
	}
	s.progress[id] = append(s.progress[id], line)
	s.mu.Unlock()
	s.notify()
}

// Progress returns a copy of the trail for the id.
func (s *Store) Progress(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trail := s.progress[id]
	if trail == nil {
		return nil
	}
	out := make([]string, len(trail))
	copy(out, trail)
	return out
}

// =============================================================================
// FILTER REQUESTS
// =============================================================================

// SetFilters registers the backend's filter request for a message id.
func (s *Store) SetFilters(id string, filters []model.Filter) {
	if id == "" {
		return
	}
	s.mu.Lock()
	if _, ok := s.filters[id]; !ok {
		s.filterOrder = append(s.filterOrder, id)
	}
	s.filters[id] = filters
	s.mu.Unlock()
	s.notify()
}

// ActiveFilter returns the most recent unresolved filter request.
func (s *Store) ActiveFilter() (model.FilterRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.filterOrder) - 1; i >= 0; i-- {
		id := s.filterOrder[i]
		if f, ok := s.filters[id]; ok {
			return model.FilterRequest{MessageID: id, Filters: f}, true
		}
	}
	return model.FilterRequest{}, false
}

// ResolveFilter removes a filter request once the user answered it.
func (s *Store) ResolveFilter(id string) {
	s.mu.Lock()
	delete(s.filters, id)
	for i, fid := range s.filterOrder {
		if fid == id {
			s.filterOrder = append(s.filterOrder[:i], s.filterOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// PER-MESSAGE RESULTS
// =============================================================================

// SetChartSuggestions stores chart suggestions for a message id.
func (s *Store) SetChartSuggestions(id string, raw json.RawMessage) {
	s.mu.Lock()
	s.chartSuggestions[id] = raw
	s.mu.Unlock()
	s.notify()
}

// ChartSuggestions returns the chart suggestions for a message id.
func (s *Store) ChartSuggestions(id string) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chartSuggestions[id]
}

// SetRawResult stores the raw query result for a message id.
func (s *Store) SetRawResult(id string, raw json.RawMessage) {
	s.mu.Lock()
	s.rawResults[id] = raw
	s.mu.Unlock()
	s.notify()
}

// RawResult returns the raw query result for a message id.
func (s *Store) RawResult(id string) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rawResults[id]
}

// SetDetailedResult stores the late-arriving detailed formatting for a
// message id.
func (s *Store) SetDetailedResult(id, formatted string, raw json.RawMessage) {
	s.mu.Lock()
	if formatted != "" {
		s.detailedFormatted[id] = formatted
	}
	if raw != nil {
		s.detailedRaw[id] = raw
	}
	s.mu.Unlock()
	s.notify()
}

// DetailedFormatted returns the detailed formatted result for a message id.
func (s *Store) DetailedFormatted(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detailedFormatted[id]
}

// DetailedRaw returns the detailed raw result for a message id.
func (s *Store) DetailedRaw(id string) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detailedRaw[id]
}

// SetChartPayload stores the render-ready chart payload for a message id.
func (s *Store) SetChartPayload(id string, payload json.RawMessage) {
	s.mu.Lock()
	s.chartPayloads[id] = payload
	s.mu.Unlock()
	s.notify()
}

// ChartPayload returns the transformed chart payload for a message id.
func (s *Store) ChartPayload(id string) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chartPayloads[id]
}

// SetWarehouseQuery flags whether a message was answered from the warehouse.
func (s *Store) SetWarehouseQuery(id string, v bool) {
	s.mu.Lock()
	s.warehouse[id] = v
	s.mu.Unlock()
	s.notify()
}

// IsWarehouseQuery reports whether a message was answered from the warehouse.
func (s *Store) IsWarehouseQuery(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warehouse[id]
}

// =============================================================================
// SESSIONS
// =============================================================================

// SetSessionsData replaces the session list wholesale from a connection
// snapshot.
func (s *Store) SetSessionsData(sd *model.SessionsData) {
	if sd == nil {
		return
	}
	s.mu.Lock()
	s.sessionsData = sd
	s.sessions = make([]model.Session, len(sd.Sessions))
	copy(s.sessions, sd.Sessions)
	s.mu.Unlock()
	s.notify()
}

// AddSession prepends a newly announced session. A repeat announcement for
// a known session updates its title in place.
func (s *Store) AddSession(sess model.Session) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].SessionID == sess.SessionID {
			s.sessions[i].Title = sess.Title
			s.sessions[i].UpdatedAt = sess.UpdatedAt
			s.mu.Unlock()
			s.notify()
			return
		}
	}
	s.sessions = append([]model.Session{sess}, s.sessions...)
	s.mu.Unlock()
	s.notify()
}

// Sessions returns a snapshot of the session list.
func (s *Store) Sessions() []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}
