// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"github.com/morganforge/finchat-tui/internal/model"
)

// =============================================================================
// BUSINESS ENTITY STATE
// =============================================================================

// SetBusinessEntities replaces the available entities, keyed by kind
// ("assets", "funds"), and clears any previous load error.
func (s *Store) SetBusinessEntities(byKind map[string][]model.Entity) {
	s.mu.Lock()
	s.entities = byKind
	s.entitiesErr = ""
	s.entitiesLoading = false
	s.mu.Unlock()
	s.notify()
}

// BusinessEntities returns the available entities for one kind.
func (s *Store) BusinessEntities(kind string) []model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.entities[kind]
	out := make([]model.Entity, len(list))
	copy(out, list)
	return out
}

// SetEntitiesLoading flags an in-progress entity fetch.
func (s *Store) SetEntitiesLoading(v bool) {
	s.mu.Lock()
	s.entitiesLoading = v
	s.mu.Unlock()
	s.notify()
}

// EntitiesLoading reports whether an entity fetch is in progress.
func (s *Store) EntitiesLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entitiesLoading
}

// SetEntitiesError records a failed entity fetch for display.
func (s *Store) SetEntitiesError(msg string) {
	s.mu.Lock()
	s.entitiesErr = msg
	s.entitiesLoading = false
	s.mu.Unlock()
	s.notify()
}

// EntitiesError returns the last entity fetch error, or "".
func (s *Store) EntitiesError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entitiesErr
}

// ToggleEntity adds the entity to the selection, or removes it if already
// selected.
func (s *Store) ToggleEntity(sel model.SelectedEntity) {
	s.mu.Lock()
	for i, cur := range s.selected {
		if cur.Key() == sel.Key() {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			s.mu.Unlock()
			s.notify()
			return
		}
	}
	s.selected = append(s.selected, sel)
	s.mu.Unlock()
	s.notify()
}

// IsSelected reports whether the entity is in the current selection.
func (s *Store) IsSelected(sel model.SelectedEntity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cur := range s.selected {
		if cur.Key() == sel.Key() {
			return true
		}
	}
	return false
}

// SelectedEntities returns a snapshot of the current selection.
func (s *Store) SelectedEntities() []model.SelectedEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SelectedEntity, len(s.selected))
	copy(out, s.selected)
	return out
}

// ClearSelection removes every selected entity.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	s.notify()
}
