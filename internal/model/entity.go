// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// BUSINESS ENTITY TYPES
// =============================================================================

// Entity is one selectable business entity (asset or fund). The backend is
// inconsistent about id types, so numbers are accepted and stored as strings.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both string and numeric ids.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}
	e.ID = raw.ID.String()
	e.Name = raw.Name
	return nil
}

// SelectedEntity is an entity the user attached to outbound queries.
type SelectedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "asset" or "fund"
}

// Key uniquely identifies a selection within the UI.
func (s SelectedEntity) Key() string {
	return s.Name + "-" + s.Type
}
