// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// FILTER TYPES
// =============================================================================

// Filter describes one input the backend needs before it can finish a query.
type Filter struct {
	Column     string   `json:"column"`
	EnumValues []string `json:"enum_values,omitempty"`
	Format     string   `json:"format,omitempty"`
	IsRequired bool     `json:"is_required"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Table      string   `json:"table,omitempty"`
}

// FilterRequest groups the filters the backend asked for on one query.
type FilterRequest struct {
	MessageID string
	Filters   []Filter
}
