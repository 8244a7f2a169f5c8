// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds all mutable client state for one chat session:
// messages, progress trails, filter requests, per-message results, the
// session list, and connection status.
//
// A single mutex guards everything; accessors return copies so callers
// never observe state mid-mutation. The UI subscribes to change
// notifications and re-renders from read-only projections.
package store
