// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch routes normalized backend events to store mutations.
//
// The dispatcher owns no state of its own. It never panics on malformed
// input: frames without a usable message id are dropped, and a missing
// field skips just the effect that needed it.
package dispatch
