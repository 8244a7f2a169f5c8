// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport wraps a single gorilla/websocket connection to the
// analytics backend: dial, a read pump delivering decoded frames in
// arrival order, fire-and-forget sends, a keep-alive ticker, and status
// callbacks. There is no automatic reconnection; a dropped connection
// stays dropped until the caller dials again.
package transport
