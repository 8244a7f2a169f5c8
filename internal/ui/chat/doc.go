// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the finchat TUI.
//
// The view is a pure projection of the store: it renders messages,
// progress trails, filter prompts, and the session list, and forwards
// user actions to the client. It holds no conversation state of its own.
package chat
