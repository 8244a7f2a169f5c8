// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the identity attached to every outbound frame:
// a fresh session id per run and the configured user id.
package session
