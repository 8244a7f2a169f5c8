// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the public entry point for talking to the analytics
// backend: it ties the transport, dispatcher, and store together and
// exposes the user-level operations (send a query, answer a filter
// request, cancel, recall history).
package client
