// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the client:
// chat messages, sessions, filter definitions, and business entities.
//
// Types here are plain data with small pure methods. All mutation and
// synchronization lives in the store package.
package model
