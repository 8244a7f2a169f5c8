// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the JSON frames exchanged with the analytics
// backend over the WebSocket, and the normalization that folds the two
// legacy payload locations ("data" and "result") into one canonical Event.
//
// Nothing in this package touches the network or the store; it is pure
// encoding, decoding, and shape-flattening.
package protocol
