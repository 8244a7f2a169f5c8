// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entities is the HTTP client for the backend's REST surface:
// the business-entity catalog and chart payload transformation.
package entities
