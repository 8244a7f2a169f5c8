// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates finchat configuration from
// ~/.finchat/config.toml (preferred) or config.json, with FINCHAT_*
// environment overrides applied on top.
package config
