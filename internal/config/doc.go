// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for agentdeck.
//
// Configuration lives in TOML at ~/.agentdeck/config.toml. The top-level
// api_key/base_url pair is the primary account; additional accounts are
// declared in [[accounts]] blocks. Environment variables AGENTDECK_API_KEY
// and AGENTDECK_BASE_URL override the primary account's values.
//
// The file may contain credentials, so it is written with 0600 permissions
// and saved atomically. Watch reports on-disk changes so the UI can offer a
// refresh; running pointers are never invalidated automatically.
package config
