// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists conversation history.
//
// All conversations live under one key in the key-value store as a JSON
// blob, loaded once at open and written back on every durable mutation.
// Mutations marked non-durable update memory only, so a streaming response
// can revise the pending assistant message many times per second without
// touching disk until it settles.
package store
