// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides durable local key-value storage for agentdeck.
//
// The interface is deliberately minimal: get/set/delete over string keys.
// Conversation history is persisted as one serialized blob under one key and
// the active agent pointer under another; there is no schema beyond that.
// The default implementation is backed by SQLite; MemStore backs tests.
package kv
