// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for agents, conversations and
// messages.
//
// A Conversation is bound to exactly one remote agent at creation time and
// carries the account identity it was created under, so histories survive
// account reconfiguration (stale references remain displayable even when the
// account can no longer send). Messages are append-only with one exception:
// the most recently appended assistant message may be replaced in place while
// a response is still streaming.
package model
