// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the full-screen terminal interface of agentdeck: a
// chat view with live streaming, an agent picker spanning all accounts, a
// conversation list, and an agent memory viewer.
//
// Streaming responses arrive from the engine on a goroutine; snapshots are
// bridged into the Bubble Tea loop as messages, so the view only ever reads
// state it owns. Intermediate snapshots may be dropped under load since
// each one carries the full running state.
package ui
