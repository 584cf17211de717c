// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across agentdeck.
//
// String helpers are rune- and display-width-aware so that previews and
// titles never split a multi-byte character. AtomicWriteFile provides
// crash-safe persistence for files that must never be half-written.
package util
