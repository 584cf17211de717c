// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory aggregates the agents of every configured account into
// one view and tracks which agent is active.
//
// Listing fans out to all accounts concurrently; an account that fails or
// times out contributes nothing but never hides the agents of the accounts
// that answered. The active-agent selection persists across restarts.
package directory
