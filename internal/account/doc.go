// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package account builds the set of configured service accounts and hands
// out one authenticated client per account.
//
// The primary account comes from the top-level API key in the config and is
// always first. Additional accounts come from the [[accounts]] blocks. The
// registry caches clients so repeated lookups for an unchanged account
// return the same instance; a changed API key yields a fresh client.
package account
