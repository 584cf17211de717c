// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client for the remote agent service.
//
// The service hosts stateful conversational agents. This package covers the
// client-side surface agentdeck needs: listing agents, reading their memory
// blocks, creating agents, and sending a message either as a single
// request/response or as an incremental SSE event stream.
//
// The wire contract is treated as a versioning hazard rather than a fixed
// schema: list responses may be a bare array, a wrapped object, or paginated;
// stream events vary in how they carry text. Normalization for each hazard
// lives here, in one place, so callers see a single canonical shape.
package agent
