// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives one send exchange against a remote agent: it
// appends the user message and a pending assistant message, consumes the
// response stream (or the batch fallback), folds heterogeneous events into
// a coherent answer, reasoning trace, and tool-call list, and settles or
// retracts the exchange in the conversation store.
//
// The engine owns the consistency rules. Intermediate progress is written
// to the store without final persistence so the pending message can be
// revised cheaply; exactly one durable write settles the exchange. A send
// that fails outright is rolled back so the history reads as if it had
// never been attempted.
package engine
