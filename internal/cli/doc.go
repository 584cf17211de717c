// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line surfaces of agentdeck: the
// one-shot ask command and the interactive chat REPL with line editing and
// input history. The full-screen experience lives in the ui package; this
// package covers piped output, scripts, and terminals where a plain REPL
// is preferable.
package cli
