// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CODE BLOCK HIGHLIGHTING
// =============================================================================

// HighlightCode applies terminal syntax highlighting to a fenced code block.
// An empty language triggers lexer detection from the code itself. Returns
// the code unchanged when highlighting fails; output never gets worse than
// the input.
func HighlightCode(code, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(sb.String(), "\n")
}

// highlightFences highlights every fenced code block in plain markdown-ish
// text. Used when the full markdown renderer is disabled.
func highlightFences(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	var fence []string
	var lang string
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				out = append(out, HighlightCode(strings.Join(fence, "\n"), lang))
				fence = fence[:0]
				inFence = false
			} else {
				lang = strings.TrimPrefix(trimmed, "```")
				inFence = true
			}
			continue
		}
		if inFence {
			fence = append(fence, line)
			continue
		}
		out = append(out, line)
	}

	// Unterminated fence: emit what accumulated, highlighted.
	if inFence && len(fence) > 0 {
		out = append(out, HighlightCode(strings.Join(fence, "\n"), lang))
	}
	return strings.Join(out, "\n")
}
