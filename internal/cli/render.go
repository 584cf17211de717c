// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders assistant answers with formatting and syntax
// highlighting. Nil when initialization fails; output degrades to plain
// text.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth()),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// RenderAnswer writes an assistant answer to stdout, as rendered markdown
// on a TTY and verbatim otherwise.
func RenderAnswer(text string) {
	if text == "" {
		return
	}
	if IsStdoutTTY() && markdownRenderer != nil {
		if out, err := markdownRenderer.Render(text); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(text)
}

// RenderReasoning writes a reasoning trace to stderr, dimmed and prefixed
// so it is visually distinct from the answer.
func RenderReasoning(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(os.Stderr, infoStyle.Render("  reasoning: "+line))
	}
}
