// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the agentdeck CLI.
//
// Sends one question to an agent, prints the reconciled answer, and exits.
// On a TTY the answer streams as it arrives and is re-rendered as markdown
// at the end; piped output gets the plain final text only.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/agentdeck/internal/engine"
	"github.com/jeranaias/agentdeck/internal/model"
)

// =============================================================================
// STREAM PRINTER
// =============================================================================

// streamPrinter is an engine observer that writes answer text to stdout as
// it grows. The running answer is replace-based, so only the new suffix is
// printed; a revision that rewrites earlier text is held back until
// settlement.
type streamPrinter struct {
	printed   string
	reasoning bool
	lastTrace string
}

func (p *streamPrinter) OnAnswer(text string) {
	if strings.HasPrefix(text, p.printed) {
		fmt.Print(text[len(p.printed):])
		p.printed = text
	}
}

func (p *streamPrinter) OnReasoning(text string) {
	if p.reasoning && text != p.lastTrace {
		p.lastTrace = text
	}
}

func (p *streamPrinter) OnToolCalls(calls []model.ToolCall) {}

func (p *streamPrinter) OnDone(err error) {}

// =============================================================================
// ASK COMMAND
// =============================================================================

// RunAsk sends a single question and prints the answer. With plain set, no
// markdown rendering or color is produced regardless of TTY.
func RunAsk(ctx context.Context, app *App, agentQuery, question string, plain, showReasoning bool) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("empty question")
	}

	target, err := app.PickAgent(ctx, agentQuery)
	if err != nil {
		return err
	}

	sender, ok := app.Directory.Streamer(target)
	if !ok {
		return fmt.Errorf("no client for account %q", target.AccountName)
	}

	conv, err := app.Store.Start(target)
	if err != nil {
		return err
	}

	useMarkdown := !plain && IsStdoutTTY() && markdownRenderer != nil

	// On plain output stream the answer as it arrives; with markdown the
	// text is collected and rendered once at settlement.
	var printer *streamPrinter
	var obs engine.Observer
	if !useMarkdown {
		printer = &streamPrinter{reasoning: showReasoning}
		obs = printer
	}

	if err := app.Engine.Send(ctx, sender, target.ID, conv.ID, question, obs); err != nil {
		return err
	}

	settled, ok := app.Store.Get(conv.ID)
	if !ok {
		return fmt.Errorf("conversation vanished during send")
	}
	last := settled.LastMessage()
	if last == nil || last.Role != model.RoleAssistant {
		return fmt.Errorf("no response received")
	}

	if showReasoning && last.Reasoning != "" {
		RenderReasoning(last.Reasoning)
	}
	for _, call := range last.ToolCalls {
		fmt.Fprintln(os.Stderr, infoStyle.Render("  tool: "+call.Name))
	}

	if useMarkdown {
		RenderAnswer(last.Content)
	} else if printer != nil && printer.printed != last.Content {
		// The stream withheld a rewrite; emit the settled text.
		if printer.printed == "" {
			fmt.Println(last.Content)
		} else {
			fmt.Println()
			fmt.Println(last.Content)
		}
	} else {
		fmt.Println()
	}

	return nil
}
