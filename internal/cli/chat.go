// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the agentdeck CLI.
//
// Provides a REPL for conversing with a remote agent, with line editing,
// input history, and slash commands for switching agents and managing
// conversations.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /agents [FILTER]    List agents across all accounts
//   /switch NAME        Switch to a different agent (starts a new conversation)
//   /new                Start a new conversation with the current agent
//   /list               List stored conversations
//   /open N             Continue the Nth conversation from /list
//   /delete N           Delete the Nth conversation from /list
//   /memory [LABEL]     Show the agent's memory blocks
//   /create NAME [TPL]  Create a new agent on this account
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/agentdeck/internal/config"
	"github.com/jeranaias/agentdeck/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.Dir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Supports history
// navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatSession holds the state for one interactive chat session.
type chatSession struct {
	app    *App
	input  *ChatCLI
	agent  model.Agent
	convID string

	// last /list projection, for /open and /delete indices
	listed []string
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// RunChat starts the interactive REPL against the given agent (or the
// active/default agent when the query is empty).
func RunChat(ctx context.Context, app *App, agentQuery string) error {
	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal; use 'agentdeck ask' for piped input")
	}

	target, err := app.PickAgent(ctx, agentQuery)
	if err != nil {
		return err
	}
	if err := app.Directory.SetActive(target); err != nil {
		return err
	}

	// Resume the active conversation when it belongs to this agent, start
	// fresh otherwise.
	var convID string
	if id, ok := app.Store.ActiveConversation(); ok {
		if conv, found := app.Store.Get(id); found && conv.AgentID == target.ID {
			convID = conv.ID
		}
	}
	if convID == "" {
		conv, err := app.Store.Start(target)
		if err != nil {
			return err
		}
		convID = conv.ID
	}

	session := &chatSession{
		app:    app,
		input:  NewChatCLI(),
		agent:  target,
		convID: convID,
	}
	defer session.input.Close()

	printWelcome(session)

	for {
		// Liner redraws the prompt on history navigation, so keep it free
		// of escape sequences unless colors are actually usable.
		prompt := session.agent.Name + "> "
		if ColorEnabled() {
			prompt = promptStyle.Render(prompt)
		}
		input, err := session.input.ReadInput(prompt)
		if err != nil {
			// Ctrl+C, Ctrl+D, or a closed terminal all end the session.
			fmt.Println()
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := session.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				fmt.Println(infoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		if err := session.send(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// send drives one exchange and prints the response.
func (s *chatSession) send(ctx context.Context, input string) error {
	sender, ok := s.app.Directory.Streamer(s.agent)
	if !ok {
		return fmt.Errorf("no client for account %q", s.agent.AccountName)
	}

	useMarkdown := IsStdoutTTY() && markdownRenderer != nil

	fmt.Println()
	var printer *streamPrinter
	if !useMarkdown {
		printer = &streamPrinter{}
	}

	if printer != nil {
		if err := s.app.Engine.Send(ctx, sender, s.agent.ID, s.convID, input, printer); err != nil {
			return err
		}
	} else {
		if err := s.app.Engine.Send(ctx, sender, s.agent.ID, s.convID, input, nil); err != nil {
			return err
		}
	}

	conv, ok := s.app.Store.Get(s.convID)
	if !ok {
		return fmt.Errorf("conversation vanished during send")
	}
	last := conv.LastMessage()
	if last == nil || last.Role != model.RoleAssistant {
		return fmt.Errorf("no response received")
	}

	for _, call := range last.ToolCalls {
		fmt.Fprintln(os.Stderr, infoStyle.Render("  tool: "+call.Name))
	}

	if useMarkdown {
		RenderAnswer(last.Content)
	} else if printer.printed != last.Content {
		fmt.Println()
		fmt.Println(last.Content)
	} else {
		fmt.Println()
	}
	fmt.Println()
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (s *chatSession) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printHelp()
		return true, nil

	case "/agents":
		s.printAgents(ctx, strings.Join(args, " "))
		return true, nil

	case "/switch":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /switch NAME")
		}
		return true, s.switchAgent(ctx, strings.Join(args, " "))

	case "/new":
		conv, err := s.app.Store.Start(s.agent)
		if err != nil {
			return true, err
		}
		s.convID = conv.ID
		fmt.Println(commandStyle.Render("[New conversation]"))
		return true, nil

	case "/list":
		s.printConversations()
		return true, nil

	case "/open":
		return true, s.openConversation(args)

	case "/delete":
		return true, s.deleteConversation(args)

	case "/memory":
		return true, s.printMemory(ctx, args)

	case "/create":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /create NAME [TEMPLATE]")
		}
		return true, s.createAgent(ctx, args)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (s *chatSession) switchAgent(ctx context.Context, query string) error {
	target, err := s.app.Directory.Resolve(ctx, query)
	if err != nil {
		return err
	}
	if err := s.app.Directory.SetActive(target); err != nil {
		return err
	}

	conv, err := s.app.Store.Start(target)
	if err != nil {
		return err
	}

	s.agent = target
	s.convID = conv.ID
	fmt.Printf("%s Now talking to %s (%s)\n",
		commandStyle.Render("[OK]"),
		agentStyle(target).Render(target.Name),
		target.AccountName)
	return nil
}

func (s *chatSession) openConversation(args []string) error {
	idx, err := s.listIndex(args)
	if err != nil {
		return err
	}

	conv, ok := s.app.Store.Get(s.listed[idx])
	if !ok {
		return fmt.Errorf("conversation no longer exists")
	}

	if err := s.app.Store.SetActiveConversation(conv.ID); err != nil {
		return err
	}
	s.convID = conv.ID
	s.agent = model.Agent{
		ID:          conv.AgentID,
		Name:        conv.AgentName,
		AccountID:   conv.AccountID,
		AccountName: conv.AccountName,
	}

	fmt.Printf("%s %s\n", commandStyle.Render("[Opened]"), conv.DisplayTitle())
	for _, msg := range conv.Messages {
		fmt.Printf("  %s: %s\n",
			infoStyle.Render(msg.Role.DisplayName()),
			msg.Preview(model.PreviewMaxRunes))
	}
	return nil
}

func (s *chatSession) deleteConversation(args []string) error {
	idx, err := s.listIndex(args)
	if err != nil {
		return err
	}

	id := s.listed[idx]
	if err := s.app.Store.Delete(id); err != nil {
		return err
	}
	if id == s.convID {
		conv, err := s.app.Store.Start(s.agent)
		if err != nil {
			return err
		}
		s.convID = conv.ID
	}
	fmt.Println(commandStyle.Render("[Deleted]"))
	return nil
}

// listIndex parses a 1-based index into the last /list output.
func (s *chatSession) listIndex(args []string) (int, error) {
	if len(s.listed) == 0 {
		return 0, fmt.Errorf("run /list first")
	}
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: %s N", "/open")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(s.listed) {
		return 0, fmt.Errorf("index must be 1-%d", len(s.listed))
	}
	return n - 1, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func printWelcome(s *chatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("agentdeck chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Agent:"),
		agentStyle(s.agent).Render(s.agent.Name))
	if s.app.Config.UI.ShowAccountNames {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Account:"),
			commandStyle.Render(s.agent.AccountName))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/agents [FILTER]", "List agents across all accounts"},
		{"/switch NAME", "Switch to a different agent"},
		{"/new", "Start a new conversation"},
		{"/list", "List stored conversations"},
		{"/open N", "Continue a listed conversation"},
		{"/delete N", "Delete a listed conversation"},
		{"/memory [LABEL]", "Show the agent's memory blocks"},
		{"/create NAME", "Create a new agent on this account"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
}

func (s *chatSession) printAgents(ctx context.Context, filter string) {
	agents := s.app.Directory.ListAll(ctx, filter)
	if len(agents) == 0 {
		fmt.Println(infoStyle.Render("[No agents found]"))
		return
	}

	fmt.Println()
	lastAccount := ""
	for _, a := range agents {
		if a.AccountName != lastAccount {
			fmt.Println(headerStyle.Render(a.AccountName))
			lastAccount = a.AccountName
		}
		marker := "  "
		if a.ID == s.agent.ID {
			marker = commandStyle.Render("* ")
		}
		fmt.Printf("%s%s", marker, agentStyle(a).Render(a.Name))
		if a.Description != "" {
			fmt.Printf("  %s", infoStyle.Render(a.Description))
		}
		fmt.Println()
	}
	fmt.Println()
}

func (s *chatSession) printConversations() {
	sums := s.app.Store.Summaries("")
	if len(sums) == 0 {
		fmt.Println(infoStyle.Render("[No conversations yet]"))
		s.listed = nil
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Conversations"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))

	s.listed = make([]string, len(sums))
	for i, sum := range sums {
		s.listed[i] = sum.ID
		fmt.Printf("  %d. %s %s\n",
			i+1,
			sum.Title,
			infoStyle.Render(fmt.Sprintf("(%s, %d messages)", sum.AgentName, sum.MessageCount)))
		if sum.Preview != "" {
			fmt.Printf("     %s\n", infoStyle.Render(sum.Preview))
		}
	}
	fmt.Println()
}

// printMemory shows all memory blocks, or one block when a label is given.
func (s *chatSession) printMemory(ctx context.Context, args []string) error {
	client, ok := s.app.Registry.Client(s.agent.AccountID)
	if !ok {
		return fmt.Errorf("no client for account %q", s.agent.AccountName)
	}

	if len(args) > 0 {
		block, err := client.GetBlock(ctx, s.agent.ID, args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(headerStyle.Render(block.Label))
		fmt.Println(block.Value)
		fmt.Println()
		return nil
	}

	blocks, err := client.ListBlocks(ctx, s.agent.ID)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Println(infoStyle.Render("[No memory blocks]"))
		return nil
	}

	fmt.Println()
	for _, b := range blocks {
		fmt.Println(headerStyle.Render(b.Label))
		fmt.Println(b.Value)
		fmt.Println()
	}
	return nil
}

// createAgent creates a new agent on the current account and switches to it.
func (s *chatSession) createAgent(ctx context.Context, args []string) error {
	name := args[0]
	template := ""
	if len(args) > 1 {
		template = args[1]
	}

	created, err := s.app.Directory.CreateAgent(ctx, s.agent.AccountID, name, template)
	if err != nil {
		return err
	}
	if err := s.app.Directory.SetActive(created); err != nil {
		return err
	}

	conv, err := s.app.Store.Start(created)
	if err != nil {
		return err
	}
	s.agent = created
	s.convID = conv.ID

	fmt.Printf("%s Created %s and started a conversation\n",
		commandStyle.Render("[OK]"),
		agentStyle(created).Render(created.Name))
	return nil
}
