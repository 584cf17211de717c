// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Command-line argument parsing for agentdeck.
//
// Commands:
//   (none)          Launch the full-screen TUI
//   ask QUESTION    Ask a single question and exit
//   chat            Start the interactive REPL
//   agents          List agents across all accounts
//   config          Show the config path and validation warnings
//   version         Print version information
//
// Flags:
//   -a, --agent NAME   Talk to a specific agent (name or id)
//   --plain            Disable markdown rendering and color
//   --reasoning        Show the agent's reasoning trace (ask)
//   -h, --help         Show usage

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Command identifies the selected subcommand.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdAgents
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds the parsed command-line options.
type Args struct {
	Agent     string
	Plain     bool
	Reasoning bool
	Question  string
}

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Parse reads os.Args and returns the command and options.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list.
func ParseArgs(argv []string) (Command, Args) {
	cmd := CmdTUI
	var args Args
	var positional []string

	i := 0
	if len(argv) > 0 && !strings.HasPrefix(argv[0], "-") {
		switch argv[0] {
		case "ask":
			cmd = CmdAsk
		case "chat":
			cmd = CmdChat
		case "agents":
			cmd = CmdAgents
		case "config":
			cmd = CmdConfig
		case "version":
			cmd = CmdVersion
		case "help":
			cmd = CmdHelp
		default:
			// Unknown word: treat as the start of an ask question.
			cmd = CmdAsk
			positional = append(positional, argv[0])
		}
		i = 1
	}

	for ; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-a" || arg == "--agent":
			if i+1 < len(argv) {
				i++
				args.Agent = argv[i]
			}
		case strings.HasPrefix(arg, "--agent="):
			args.Agent = strings.TrimPrefix(arg, "--agent=")
		case arg == "--plain":
			args.Plain = true
		case arg == "--reasoning":
			args.Reasoning = true
		case arg == "-h" || arg == "--help":
			cmd = CmdHelp
		default:
			positional = append(positional, arg)
		}
	}

	args.Question = strings.Join(positional, " ")
	return cmd, args
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Println(`agentdeck - terminal client for remote conversational agents

Usage:
  agentdeck                     Launch the full-screen TUI
  agentdeck ask [flags] TEXT    Ask a single question and exit
  agentdeck chat [flags]        Start the interactive REPL
  agentdeck agents              List agents across all accounts
  agentdeck config              Show config path and warnings
  agentdeck version             Print version information

Flags:
  -a, --agent NAME   Talk to a specific agent (name or id)
  --plain            Disable markdown rendering and color
  --reasoning        Show the agent's reasoning trace (ask)
  -h, --help         Show this help`)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("agentdeck %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}
