// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for dagan.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdServe
	CmdConfig
	CmdReset
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	Config  string // alternate config file path

	// Command-specific
	Query      string
	Subcommand string
	Addr       string
	Confirm    bool

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `dagan - assistant administratif togolais

Dagan répond aux questions sur les démarches administratives au Togo :
passeport, carte d'identité, création d'entreprise, actes d'état civil.

Usage:
  dagan                      Start chat TUI (default)
  dagan ask "question"       Ask a single question
  dagan serve                Run the chat proxy server
    --addr HOST:PORT         Listen address (default from config)
  dagan config [show|path]   Configuration
  dagan reset --confirm      Delete the saved conversation
  dagan version              Show version information
  dagan help                 Show this help

Global flags:
  -q, --quiet                Suppress non-essential output
  -v, --verbose              Show detailed output
      --model NAME           Override the chat model
      --config FILE          Use an alternate config file

Environment:
  DAGAN_BACKEND_URL          Chat proxy endpoint for the TUI
  DAGAN_MODEL                Chat model override
  OPENAI_API_KEY             Upstream API key (serve mode)

Config file: ~/.dagan/config.toml
`

// Parse reads os.Args and returns the requested command with its flags.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui", "chat":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.TrimSpace(strings.Join(remaining, " "))
		return CmdAsk, parsedArgs

	case "serve", "server":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "config":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdConfig, parsedArgs

	case "reset", "clear":
		for _, arg := range remaining {
			if arg == "--confirm" || arg == "-y" {
				parsedArgs.Confirm = true
			}
		}
		return CmdReset, parsedArgs

	case "version", "-V", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		fmt.Fprintf(os.Stderr, "dagan: unknown command %q\n\n", cmd)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags strips global flags and returns the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.Config = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.Config = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	i := 0
	for i < len(remaining) {
		arg := remaining[i]
		switch {
		case arg == "--addr" && i+1 < len(remaining):
			i++
			args.Addr = remaining[i]
		case strings.HasPrefix(arg, "--addr="):
			args.Addr = strings.TrimPrefix(arg, "--addr=")
		}
		i++
	}
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version and build information.
func PrintVersion() {
	fmt.Printf("dagan %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
