// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config inspection commands.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/dagan-tui/internal/config"
)

// HandleConfig runs the config subcommands. Returns a process exit code.
func HandleConfig(cfg *config.Config, args Args) int {
	switch args.Subcommand {
	case "", "show":
		printConfig(cfg)
		return 0

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "init":
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
			return 1
		}
		path, _ := config.ConfigPath()
		fmt.Printf("Wrote %s\n", path)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "dagan: unknown config subcommand %q\n", args.Subcommand)
		fmt.Fprintln(os.Stderr, "usage: dagan config [show|path|init]")
		return 2
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("Backend:")
	fmt.Printf("  url:        %s\n", cfg.Backend.URL)
	fmt.Printf("  model:      %s\n", cfg.Backend.Model)
	fmt.Printf("  timeout:    %ds\n", cfg.Backend.TimeoutSecs)
	fmt.Println("Server:")
	fmt.Printf("  addr:       %s\n", cfg.Server.Addr)
	fmt.Printf("  model:      %s\n", cfg.Server.Model)
	fmt.Printf("  api key:    %s\n", maskSecret(cfg.Server.APIKey))
	fmt.Printf("  rate limit: %.2g req/s (burst %d)\n", cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	fmt.Println("Storage:")
	fmt.Printf("  backend:    %s\n", cfg.Storage.Backend)
	if dir, err := cfg.DataDir(); err == nil {
		fmt.Printf("  dir:        %s\n", dir)
	}
	fmt.Println("UI:")
	fmt.Printf("  theme:      %s\n", cfg.UI.Theme)
	fmt.Printf("  markdown:   %v\n", cfg.UI.Markdown)
	fmt.Printf("  reveal:     %dms\n", cfg.UI.RevealIntervalMs)
}

// maskSecret hides all but a short prefix of a credential.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
