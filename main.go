// gpt-cli - An interactive command-line chat client for OpenAI-compatible APIs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/gpt-cli/internal/cli"
	"github.com/jeranaias/gpt-cli/internal/config"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpt-cli: %v\n", err)
		cli.PrintUsage()
		return 1
	}

	if args.Help {
		cli.PrintUsage()
		return 0
	}

	if args.Version {
		fmt.Printf("gpt-cli %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpt-cli: cannot load config: %v\n", err)
		return 1
	}

	// Flag overrides (flag > env > file > default)
	if args.Model != "" {
		cfg.DefaultModel = args.Model
	}
	if args.System != "" {
		cfg.SystemPrompt = args.System
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "gpt-cli: %v\n", err)
		return 1
	}

	controller, err := cli.NewController(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpt-cli: %v\n", err)
		return 1
	}

	if args.Load != "" {
		if err := controller.LoadChat(args.Load); err != nil {
			fmt.Fprintf(os.Stderr, "gpt-cli: %v\n", err)
			return 1
		}
	}

	if err := controller.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "gpt-cli: %v\n", err)
		return 1
	}
	return 0
}
