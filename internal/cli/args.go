// args.go - Argument parsing for the gpt-cli entry point.
//
// Flags are parsed by hand so the binary stays dependency-light at the
// surface and error messages stay in our voice. Supported formats:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -q value
//   - Boolean flags: --flag (no value)
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
)

// =============================================================================
// ARGUMENTS
// =============================================================================

// Args holds the parsed command-line arguments.
type Args struct {
	// Model overrides the configured default model.
	Model string
	// System overrides the configured system prompt.
	System string
	// Load names a saved chat to restore before the loop starts.
	Load string
	// Query is a one-shot message sent before entering the loop.
	Query string
	// NoClear suppresses the clear-screen at startup.
	NoClear bool
	// Plain disables markdown rendering of replies.
	Plain bool
	// Version requests the version string and exit.
	Version bool
	// Help requests usage output and exit.
	Help bool
}

// stringFlags maps flag spellings to a setter on Args.
var stringFlags = map[string]func(*Args, string){
	"model":  func(a *Args, v string) { a.Model = v },
	"system": func(a *Args, v string) { a.System = v },
	"load":   func(a *Args, v string) { a.Load = v },
	"query":  func(a *Args, v string) { a.Query = v },
	"q":      func(a *Args, v string) { a.Query = v },
}

var boolFlags = map[string]func(*Args){
	"no-clear": func(a *Args) { a.NoClear = true },
	"plain":    func(a *Args) { a.Plain = true },
	"version":  func(a *Args) { a.Version = true },
	"v":        func(a *Args) { a.Version = true },
	"help":     func(a *Args) { a.Help = true },
	"h":        func(a *Args) { a.Help = true },
}

// ParseArgs parses raw command-line arguments (without the program name).
// Unknown flags and missing flag values are errors; positional arguments
// are not accepted.
func ParseArgs(raw []string) (Args, error) {
	var args Args

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if !strings.HasPrefix(arg, "-") {
			return Args{}, fmt.Errorf("unexpected argument: %s", arg)
		}

		name := strings.TrimLeft(arg, "-")
		value := ""
		hasValue := false

		// --flag=value format
		if idx := strings.Index(name, "="); idx >= 0 {
			value = name[idx+1:]
			name = name[:idx]
			hasValue = true
		}

		if set, ok := boolFlags[name]; ok {
			if hasValue {
				return Args{}, fmt.Errorf("flag --%s takes no value", name)
			}
			set(&args)
			i++
			continue
		}

		set, ok := stringFlags[name]
		if !ok {
			return Args{}, fmt.Errorf("unknown flag: %s", arg)
		}

		if !hasValue {
			if i+1 >= len(raw) {
				return Args{}, fmt.Errorf("flag %s requires a value", arg)
			}
			value = raw[i+1]
			i++
		}
		set(&args, value)
		i++
	}

	return args, nil
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(`Usage: gpt-cli [flags]

Interactive chat with an OpenAI-compatible API.

Flags:
  --model NAME      Use a specific model (overrides config)
  --system PROMPT   Use a specific system prompt (overrides config)
  --load FILE       Load a saved chat before starting
  -q, --query TEXT  Send one message, then enter the chat loop
  --no-clear        Do not clear the screen at startup
  --plain           Disable markdown rendering of replies
  -v, --version     Print version and exit
  -h, --help        Show this help

Environment:
  OPENAI_API_KEY        API key (required)
  GPTCLI_BASE_URL       API base URL
  GPTCLI_MODEL          Default model
  GPTCLI_SYSTEM_PROMPT  Default system prompt
  GPTCLI_SAVE_DIR       Directory for saved chats

During the chat, type /help for the available commands.
`)
}
