// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for gpt-cli.
//
// A line of user input is either a slash command or a plain chat message.
// Commands are parsed into a closed verb set so the interpreter's switch is
// exhaustiveness-checked: adding a verb without a handler is a compile-time
// smell, not a runtime surprise.
package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// VERBS
// =============================================================================

// Verb identifies a slash command. VerbUnknown covers anything unrecognized.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbPaste
	VerbCopy
	VerbNew
	VerbClear
	VerbSystem
	VerbModel
	VerbQuit
	VerbInfo
	VerbSave
	VerbLoad
	VerbHelp
)

// Spec describes one verb for help output and dispatch.
type Spec struct {
	Verb        Verb
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

// Specs lists all verbs in help display order.
var Specs = []Spec{
	{VerbPaste, "paste", nil, "/paste", "Send the clipboard content as a chat message"},
	{VerbCopy, "copy", nil, "/copy", "Copy the last assistant reply to the clipboard"},
	{VerbNew, "new", nil, "/new", "Start a new chat (keeps model, drops system prompt)"},
	{VerbClear, "clear", nil, "/clear", "Clear the terminal window"},
	{VerbSystem, "system", nil, "/system [PROMPT]", "Start a new chat with the given system prompt (empty clears it)"},
	{VerbModel, "model", nil, "/model MODEL", "Start a new chat with the given model"},
	{VerbQuit, "quit", []string{"exit", "q"}, "/quit", "Exit the program"},
	{VerbInfo, "info", nil, "/info", "Show info about the current chat session"},
	{VerbSave, "save", nil, "/save [FILENAME]", "Save the chat to a file (filename derived when omitted)"},
	{VerbLoad, "load", nil, "/load FILENAME", "Load a chat from a file"},
	{VerbHelp, "help", []string{"h"}, "/help", "Show this help"},
}

// verbsByName maps names and aliases to verbs.
var verbsByName = func() map[string]Verb {
	m := make(map[string]Verb)
	for _, spec := range Specs {
		m[spec.Name] = spec.Verb
		for _, alias := range spec.Aliases {
			m[alias] = spec.Verb
		}
	}
	return m
}()

// =============================================================================
// PARSING
// =============================================================================

// Command is one parsed slash command. Constructed transiently per input
// line, never persisted.
type Command struct {
	// Verb is the recognized verb, or VerbUnknown.
	Verb Verb

	// Name is the raw verb token as typed (without the slash).
	Name string

	// Arg is everything after the first whitespace, trimmed.
	// Empty for verbs that take no argument.
	Arg string
}

// IsCommand reports whether the input line's first non-whitespace character
// is a slash.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Parse classifies an input line. ok is false for plain chat messages.
//
// The verb is the token after "/" up to the first whitespace, matched
// case-insensitively; the argument is the remainder with surrounding
// whitespace trimmed. Unrecognized verbs parse to VerbUnknown rather than
// failing, so the caller can report them without touching session state.
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}

	rest := trimmed[1:]
	name := rest
	arg := ""
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		name = rest[:idx]
		arg = strings.TrimSpace(rest[idx:])
	}

	verb, recognized := verbsByName[strings.ToLower(name)]
	if !recognized {
		verb = VerbUnknown
	}

	return Command{Verb: verb, Name: name, Arg: arg}, true
}
