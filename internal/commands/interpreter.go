// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/gpt-cli/internal/clipboard"
	"github.com/jeranaias/gpt-cli/internal/openai"
	"github.com/jeranaias/gpt-cli/internal/session"
	"github.com/jeranaias/gpt-cli/internal/storage"
	"github.com/jeranaias/gpt-cli/internal/util"
)

// =============================================================================
// INTERPRETER
// =============================================================================

// Display is the output surface the interpreter writes to. The chat loop
// provides a styled terminal implementation; tests provide a recorder.
type Display interface {
	// Printf writes informational output.
	Printf(format string, args ...any)
	// Errorf writes a non-fatal error message.
	Errorf(format string, args ...any)
	// ClearScreen clears the terminal window.
	ClearScreen()
}

// Outcome tells the chat loop what to do after a command executes.
type Outcome int

const (
	// OutcomeHandled means the command completed; prompt for the next line.
	OutcomeHandled Outcome = iota
	// OutcomeQuit means the user asked to exit.
	OutcomeQuit
	// OutcomeSendMessage means Result.Message must be sent to the API
	// as a user message.
	OutcomeSendMessage
)

// Result is what Execute returns to the chat loop.
type Result struct {
	Outcome Outcome
	// Message is set only for OutcomeSendMessage.
	Message string
}

// Interpreter executes slash commands against the current session.
//
// The interpreter owns no I/O beyond Display: it never blocks on the
// network, and the only command that produces a chat message (/paste)
// hands the text back to the caller instead of sending it itself.
type Interpreter struct {
	sess  *session.Session
	store *storage.ChatStore
	clip  clipboard.Clipboard
	disp  Display
}

// NewInterpreter builds an interpreter over the given session.
func NewInterpreter(sess *session.Session, store *storage.ChatStore, clip clipboard.Clipboard, disp Display) *Interpreter {
	return &Interpreter{sess: sess, store: store, clip: clip, disp: disp}
}

// Session returns the current session. The pointer changes when a command
// starts a new chat, so the chat loop must re-read it after every Execute.
func (in *Interpreter) Session() *session.Session {
	return in.sess
}

// SetSession replaces the current session. Used by the chat loop after a
// message exchange mutates its own copy.
func (in *Interpreter) SetSession(sess *session.Session) {
	in.sess = sess
}

// Execute runs one parsed command. Failed commands report through Display
// and leave the session untouched; the returned outcome is OutcomeHandled
// for every verb except quit and a successful paste.
func (in *Interpreter) Execute(cmd Command) Result {
	switch cmd.Verb {
	case VerbPaste:
		return in.execPaste()
	case VerbCopy:
		in.execCopy()
	case VerbNew:
		in.execNew()
	case VerbClear:
		in.disp.ClearScreen()
	case VerbSystem:
		in.execSystem(cmd.Arg)
	case VerbModel:
		in.execModel(cmd.Arg)
	case VerbQuit:
		return Result{Outcome: OutcomeQuit}
	case VerbInfo:
		in.execInfo()
	case VerbSave:
		in.execSave(cmd.Arg)
	case VerbLoad:
		in.execLoad(cmd.Arg)
	case VerbHelp:
		in.execHelp()
	default:
		in.disp.Errorf("Unknown command: /%s (try /help)", cmd.Name)
	}
	return Result{Outcome: OutcomeHandled}
}

// =============================================================================
// CLIPBOARD COMMANDS
// =============================================================================

func (in *Interpreter) execPaste() Result {
	text, err := in.clip.Read()
	if err != nil {
		if errors.Is(err, clipboard.ErrEmpty) {
			in.disp.Errorf("Clipboard is empty")
		} else {
			in.disp.Errorf("Could not read clipboard: %v", err)
		}
		return Result{Outcome: OutcomeHandled}
	}
	return Result{Outcome: OutcomeSendMessage, Message: text}
}

func (in *Interpreter) execCopy() {
	reply, ok := in.sess.LastAssistant()
	if !ok {
		in.disp.Errorf("No assistant reply to copy yet")
		return
	}
	if err := in.clip.Write(reply); err != nil {
		in.disp.Errorf("Could not write clipboard: %v", err)
		return
	}
	in.disp.Printf("Copied the last reply to the clipboard")
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func (in *Interpreter) execNew() {
	empty := ""
	in.sess = session.Next(in.sess, session.Change{SystemPrompt: &empty})
	in.disp.ClearScreen()
	in.disp.Printf("Started a new chat")
}

func (in *Interpreter) execSystem(arg string) {
	in.sess = session.Next(in.sess, session.Change{SystemPrompt: &arg})
	in.disp.ClearScreen()
	if arg == "" {
		in.disp.Printf("Started a new chat without a system prompt")
	} else {
		in.disp.Printf("Started a new chat with system prompt: %s", arg)
	}
}

func (in *Interpreter) execModel(arg string) {
	if arg == "" {
		in.disp.Errorf("Usage: /model MODEL")
		return
	}
	in.sess = session.Next(in.sess, session.Change{Model: &arg})
	in.disp.ClearScreen()
	in.disp.Printf("Started a new chat with model: %s", arg)
}

func (in *Interpreter) execInfo() {
	rows := [][2]string{
		{"Model", in.sess.Model},
		{"System prompt", orNone(util.TruncateRunes(util.CollapseNewlines(in.sess.SystemPrompt), 60))},
		{"Messages", util.IntToStr(in.sess.Len())},
		{"User messages", util.IntToStr(in.sess.CountByRole(openai.RoleUser))},
		{"Assistant replies", util.IntToStr(in.sess.CountByRole(openai.RoleAssistant))},
		{"Started", in.sess.StartedAt.Format("2006-01-02 15:04:05")},
	}

	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&sb, "%s  %s\n", util.PadRight(row[0], width), row[1])
	}
	in.disp.Printf("%s", strings.TrimRight(sb.String(), "\n"))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// =============================================================================
// PERSISTENCE COMMANDS
// =============================================================================

func (in *Interpreter) execSave(arg string) {
	path, err := in.store.Save(in.sess, arg)
	if err != nil {
		in.disp.Errorf("Could not save chat: %v", err)
		return
	}
	in.disp.Printf("Saved chat to %s", path)
}

func (in *Interpreter) execLoad(arg string) {
	if arg == "" {
		in.disp.Errorf("Usage: /load FILENAME")
		return
	}
	loaded, err := in.store.Load(arg)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrChatNotFound):
			in.disp.Errorf("No saved chat named %q", arg)
		case errors.Is(err, storage.ErrChatMalformed):
			in.disp.Errorf("Saved chat %q is not readable: %v", arg, err)
		default:
			in.disp.Errorf("Could not load chat: %v", err)
		}
		return
	}
	in.sess = loaded
	in.disp.ClearScreen()
	in.disp.Printf("Loaded chat from %s (%s messages, model %s)",
		arg, util.IntToStr(loaded.Len()), loaded.Model)
}

// =============================================================================
// HELP
// =============================================================================

func (in *Interpreter) execHelp() {
	width := 0
	for _, spec := range Specs {
		if len(spec.Usage) > width {
			width = len(spec.Usage)
		}
	}

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, spec := range Specs {
		fmt.Fprintf(&sb, "  %s  %s\n", util.PadRight(spec.Usage, width), spec.Description)
	}
	sb.WriteString("\nAnything else is sent to the model as a chat message.")
	in.disp.Printf("%s", sb.String())
}
