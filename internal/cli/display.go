// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// display.go - Terminal output for gpt-cli.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Assistant replies are rendered as markdown (syntax highlighting, lists,
// code blocks) when stdout is a TTY; piped output stays plain so it can be
// redirected safely. Slash command feedback goes through stdDisplay, which
// implements the interpreter's Display surface.

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown responses with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays an assistant reply with markdown rendering when
// appropriate. Only renders markdown when stdout is a TTY to avoid
// corrupting piped output.
func displayResponse(response string, plain bool) {
	if !plain && IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// streamToStdout prints tokens directly to stdout as they arrive.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// COMMAND FEEDBACK
// =============================================================================

// stdDisplay is the terminal-backed Display surface for the interpreter.
// Informational output goes to stdout; errors go to stderr so they survive
// output redirection.
type stdDisplay struct{}

func (stdDisplay) Printf(format string, args ...any) {
	fmt.Println(commandStyle.Render(fmt.Sprintf(format, args...)))
}

func (stdDisplay) Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n",
		errorStyle.Render("[Error]"),
		fmt.Sprintf(format, args...))
}

func (stdDisplay) ClearScreen() {
	ClearScreen()
}
