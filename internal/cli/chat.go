// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat loop for gpt-cli.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Runs the REPL that drives a conversation with the API: reads input with
// history support, dispatches slash commands to the interpreter, and streams
// plain messages to the model.
//
// Interactive commands (during chat):
//   /paste              Send clipboard content as a message
//   /copy               Copy the last reply to the clipboard
//   /new                Start a new chat
//   /clear              Clear the screen
//   /system [PROMPT]    New chat with the given system prompt
//   /model MODEL        New chat with the given model
//   /info               Session details
//   /save [FILE]        Save the chat
//   /load FILE          Load a saved chat
//   /help, /h           Show available commands
//   /quit, /q, /exit    Exit (also bare "quit"/"exit", Ctrl+D)
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/gpt-cli/internal/clipboard"
	"github.com/jeranaias/gpt-cli/internal/commands"
	"github.com/jeranaias/gpt-cli/internal/config"
	"github.com/jeranaias/gpt-cli/internal/openai"
	"github.com/jeranaias/gpt-cli/internal/session"
	"github.com/jeranaias/gpt-cli/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the chat loop.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "input_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Non-empty input is added to the history.
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

// SaveHistory persists input history with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	// 0600 - the history can contain anything the user typed
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
// CONTROLLER
// =============================================================================

// Controller owns everything the chat loop needs: the session (through the
// interpreter), the API client, and the input handler.
type Controller struct {
	cfg    *config.Config
	client *openai.Client
	interp *commands.Interpreter
	store  *storage.ChatStore
	input  *ChatCLI
	plain  bool

	startTime time.Time
	exchanges int

	// cancelFunc aborts the in-flight stream on Ctrl+C. Written by the
	// REPL loop and read by the signal goroutine, so access goes through
	// cancelMu.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
}

// setCancel records the cancel function for the in-flight request.
// Pass nil when the request finishes.
func (c *Controller) setCancel(cancel context.CancelFunc) {
	c.cancelMu.Lock()
	c.cancelFunc = cancel
	c.cancelMu.Unlock()
}

// cancelInFlight aborts the in-flight request, if any. Reports whether
// there was one to abort.
func (c *Controller) cancelInFlight() bool {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancelFunc == nil {
		return false
	}
	c.cancelFunc()
	c.cancelFunc = nil
	return true
}

// NewController builds the chat loop from a validated config. The model and
// system prompt have already had flag overrides applied by the caller.
func NewController(cfg *config.Config, args Args) (*Controller, error) {
	chatDir, err := cfg.ChatDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine chat directory: %w", err)
	}
	store, err := storage.NewChatStore(chatDir)
	if err != nil {
		return nil, fmt.Errorf("cannot create chat directory: %w", err)
	}

	client := openai.NewClient(cfg.APIKey).WithBaseURL(cfg.BaseURL)
	sess := session.New(cfg.DefaultModel, cfg.SystemPrompt)
	interp := commands.NewInterpreter(sess, store, clipboard.System(), stdDisplay{})

	return &Controller{
		cfg:       cfg,
		client:    client,
		interp:    interp,
		store:     store,
		plain:     args.Plain || cfg.PlainOutput,
		startTime: time.Now(),
	}, nil
}

// LoadChat restores a saved chat before the loop starts (--load flag).
// Unlike the interactive /load, a failure here is fatal to startup.
func (c *Controller) LoadChat(name string) error {
	loaded, err := c.store.Load(name)
	if err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			if hint := c.savedChatHint(); hint != "" {
				return fmt.Errorf("no saved chat named %q (%s)", name, hint)
			}
			return fmt.Errorf("no saved chat named %q", name)
		}
		return fmt.Errorf("could not load chat %q: %w", name, err)
	}
	c.interp.SetSession(loaded)
	return nil
}

// savedChatHint names the most recent saved chats for --load error messages.
func (c *Controller) savedChatHint() string {
	metas, err := c.store.List()
	if err != nil || len(metas) == 0 {
		return ""
	}
	names := make([]string, 0, 3)
	for i, meta := range metas {
		if i == 3 {
			break
		}
		names = append(names, filepath.Base(meta.Path))
	}
	return "recent saves: " + strings.Join(names, ", ")
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// Run starts the interactive loop and blocks until the user exits.
// Returns nil on a clean exit (/quit, Ctrl+D).
func (c *Controller) Run(args Args) error {
	if c.cfg.ClearOnStart && !args.NoClear {
		ClearScreen()
	}
	printWelcome(c.interp.Session())

	// One-shot query before the loop
	if args.Query != "" {
		if err := c.processOneShot(args.Query); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		// When stdin is not a terminal there is nothing to loop over
		if !IsTTY() {
			return nil
		}
	}

	c.input = NewChatCLI()
	defer c.input.Close()

	// First Ctrl+C cancels the in-flight stream rather than killing the
	// process; at the prompt liner turns it into ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if c.cancelInFlight() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := c.input.ReadInput(promptStyle.Render("> "))
		if err != nil {
			// Ctrl+C at the prompt, EOF (Ctrl+D), or a closed terminal
			fmt.Println()
			c.printExitSummary()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if commands.IsCommand(input) {
			cmd, _ := commands.Parse(input)
			res := c.interp.Execute(cmd)
			switch res.Outcome {
			case commands.OutcomeQuit:
				c.printExitSummary()
				return nil
			case commands.OutcomeSendMessage:
				if err := c.processMessage(res.Message); err != nil {
					fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
				}
			}
			continue
		}

		// Bare exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			c.printExitSummary()
			return nil
		}

		if err := c.processMessage(input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage appends the user message, streams the reply, and appends
// the assistant message. A failed exchange rolls the user message back so
// the history is exactly as it was before.
func (c *Controller) processMessage(input string) error {
	sess := c.interp.Session()
	sess.Append(openai.NewUserMessage(input))

	ctx, cancel := context.WithCancel(context.Background())
	c.setCancel(cancel)
	defer func() {
		c.setCancel(nil)
		cancel()
	}()

	// USABILITY: Render markdown on TTY; stream plain tokens otherwise.
	// Markdown needs the complete reply, so it is collected and rendered
	// at the end instead of echoed token by token.
	useMarkdown := !c.plain && IsStdoutTTY()

	fmt.Println() // Space before response

	accumulator := openai.NewStreamAccumulator()
	err := c.client.ChatStream(ctx, sess.Model, sess.Messages, func(chunk openai.StreamChunk) {
		if !useMarkdown {
			streamToStdout(chunk.GetContent())
		}
		accumulator.Add(chunk)
	})

	if err != nil {
		sess.TruncateLast()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("chat request failed: %w", err)
	}

	reply := accumulator.GetContent()
	if reply == "" {
		sess.TruncateLast()
		return openai.ErrEmptyResponse
	}

	if useMarkdown {
		displayResponse(reply, c.plain)
	}
	fmt.Println()
	fmt.Println() // Extra space after response

	sess.Append(openai.NewAssistantMessage(reply))
	c.exchanges++
	return nil
}

// processOneShot handles the --query message. There is nothing to echo
// incrementally before the loop starts, so it uses the plain completion
// call and prints the finished reply.
func (c *Controller) processOneShot(input string) error {
	sess := c.interp.Session()
	sess.Append(openai.NewUserMessage(input))

	resp, err := c.client.Chat(context.Background(), sess.Model, sess.Messages)
	if err != nil {
		sess.TruncateLast()
		return fmt.Errorf("chat request failed: %w", err)
	}

	reply := resp.GetContent()
	if reply == "" {
		sess.TruncateLast()
		return openai.ErrEmptyResponse
	}

	fmt.Println()
	displayResponse(reply, c.plain)
	fmt.Println()

	sess.Append(openai.NewAssistantMessage(reply))
	c.exchanges++
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the startup banner.
func printWelcome(sess *session.Session) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("gpt-cli"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(sess.Model))
	if sess.SystemPrompt != "" {
		fmt.Printf("%s %s\n",
			infoStyle.Render("System:"),
			sess.SystemPrompt)
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func (c *Controller) printExitSummary() {
	if c.exchanges == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(c.startTime).Round(time.Second)
	fmt.Printf("%s %d exchanges in %s\n",
		infoStyle.Render("Session:"),
		c.exchanges,
		elapsed.String())
	fmt.Println(infoStyle.Render("Goodbye!"))
}
