// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides saved-chat persistence for gpt-cli.
//
// A saved chat is a self-describing JSON file carrying the model, the system
// prompt, and the full ordered message sequence. Loading a file saved from a
// session reconstructs a session structurally equal to the original.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gpt-cli/internal/openai"
	"github.com/jeranaias/gpt-cli/internal/session"
	"github.com/jeranaias/gpt-cli/internal/util"
)

// FormatVersion is the current saved-chat file format version.
const FormatVersion = 1

// =============================================================================
// STORED CHAT TYPE
// =============================================================================

// StoredChat is the on-disk representation of a session.
type StoredChat struct {
	Version      int             `json:"version"`
	Model        string          `json:"model"`
	SystemPrompt string          `json:"system_prompt,omitempty"`
	Messages     []StoredMessage `json:"messages"`
	SavedAt      time.Time       `json:"saved_at,omitempty"`
}

// StoredMessage is one persisted conversation turn.
type StoredMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatMeta contains metadata for listing saved chats.
type ChatMeta struct {
	Path         string
	Model        string
	MessageCount int
	SavedAt      time.Time
	Preview      string // First user message, truncated
}

// =============================================================================
// ERRORS
// =============================================================================

// ChatError represents a saved-chat error. It supports errors.Is so callers
// can distinguish a missing file from a malformed one.
type ChatError struct {
	Message string
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing chat errors.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrChatNotFound is returned when the requested file does not exist.
	ErrChatNotFound = &ChatError{Message: "chat file not found"}

	// ErrChatMalformed is returned when the file exists but cannot be
	// decoded into a valid chat.
	ErrChatMalformed = &ChatError{Message: "chat file malformed"}
)

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore resolves chat file paths and performs save/load.
//
// Relative paths resolve against BaseDir; absolute paths are used as given.
// The store borrows a session only for the duration of a Save and returns a
// freshly constructed session from Load; it never retains a reference.
type ChatStore struct {
	// BaseDir is the directory for saved chats, e.g. ~/.gpt-cli/chats.
	BaseDir string
}

// NewChatStore creates a store rooted at baseDir, creating it if needed.
func NewChatStore(baseDir string) (*ChatStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chat directory: %w", err)
	}
	return &ChatStore{BaseDir: baseDir}, nil
}

// Resolve turns a user-supplied name into the full file path.
// An empty name derives a fresh default filename. A missing .json extension
// is added so "/save notes" and "/load notes" agree.
func (s *ChatStore) Resolve(name string) string {
	if name == "" {
		name = DefaultFileName()
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.BaseDir, name)
}

// DefaultFileName derives a save filename from the current time plus a short
// unique suffix, e.g. "chat-20260830-151203-a1b2c3d4.json".
func DefaultFileName() string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("chat-%s-%s.json", time.Now().Format("20060102-150405"), short)
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the session to the named file (empty name = derived default)
// and returns the resolved path. The session itself is never modified; a
// failed write leaves any existing file intact.
func (s *ChatStore) Save(sess *session.Session, name string) (string, error) {
	stored := FromSession(sess)

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode chat: %w", err)
	}

	path := s.Resolve(name)
	// RELIABILITY: Atomic write with fsync prevents a half-written chat file
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write chat file: %w", err)
	}
	return path, nil
}

// FromSession converts live session state to its stored form.
// The session is borrowed read-only.
func FromSession(sess *session.Session) *StoredChat {
	stored := &StoredChat{
		Version:      FormatVersion,
		Model:        sess.Model,
		SystemPrompt: sess.SystemPrompt,
		Messages:     make([]StoredMessage, 0, len(sess.Messages)),
		SavedAt:      time.Now().UTC(),
	}
	for _, msg := range sess.Messages {
		stored.Messages = append(stored.Messages, StoredMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return stored
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the named file and reconstructs a session.
// A missing file yields ErrChatNotFound; undecodable or invalid content
// yields ErrChatMalformed. Both wrap detail for display.
func (s *ChatStore) Load(name string) (*session.Session, error) {
	path := s.Resolve(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrChatNotFound, path)
		}
		return nil, fmt.Errorf("failed to read chat file: %w", err)
	}

	var stored StoredChat
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatMalformed, err)
	}

	if err := stored.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatMalformed, err)
	}

	return stored.ToSession(), nil
}

// validate checks the decoded shape before reconstructing a session.
func (c *StoredChat) validate() error {
	if c.Model == "" {
		return errors.New("missing model")
	}
	if c.Version > FormatVersion {
		return fmt.Errorf("unsupported version %d", c.Version)
	}
	for i, msg := range c.Messages {
		if !openai.ValidRole(msg.Role) {
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
	}
	return nil
}

// ToSession reconstructs a session from stored form.
//
// The session invariant is restored on the way in: when a system prompt is
// recorded but the first message is not a system message, one is seeded; when
// the prompt is absent but the file leads with a system message (older saves),
// the prompt is recovered from it.
func (c *StoredChat) ToSession() *session.Session {
	messages := make([]openai.ChatMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		messages = append(messages, openai.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	prompt := c.SystemPrompt
	if prompt == "" && len(messages) > 0 && messages[0].Role == openai.RoleSystem {
		prompt = messages[0].Content
	}
	if prompt != "" && (len(messages) == 0 || messages[0].Role != openai.RoleSystem) {
		messages = append([]openai.ChatMessage{openai.NewSystemMessage(prompt)}, messages...)
	}

	sess := session.New(c.Model, "")
	sess.Replace(messages, c.Model, prompt)
	return sess
}

// =============================================================================
// LIST
// =============================================================================

// List returns metadata for all saved chats in BaseDir, most recent first.
// Corrupted files are skipped.
func (s *ChatStore) List() ([]ChatMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ChatMeta{}, nil
		}
		return nil, err
	}

	var metas []ChatMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.BaseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var stored StoredChat
		if err := json.Unmarshal(data, &stored); err != nil {
			continue
		}

		preview := ""
		for _, msg := range stored.Messages {
			if msg.Role == openai.RoleUser {
				preview = util.TruncateRunes(util.CollapseNewlines(msg.Content), 60)
				break
			}
		}

		metas = append(metas, ChatMeta{
			Path:         path,
			Model:        stored.Model,
			MessageCount: len(stored.Messages),
			SavedAt:      stored.SavedAt,
			Preview:      preview,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}
