// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the in-memory state of one conversation: the ordered
// message history, the active model, and the active system prompt.
//
// State transitions that start a fresh conversation (/new, /system, /model)
// are expressed through the pure function Next, which builds a new Session
// from the old one plus the single changed field. Changing the system prompt
// or the model means starting a new conversation, never rewriting history.
package session

import (
	"time"

	"github.com/jeranaias/gpt-cli/internal/openai"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// Session is the mutable state of one conversation.
//
// Invariant: Messages is empty, or Messages[0] has role "system" exactly when
// SystemPrompt is non-empty. Later messages alternate between user and
// assistant in the order they were produced. Messages are only appended or
// replaced wholesale, never edited in place.
type Session struct {
	Messages     []openai.ChatMessage
	Model        string
	SystemPrompt string
	StartedAt    time.Time
}

// New creates a session with the given model and system prompt.
// A non-empty prompt is seeded as the first message.
func New(model, systemPrompt string) *Session {
	s := &Session{
		Model:        model,
		SystemPrompt: systemPrompt,
		StartedAt:    time.Now(),
	}
	if systemPrompt != "" {
		s.Messages = []openai.ChatMessage{openai.NewSystemMessage(systemPrompt)}
	}
	return s
}

// =============================================================================
// PURE TRANSITION
// =============================================================================

// Change describes the single field a fresh-conversation transition modifies.
// A nil field carries the old value forward.
type Change struct {
	Model        *string
	SystemPrompt *string
}

// Next returns a fresh session derived from old with the change applied.
// The message history is always reset; the fields not named in the change are
// carried forward unchanged. old is never mutated.
func Next(old *Session, change Change) *Session {
	model := old.Model
	prompt := old.SystemPrompt
	if change.Model != nil {
		model = *change.Model
	}
	if change.SystemPrompt != nil {
		prompt = *change.SystemPrompt
	}
	return New(model, prompt)
}

// =============================================================================
// MUTATION
// =============================================================================

// Append adds a message to the conversation. It never fails and applies no
// size cap; long sessions exceeding API context limits are the API's concern.
func (s *Session) Append(msg openai.ChatMessage) {
	s.Messages = append(s.Messages, msg)
}

// TruncateLast removes the last message. Used by the chat loop to roll back
// the user message when the API call fails, so a failed submission leaves the
// history exactly as it was.
func (s *Session) TruncateLast() {
	if len(s.Messages) > 0 {
		s.Messages = s.Messages[:len(s.Messages)-1]
	}
}

// Replace swaps the session content wholesale. Used by /load; the incoming
// slice is owned by the session afterward.
func (s *Session) Replace(messages []openai.ChatMessage, model, systemPrompt string) {
	s.Messages = messages
	s.Model = model
	s.SystemPrompt = systemPrompt
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Len returns the number of messages, including the seeded system message.
func (s *Session) Len() int {
	return len(s.Messages)
}

// CountByRole returns the number of messages with the given role.
func (s *Session) CountByRole(role string) int {
	n := 0
	for _, msg := range s.Messages {
		if msg.Role == role {
			n++
		}
	}
	return n
}

// LastAssistant returns the content of the most recent assistant message.
// ok is false when the conversation has no assistant messages yet.
func (s *Session) LastAssistant() (content string, ok bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == openai.RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

// Clone returns a deep copy. The persistence layer serializes from a clone so
// it never retains a reference into live state.
func (s *Session) Clone() *Session {
	messages := make([]openai.ChatMessage, len(s.Messages))
	copy(messages, s.Messages)
	return &Session{
		Messages:     messages,
		Model:        s.Model,
		SystemPrompt: s.SystemPrompt,
		StartedAt:    s.StartedAt,
	}
}

// Equal reports structural equality of model, system prompt, and the full
// ordered message sequence. StartedAt is ignored.
func (s *Session) Equal(other *Session) bool {
	if s.Model != other.Model || s.SystemPrompt != other.SystemPrompt {
		return false
	}
	if len(s.Messages) != len(other.Messages) {
		return false
	}
	for i := range s.Messages {
		if s.Messages[i] != other.Messages[i] {
			return false
		}
	}
	return true
}
