// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gpt-cli/internal/openai"
	"github.com/jeranaias/gpt-cli/internal/session"
)

func newTestStore(t *testing.T) *ChatStore {
	t.Helper()
	store, err := NewChatStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleSession() *session.Session {
	sess := session.New("gpt-4o-mini", "Be concise")
	sess.Append(openai.NewUserMessage("What is Go?"))
	sess.Append(openai.NewAssistantMessage("A programming language."))
	sess.Append(openai.NewUserMessage("Thanks!"))
	sess.Append(openai.NewAssistantMessage("You're welcome."))
	return sess
}

// =============================================================================
// ROUND-TRIP TESTS
// =============================================================================

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession()

	path, err := store.Save(sess, "roundtrip")
	require.NoError(t, err)
	require.FileExists(t, path)

	loaded, err := store.Load("roundtrip")
	require.NoError(t, err)

	assert.True(t, sess.Equal(loaded), "loaded session should be structurally equal to saved one")
	assert.Equal(t, "gpt-4o-mini", loaded.Model)
	assert.Equal(t, "Be concise", loaded.SystemPrompt)
	assert.Equal(t, sess.Len(), loaded.Len())
}

func TestSaveLoad_RoundTripWithoutSystemPrompt(t *testing.T) {
	store := newTestStore(t)
	sess := session.New("gpt-4o", "")
	sess.Append(openai.NewUserMessage("hi"))
	sess.Append(openai.NewAssistantMessage("hello"))

	_, err := store.Save(sess, "nosystem")
	require.NoError(t, err)

	loaded, err := store.Load("nosystem")
	require.NoError(t, err)

	assert.True(t, sess.Equal(loaded))
	assert.Empty(t, loaded.SystemPrompt)
}

func TestSaveLoad_EmptySession(t *testing.T) {
	store := newTestStore(t)
	sess := session.New("gpt-4o-mini", "")

	_, err := store.Save(sess, "empty")
	require.NoError(t, err)

	loaded, err := store.Load("empty")
	require.NoError(t, err)
	assert.True(t, sess.Equal(loaded))
	assert.Equal(t, 0, loaded.Len())
}

func TestSave_DoesNotMutateSession(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession()
	before := sess.Clone()

	_, err := store.Save(sess, "untouched")
	require.NoError(t, err)

	assert.True(t, before.Equal(sess), "Save must borrow the session read-only")
}

// =============================================================================
// ERROR DISTINCTION TESTS
// =============================================================================

func TestLoad_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChatNotFound), "err = %v", err)
	assert.False(t, errors.Is(err, ErrChatMalformed))
}

func TestLoad_MalformedJSON(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := store.Load("bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChatMalformed), "err = %v", err)
	assert.False(t, errors.Is(err, ErrChatNotFound))
}

func TestLoad_MissingModel(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "nomodel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"messages":[]}`), 0644))

	_, err := store.Load("nomodel")
	assert.True(t, errors.Is(err, ErrChatMalformed), "err = %v", err)
}

func TestLoad_InvalidRole(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "badrole.json")
	content := `{"version":1,"model":"gpt-4o","messages":[{"role":"wizard","content":"zap"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := store.Load("badrole")
	assert.True(t, errors.Is(err, ErrChatMalformed), "err = %v", err)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "future.json")
	content := `{"version":99,"model":"gpt-4o","messages":[]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := store.Load("future")
	assert.True(t, errors.Is(err, ErrChatMalformed), "err = %v", err)
}

// =============================================================================
// COMPATIBILITY TESTS
// =============================================================================

func TestLoad_RecoversPromptFromLeadingSystemMessage(t *testing.T) {
	// Older saves carried the prompt only as the first message.
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "old.json")
	content := `{
		"version": 1,
		"model": "gpt-3.5-turbo",
		"messages": [
			{"role": "system", "content": "legacy prompt"},
			{"role": "user", "content": "q"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, err := store.Load("old")
	require.NoError(t, err)
	assert.Equal(t, "legacy prompt", loaded.SystemPrompt)
	assert.Equal(t, 2, loaded.Len())
}

func TestLoad_SeedsMissingSystemMessage(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.BaseDir, "seed.json")
	content := `{
		"version": 1,
		"model": "gpt-4o",
		"system_prompt": "seeded",
		"messages": [{"role": "user", "content": "q"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, err := store.Load("seed")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, openai.RoleSystem, loaded.Messages[0].Role)
	assert.Equal(t, "seeded", loaded.Messages[0].Content)
}

// =============================================================================
// PATH RESOLUTION TESTS
// =============================================================================

func TestResolve(t *testing.T) {
	store := &ChatStore{BaseDir: "/base"}

	tests := []struct {
		name string
		want string
	}{
		{"notes", filepath.Join("/base", "notes.json")},
		{"notes.json", filepath.Join("/base", "notes.json")},
		{"/abs/path/chat.json", "/abs/path/chat.json"},
		{"/abs/path/chat", "/abs/path/chat.json"},
	}

	for _, tc := range tests {
		if got := store.Resolve(tc.name); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolve_EmptyDerivesDefault(t *testing.T) {
	store := &ChatStore{BaseDir: "/base"}

	got := store.Resolve("")
	assert.True(t, strings.HasPrefix(filepath.Base(got), "chat-"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, ".json"))
}

func TestDefaultFileName_Unique(t *testing.T) {
	a := DefaultFileName()
	b := DefaultFileName()
	assert.NotEqual(t, a, b, "derived filenames should not collide")
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestList(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(sampleSession(), "one")
	require.NoError(t, err)
	_, err = store.Save(sampleSession(), "two")
	require.NoError(t, err)

	// Corrupted file should be skipped, not fail the listing
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "junk.json"), []byte("junk"), 0644))

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "What is Go?", metas[0].Preview)
	assert.Equal(t, 5, metas[0].MessageCount)
}

func TestList_EmptyDir(t *testing.T) {
	store := newTestStore(t)

	metas, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, metas)
}
