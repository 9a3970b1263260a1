// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/gpt-cli/internal/config"
	"github.com/jeranaias/gpt-cli/internal/openai"
)

// =============================================================================
// CONTROLLER TESTS
// =============================================================================

// newTestController builds a Controller whose client talks to the given
// handler. Chats save under a temp dir and the session starts empty so
// message counts are easy to assert.
func newTestController(t *testing.T, handler http.HandlerFunc) *Controller {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL
	cfg.SystemPrompt = ""
	cfg.SaveDir = t.TempDir()

	c, err := NewController(cfg, Args{Plain: true})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

func streamChunk(content, finishReason string) string {
	return fmt.Sprintf(`{"id":"c1","model":"gpt-4o-mini","choices":[{"delta":{"content":%q},"finish_reason":%q}]}`,
		content, finishReason)
}

func TestProcessMessage_Success(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", streamChunk("Hel", ""))
		fmt.Fprintf(w, "data: %s\n\n", streamChunk("lo", "stop"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	if err := c.processMessage("hi"); err != nil {
		t.Fatalf("processMessage failed: %v", err)
	}

	sess := c.interp.Session()
	if sess.Len() != 2 {
		t.Fatalf("message count = %d, want 2 (user + assistant)", sess.Len())
	}
	if got := sess.Messages[1].Content; got != "Hello" {
		t.Errorf("assistant reply = %q, want 'Hello'", got)
	}
	if c.exchanges != 1 {
		t.Errorf("exchanges = %d, want 1", c.exchanges)
	}
}

// A failed request must leave the history exactly as it was: the user
// message is appended before the request and rolled back on error, so a
// retry does not duplicate it.
func TestProcessMessage_APIFailureRollsBack(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	})

	err := c.processMessage("hi")
	if !errors.Is(err, openai.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}

	if got := c.interp.Session().Len(); got != 0 {
		t.Errorf("message count after failure = %d, want 0", got)
	}
	if c.exchanges != 0 {
		t.Errorf("exchanges = %d, want 0", c.exchanges)
	}
}

func TestProcessMessage_EmptyReplyRollsBack(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", streamChunk("", "stop"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	err := c.processMessage("hi")
	if !errors.Is(err, openai.ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
	if got := c.interp.Session().Len(); got != 0 {
		t.Errorf("message count after empty reply = %d, want 0", got)
	}
}

func TestProcessMessage_SeveredStreamRollsBack(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", streamChunk("par", ""))
		w.(http.Flusher).Flush()
		// Sever the connection mid-reply
		panic(http.ErrAbortHandler)
	})

	err := c.processMessage("hi")
	var streamErr *openai.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("err = %v, want *StreamError", err)
	}

	// The partial reply is discarded along with the user message
	if got := c.interp.Session().Len(); got != 0 {
		t.Errorf("message count after severed stream = %d, want 0", got)
	}
}

func TestProcessMessage_FailureKeepsSeededSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL
	cfg.SystemPrompt = "Be terse."
	cfg.SaveDir = t.TempDir()

	c, err := NewController(cfg, Args{Plain: true})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	if err := c.processMessage("hi"); err == nil {
		t.Fatal("expected an error from the failing server")
	}

	sess := c.interp.Session()
	if sess.Len() != 1 {
		t.Fatalf("message count = %d, want 1 (seeded system message)", sess.Len())
	}
	if sess.Messages[0].Role != openai.RoleSystem {
		t.Errorf("surviving message role = %q, want 'system'", sess.Messages[0].Role)
	}
}

func TestProcessOneShot_Success(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "done"}, "finish_reason": "stop"}]}`)
	})

	if err := c.processOneShot("hi"); err != nil {
		t.Fatalf("processOneShot failed: %v", err)
	}
	sess := c.interp.Session()
	if sess.Len() != 2 {
		t.Fatalf("message count = %d, want 2", sess.Len())
	}
	if got := sess.Messages[1].Content; got != "done" {
		t.Errorf("assistant reply = %q, want 'done'", got)
	}
}

func TestProcessOneShot_APIFailureRollsBack(t *testing.T) {
	c := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"message": "The model 'bogus' does not exist", "code": "model_not_found"}}`)
	})

	err := c.processOneShot("hi")
	if !errors.Is(err, openai.ErrModelNotFound) {
		t.Fatalf("err = %v, want ErrModelNotFound", err)
	}
	if got := c.interp.Session().Len(); got != 0 {
		t.Errorf("message count after failure = %d, want 0", got)
	}
}
