// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard wraps OS clipboard access behind a narrow interface so
// the command interpreter can be tested without a display server.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	// ErrUnavailable indicates the OS clipboard could not be reached
	// (e.g. no display server, missing xclip/xsel on Linux).
	ErrUnavailable = errors.New("clipboard unavailable")

	// ErrEmpty indicates the clipboard holds no usable text.
	ErrEmpty = errors.New("clipboard is empty")
)

// Clipboard is the narrow interface the command interpreter consumes.
type Clipboard interface {
	// Read returns the current clipboard text.
	Read() (string, error)

	// Write replaces the clipboard content with text.
	Write(text string) error
}

// systemClipboard talks to the real OS clipboard.
type systemClipboard struct{}

// System returns the OS-backed clipboard.
func System() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) Read() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

func (systemClipboard) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
