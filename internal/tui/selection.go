// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Keypick.
// This file contains the selection state for the multi-select widget and the
// pure transition functions that mutate it. Keeping the transitions free of
// any terminal I/O lets them be unit tested without a TTY.
package tui // import "github.com/toeirei/keypick/internal/tui"

import (
	"errors"
	"fmt"
)

// MaxSelected is the maximum number of keys that may be selected at
// confirmation time. Exceeding it never blocks toggling; it only gates
// the confirm action.
const MaxSelected = 5

// Selector errors surfaced before the interactive loop starts.
var (
	// ErrInvalidInput is returned for an empty option list or a defaults
	// vector whose length does not match the options.
	ErrInvalidInput = errors.New("invalid selector input")
	// ErrUnsupportedTerminal is returned when stdin/stdout is not an
	// interactive ANSI terminal.
	ErrUnsupportedTerminal = errors.New("unsupported terminal")
	// ErrCancelled is returned when the user aborts the selection.
	ErrCancelled = errors.New("selection cancelled")
)

// SelectionState is the mutable state of one widget invocation: the toggle
// vector, a running count of toggled entries, and the highlighted row.
type SelectionState struct {
	Selected      []bool
	SelectedCount int
	ActiveIndex   int
}

// NewSelectionState builds the initial state for n options. defaults may be
// nil (all false) or must have length n.
func NewSelectionState(n int, defaults []bool) (*SelectionState, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: no options supplied", ErrInvalidInput)
	}
	if defaults != nil && len(defaults) != n {
		return nil, fmt.Errorf("%w: %d defaults for %d options", ErrInvalidInput, len(defaults), n)
	}

	s := &SelectionState{Selected: make([]bool, n)}
	if defaults != nil {
		copy(s.Selected, defaults)
		for _, v := range defaults {
			if v {
				s.SelectedCount++
			}
		}
	}
	return s, nil
}

// Toggle flips the entry under the cursor and keeps SelectedCount in step.
func (s *SelectionState) Toggle() {
	if s.Selected[s.ActiveIndex] {
		s.SelectedCount--
	} else {
		s.SelectedCount++
	}
	s.Selected[s.ActiveIndex] = !s.Selected[s.ActiveIndex]
}

// Move shifts the cursor by delta rows, wrapping around both directions.
func (s *SelectionState) Move(delta int) {
	n := len(s.Selected)
	s.ActiveIndex = ((s.ActiveIndex+delta)%n + n) % n
}

// Overflow reports whether more than MaxSelected entries are toggled.
func (s *SelectionState) Overflow() bool {
	return s.SelectedCount > MaxSelected
}

// TryConfirm reports whether a confirm action is accepted. A rejected
// confirm leaves the state untouched; the caller keeps looping.
func (s *SelectionState) TryConfirm() bool {
	return !s.Overflow()
}

// Result returns a copy of the toggle vector, one entry per option.
func (s *SelectionState) Result() []bool {
	out := make([]bool, len(s.Selected))
	copy(out, s.Selected)
	return out
}
