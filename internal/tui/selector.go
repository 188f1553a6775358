// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Keypick.
// This file contains the multi-select widget: a single-screen checkbox list
// that redraws in place and returns the final toggle vector to the caller.
package tui // import "github.com/toeirei/keypick/internal/tui"

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/keypick/internal/i18n"
	"golang.org/x/term"
)

// selectorModel holds the state for the multi-select widget.
type selectorModel struct {
	options   []string
	state     *SelectionState
	showHelp  bool
	confirmed bool
	cancelled bool
}

// newSelectorModel builds the widget model. defaults may be nil.
func newSelectorModel(showHelp bool, options []string, defaults []bool) (*selectorModel, error) {
	state, err := NewSelectionState(len(options), defaults)
	if err != nil {
		return nil, err
	}
	return &selectorModel{
		options:  options,
		state:    state,
		showHelp: showHelp,
	}, nil
}

// Init initializes the model.
func (m *selectorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model's state. Confirmation is
// gated: enter is a no-op while more than MaxSelected entries are toggled,
// leaving the warning line visible until the user deselects.
func (m *selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case " ":
		m.state.Toggle()
	case "up", "k":
		m.state.Move(-1)
	case "down", "j":
		m.state.Move(1)
	case "enter":
		if m.state.TryConfirm() {
			m.confirmed = true
			return m, tea.Quit
		}
	}
	// Anything else is ignored; the loop continues.
	return m, nil
}

// View renders the checkbox list, one row per option, with the active row
// highlighted and a status line below. The final frame after an accepted
// confirm is rendered with no row highlighted.
func (m *selectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(i18n.T("selector.title")))
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(helpStyle.Render(i18n.T("selector.help")))
		b.WriteString("\n")
	}

	for i, label := range m.options {
		box := "[ ]"
		if m.state.Selected[i] {
			box = "[" + checkmarkStyle.Render("x") + "]"
		}
		row := fmt.Sprintf("%s %s", box, label)
		if i == m.state.ActiveIndex && !m.confirmed && !m.cancelled {
			row = activeItemStyle.Render(row)
		} else {
			row = itemStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	// Status line: a persistent, non-blocking warning while over the limit.
	if m.state.Overflow() {
		b.WriteString(warningStyle.Render(i18n.T("selector.too_many", MaxSelected)))
	}
	b.WriteString("\n")

	return b.String()
}

// Select runs the multi-select widget and returns the toggle vector,
// index-aligned with options. It validates its input and the terminal before
// rendering anything, and returns ErrCancelled when the user aborts.
// Terminal modes (raw input, cursor visibility) are restored by Bubble Tea
// on every exit path, including an interrupt during the blocking read.
func Select(showHelp bool, options []string, defaults []bool) ([]bool, error) {
	m, err := newSelectorModel(showHelp, options, defaults)
	if err != nil {
		return nil, err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, fmt.Errorf("%w: stdin/stdout is not a TTY", ErrUnsupportedTerminal)
	}

	// No alt screen: the widget draws in place and leaves its final frame
	// in the scrollback, like ssh-copy-id style prompts do.
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("selector failed: %w", err)
	}

	fm, ok := final.(*selectorModel)
	if !ok || fm.cancelled || !fm.confirmed {
		return nil, ErrCancelled
	}
	return fm.state.Result(), nil
}
