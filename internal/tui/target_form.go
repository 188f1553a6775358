// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Keypick.
// This file contains the small form used to ask for the remote account when
// no --target flag was given.
package tui // import "github.com/toeirei/keypick/internal/tui"

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/keypick/internal/i18n"
	"github.com/toeirei/keypick/internal/model"
)

// A simple style for the focused text input.
var focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

// targetFormModel holds the state for the target entry form.
type targetFormModel struct {
	ti        textinput.Model
	target    model.Target
	done      bool
	cancelled bool
	err       error
}

func newTargetFormModel() *targetFormModel {
	t := textinput.New()
	t.Cursor.Style = focusedStyle
	t.CharLimit = 128
	t.Width = 40
	t.Prompt = i18n.T("target_form.prompt") + " "
	t.Placeholder = "deploy@server-01"
	t.Focus()
	return &targetFormModel{ti: t}
}

func (m *targetFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *targetFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			target, err := model.ParseTarget(m.ti.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.target = target
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *targetFormModel) View() string {
	var b strings.Builder
	b.WriteString(m.ti.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(i18n.T("target_form.invalid", m.err)))
		b.WriteString("\n")
	}
	return b.String()
}

// AskTarget prompts for a user@host target. It returns ErrCancelled when the
// user aborts the form.
func AskTarget() (model.Target, error) {
	m := newTargetFormModel()
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return model.Target{}, err
	}
	fm, ok := final.(*targetFormModel)
	if !ok || fm.cancelled || !fm.done {
		return model.Target{}, ErrCancelled
	}
	return fm.target, nil
}
