// package tui provides the terminal user interface for Keypick.
// This file defines the shared lipgloss styles used across the different
// views to ensure a consistent look and feel.
package tui // import "github.com/toeirei/keypick/internal/tui"

import "github.com/charmbracelet/lipgloss"

// colorPalette defines the core colors used in the TUI.
const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // A nice teal/cyan
	colorSpecial   = lipgloss.Color("208") // An orange for special attention
	colorError     = lipgloss.Color("196") // A bright red
	colorSuccess   = lipgloss.Color("40")  // A nice green
	colorWhite     = lipgloss.Color("231")
)

// Styles defines the reusable lipgloss styles for various UI components.
var (
	// Help text
	helpStyle = lipgloss.NewStyle().Foreground(colorSubtle)

	// Titles
	titleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	// List rows
	itemStyle       = lipgloss.NewStyle()
	activeItemStyle = lipgloss.NewStyle().Reverse(true)

	// The checkmark glyph inside a checked box
	checkmarkStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	// Persistent over-limit warning below the option rows
	warningStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorError).
			Padding(0, 1)

	// Error messages
	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	// Success messages
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	// Special attention messages (e.g., destructive actions)
	specialStyle = lipgloss.NewStyle().Foreground(colorSpecial)
)

// Success renders a message confirming a completed action for CLI output.
func Success(s string) string {
	return successStyle.Render(s)
}

// Notice renders a message that needs the user's attention.
func Notice(s string) string {
	return specialStyle.Render(s)
}
