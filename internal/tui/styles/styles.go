// Package styles provides Lip Gloss styling for the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary     = lipgloss.Color("#D97706") // Amber
	Secondary   = lipgloss.Color("#10B981") // Green
	Accent      = lipgloss.Color("#F59E0B") // Light amber
	Error       = lipgloss.Color("#EF4444") // Red
	Info        = lipgloss.Color("#00D7FF") // Cyan
	Muted       = lipgloss.Color("#6B7280") // Gray
	Surface     = lipgloss.Color("#374151") // Lighter dark gray
	TextPrimary = lipgloss.Color("#F9FAFB") // Almost white
	TextMuted   = lipgloss.Color("#9CA3AF") // Light gray

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Padding(0, 1)

	// Title
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	// Subtitle
	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	// Input area
	InputPrompt = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	InputText = lipgloss.NewStyle().
			Foreground(TextPrimary)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(Surface).
			Foreground(TextMuted).
			Padding(0, 1)

	// Error and info messages
	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	InfoText = lipgloss.NewStyle().
			Foreground(Accent)

	SuccessText = lipgloss.NewStyle().
			Foreground(Secondary)

	MutedText = lipgloss.NewStyle().
			Foreground(TextMuted)

	// Help
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(TextMuted)

	// Panes
	Pane = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Surface).
		Padding(0, 1)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)

	// Outline tree
	TreeItem = lipgloss.NewStyle().
			Foreground(TextPrimary)

	TreeSelected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	LevelBadge = lipgloss.NewStyle().
			Foreground(TextMuted)

	// List items
	ListItem = lipgloss.NewStyle().
			PaddingLeft(2)

	SelectedItem = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			PaddingLeft(2)

	// Spinner
	Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	// Node summary block
	Quote = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(Surface).
		PaddingLeft(1)

	// Ending marker inside content
	Marker = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)
)

// Width returns the available width for content.
func Width(termWidth int) int {
	return termWidth - 4 // Account for padding
}
