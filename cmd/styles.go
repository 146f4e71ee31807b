package cmd

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("205") // Pink
	colorSecondary = lipgloss.Color("241") // Gray
	colorSuccess   = lipgloss.Color("42")  // Green
	colorError     = lipgloss.Color("160") // Red
	colorWarning   = lipgloss.Color("214") // Orange/Yellow

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleSubtle  = lipgloss.NewStyle().Foreground(colorSecondary)
	stylePrimary = lipgloss.NewStyle().Foreground(colorPrimary)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
)
