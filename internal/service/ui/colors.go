package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle uses ANSI 6 (Cyan) for headings, readable on any terminal
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle ANSI 2 (Green) for arguments and usage lines
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle ANSI 8 (Bright Black / Gray) for dimmed descriptions
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// FlagStyle ANSI 3 (Yellow) for flags
	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)
