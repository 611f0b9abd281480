package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#0B1D3A")
	ColorWhite  = lipgloss.Color("#F5F5F5")
	ColorGray   = lipgloss.Color("245")
	ColorBlue   = lipgloss.Color("39")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("#FF6666")
	ColorGreen  = lipgloss.Color("#44FF44")
)

var (
	statusStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorBlue).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	messageStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	helpStyle = lipgloss.NewStyle().Foreground(ColorGray)

	titleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	fieldNameStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)

	barStyle = lipgloss.NewStyle().Foreground(ColorBlue).Background(ColorBlue)
)
