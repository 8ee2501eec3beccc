package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorAccent = lipgloss.Color("#5FD7FF")
	colorEdge   = lipgloss.Color("#AF87FF")
	colorOK     = lipgloss.Color("#87D787")
	colorValue  = lipgloss.Color("#FFD75F")
	colorWarn   = lipgloss.Color("#FFAF5F")
	colorAlert  = lipgloss.Color("#FF5F5F")
	colorBg     = lipgloss.Color("#121212")
	colorPanel  = lipgloss.Color("#1C1C1C")
	colorText   = lipgloss.Color("#BCBCBC")
	colorMuted  = lipgloss.Color("#6C6C6C")
)

// Layout
var (
	baseStyle = lipgloss.NewStyle().Background(colorBg).Foreground(colorText)

	logoStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorEdge).
			Background(colorPanel).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(colorEdge).
			Foreground(colorBg).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(1, 0, 0, 2)
)

// Text
var (
	mutedStyle        = lipgloss.NewStyle().Foreground(colorText)
	statsLabelStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	statsValueStyle   = lipgloss.NewStyle().Foreground(colorValue)
	accountStyle      = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	successStyle      = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	warningStyle      = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(colorAlert).Bold(true)
	visitItemStyle    = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)
	deniedItemStyle   = lipgloss.NewStyle().Foreground(colorWarn).Faint(true).PaddingLeft(2)
	logTimestampStyle = lipgloss.NewStyle().Foreground(colorMuted)
	logMessageStyle   = lipgloss.NewStyle().Foreground(colorText)
)

// Request budget, by share of the window left
var (
	budgetHealthyStyle = lipgloss.NewStyle().Foreground(colorOK)
	budgetLowStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	budgetSpentStyle   = lipgloss.NewStyle().Foreground(colorAlert)
)

// BudgetStyle colors the remaining request count. left is the share of the
// window still available, from 0 to 1.
func BudgetStyle(left float64) lipgloss.Style {
	switch {
	case left <= 0.1:
		return budgetSpentStyle
	case left <= 0.3:
		return budgetLowStyle
	default:
		return budgetHealthyStyle
	}
}
