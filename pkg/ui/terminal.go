package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ASCIILogo is printed at the start of a collect run
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════╗
    ║   ___     _ _              ___                 _      ║
    ║  | __|__ | | |_____ __ __ / __|_ _ __ _ _ __  | |_    ║
    ║  | _/ _ \| | / _ \ V  V /| (_ | '_/ _' | '_ \ | ' \   ║
    ║  |_|\___/|_|_\___/\_/\_/  \___|_| \__,_| .__/ |_||_|  ║
    ║                                        |_|            ║
    ║          depth-limited follower graph collector       ║
    ╚═══════════════════════════════════════════════════════╝
`

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

// Plain-terminal palette. lipgloss drops the colors when Output is not a TTY.
var (
	Cyan   = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))
	Yellow = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	Red    = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("1")))
	Green  = paint(lipgloss.NewStyle().Foreground(lipgloss.Color("2")))
	Dim    = paint(lipgloss.NewStyle().Faint(true))
)

func paint(style lipgloss.Style) func(string) string {
	return func(text string) string { return style.Render(text) }
}

// PrintLogo prints the logo
func PrintLogo() {
	fmt.Fprint(Output, Cyan(ASCIILogo))
}

// PrintError prints msg in red, followed by the first argument if any
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(Output, Red(withDetail(msg, args)))
}

// PrintWarning prints msg in yellow, followed by the first argument if any
func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(Output, Yellow(withDetail(msg, args)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a "label: value" line
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}
