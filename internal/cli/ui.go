package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	gio "github.com/drips-network/gardener/pkg/io"
)

// Terminal palette (256-color codes).
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorURL    = lipgloss.Color("75")
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

// Styles shared by the report, the spinner and the browser.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorAccent)
	StyleLink      = lipgloss.NewStyle().Foreground(colorURL).Underline(true)
	StyleValue     = lipgloss.NewStyle().Foreground(colorText)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaint)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleResolved    = lipgloss.NewStyle().Foreground(colorOK)
	styleUnresolved  = lipgloss.NewStyle().Foreground(colorMuted)
	styleCommand     = lipgloss.NewStyle().Foreground(colorURL)
	styleLabel       = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

const iconArrow = "→"

// Status line markers.
var (
	markSuccess = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	markError   = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	markWarning = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorMuted).Render("›")
)

func status(w io.Writer, mark, msg string) {
	fmt.Fprintln(w, mark+" "+msg)
}

func printSuccess(w io.Writer, format string, args ...any) {
	status(w, markSuccess, fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	status(w, markError, fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	status(w, markWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	status(w, markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written output file or artifact key.
func printFile(w io.Writer, path string) {
	fmt.Fprintf(w, "  %s %s\n", StyleDim.Render(iconArrow), StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// formatStats renders run counts on a single line. Unresolved and skipped
// counts appear only when non-zero.
func formatStats(st gio.Stats) string {
	dim := func(n int, what string) string { return StyleDim.Render(fmt.Sprintf("%d %s", n, what)) }
	parts := []string{
		dim(st.Files, "files"),
		dim(st.Packages, "packages"),
		dim(st.Edges, "edges"),
		styleResolved.Render(fmt.Sprintf("%d resolved", st.Resolved)),
	}
	if st.Unresolved > 0 {
		parts = append(parts, styleUnresolved.Render(fmt.Sprintf("%d unresolved", st.Unresolved)))
	}
	if st.Skipped > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d skipped", st.Skipped)))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}
