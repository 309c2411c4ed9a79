// Package ui provides terminal output formatting: status styling and
// table rendering for the CLI commands.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var colorEnabled = detectColor()

// detectColor honors NO_COLOR and degraded terminals.
func detectColor() bool {
	if termenv.EnvNoColor() {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// DisableColor turns off all styling, for --no-color.
func DisableColor() {
	colorEnabled = false
}

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func render(s lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return s.Render(text)
}

// Pass styles success messages green.
func Pass(text string) string { return render(passStyle, text) }

// Warn styles warnings yellow.
func Warn(text string) string { return render(warnStyle, text) }

// Fail styles errors red.
func Fail(text string) string { return render(failStyle, text) }

// Accent styles emphasized values.
func Accent(text string) string { return render(accentStyle, text) }

// Faint styles secondary detail.
func Faint(text string) string { return render(faintStyle, text) }

// CheckMark returns a styled pass/fail indicator.
func CheckMark(ok bool) string {
	if ok {
		return Pass("✓")
	}
	return Fail("✗")
}

// Table renders headers and rows as a bordered table sized to the
// terminal.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cond(borderStyle)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cond(headerStyle).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	out := t.String()
	if w := terminalWidth(); w > 0 && lipgloss.Width(out) > w {
		out = t.Width(w).String()
	}
	return out
}

func cond(s lipgloss.Style) lipgloss.Style {
	if !colorEnabled {
		return lipgloss.NewStyle()
	}
	return s
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// Panel renders a titled box around body lines, used by show-config and
// check-install.
func Panel(title string, lines []string) string {
	body := strings.Join(lines, "\n")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if colorEnabled {
		box = box.BorderForeground(lipgloss.Color("240"))
	}
	return Accent(title) + "\n" + box.Render(body)
}

// Truncate shortens a string to max characters with an ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 2 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
