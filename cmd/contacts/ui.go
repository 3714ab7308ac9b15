package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// terminalUI writes tables and notifications for the contacts command. It
// doubles as the contact store's notifier.
type terminalUI struct {
	out io.Writer
}

func newTerminalUI(out io.Writer) *terminalUI {
	return &terminalUI{out: out}
}

// Success prints a success notification
func (u *terminalUI) Success(message string) {
	fmt.Fprintln(u.out, successStyle.Render("✓ "+message))
}

// Failure prints a failure notification
func (u *terminalUI) Failure(message string) {
	fmt.Fprintln(u.out, failureStyle.Render("✗ "+message))
}

// Muted prints a dimmed informational line
func (u *terminalUI) Muted(message string) {
	fmt.Fprintln(u.out, mutedStyle.Render(message))
}

// Table renders a bordered table. When headers is empty no header row is drawn.
func (u *terminalUI) Table(headers []string, rows [][]string) {
	ncols := len(headers)
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	if ncols == 0 {
		return
	}

	// lipgloss.Width ignores ANSI sequences, so styled cells still line up.
	widths := make([]int, ncols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	border := func(s string) string { return borderStyle.Render(s) }
	line := func(left, mid, right string) string {
		parts := make([]string, ncols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return border(left + strings.Join(parts, mid) + right)
	}
	renderRow := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, ncols)
		for i := 0; i < ncols; i++ {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if style != nil {
				val = style.Render(val)
			}
			if pad := widths[i] - lipgloss.Width(val); pad > 0 {
				val += strings.Repeat(" ", pad)
			}
			parts[i] = " " + val + " "
		}
		return border("│") + strings.Join(parts, border("│")) + border("│")
	}

	fmt.Fprintln(u.out, line("┌", "┬", "┐"))
	if len(headers) > 0 {
		fmt.Fprintln(u.out, renderRow(headers, &headerStyle))
		fmt.Fprintln(u.out, line("├", "┼", "┤"))
	}
	for _, row := range rows {
		fmt.Fprintln(u.out, renderRow(row, nil))
	}
	fmt.Fprintln(u.out, line("└", "┴", "┘"))
}
