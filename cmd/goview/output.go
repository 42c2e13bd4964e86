package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func printHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n\n", headerStyle.Render("[ "+title+" ]"))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✔ ")+fmt.Sprintf(format, args...))
}
