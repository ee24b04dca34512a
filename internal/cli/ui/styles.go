package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Bold(true).
			Padding(0, 1).
			Align(lipgloss.Center)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	footerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Align(lipgloss.Center)
)

var categoryColors = map[string]lipgloss.Color{
	"COMMAND": lipgloss.Color("81"),
	"ERROR":   lipgloss.Color("160"),
	"WARN":    lipgloss.Color("214"),
	"SUCCESS": lipgloss.Color("42"),
	"SYSTEM":  lipgloss.Color("141"),
	"INFO":    lipgloss.Color("252"),
}

func RenderLine(category, text string) string {
	c, ok := categoryColors[category]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(c).Render(text)
}

func stateBadge(state string) string {
	color, icon := "160", "🔴"
	switch state {
	case "ONLINE":
		color, icon = "42", "🟢"
	case "STARTING":
		color, icon = "220", "🟡"
	case "STOPPING":
		color, icon = "208", "🟠"
	}
	return icon + " " + lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(state)
}

func formatPerf(cpu, ram *float64) string {
	if cpu == nil || ram == nil {
		return "CPU: -  •  RAM: -"
	}
	return fmt.Sprintf("CPU: %.1f%%  •  RAM: %.0f MB", *cpu, *ram)
}
