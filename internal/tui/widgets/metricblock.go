// ABOUTME: Compact metric block widget for dashboard displays
// ABOUTME: Boxes an icon, a title, a value and an optional rate bar

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       22,
		BorderColor: lipgloss.Color("#6B7280"),
		TitleColor:  lipgloss.Color("#0EA5E9"),
		ValueColor:  lipgloss.Color("#F9FAFB"),
	}
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 22
	}
	innerWidth := config.Width - 4

	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	return box(icon, title, config, []string{
		valueStyle.Render(truncate(value, innerWidth)),
		subtitleStyle.Render(truncate(subtitle, innerWidth)),
	})
}

// CountBlock renders a simple count metric
func CountBlock(icon icons.Icon, title string, count int, label string, config MetricBlockConfig) string {
	return MetricBlock(icon, title, fmt.Sprintf("%d", count), label, config)
}

// RateBlock renders a percentage where higher is better, with a bar
func RateBlock(icon icons.Icon, title string, percent float64, details string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 22
	}
	innerWidth := config.Width - 4

	level := LevelForRate(percent, 80, 50)
	color, _ := levelColors(level)

	value := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%5.1f%%", percent)) +
		" " + StatusIcon(level)
	bar := CompactProgressBar(percent, innerWidth, color)
	detail := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render(truncate(details, innerWidth))

	return box(icon, title, config, []string{value, bar, detail})
}

// box draws the bordered block with the title set into the top border
func box(icon icons.Icon, title string, config MetricBlockConfig, lines []string) string {
	innerWidth := config.Width - 4
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)

	titleStr := truncate(icon.String()+" "+title, innerWidth-1)
	fill := max(0, config.Width-5-lipgloss.Width(titleStr))

	out := []string{
		borderStyle.Render("┌─ ") + titleStyle.Render(titleStr) + borderStyle.Render(" "+strings.Repeat("─", fill)+"┐"),
	}
	for _, line := range lines {
		pad := max(0, innerWidth-lipgloss.Width(line))
		out = append(out, borderStyle.Render("│  ")+line+strings.Repeat(" ", pad)+borderStyle.Render("│"))
	}
	out = append(out, borderStyle.Render("└"+strings.Repeat("─", config.Width-2)+"┘"))
	return strings.Join(out, "\n")
}

// truncate shortens a string to maxLen cells with an ellipsis
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:min(len(runes), maxLen)])
	}
	for lipgloss.Width(string(runes)) > maxLen-3 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
