// ABOUTME: Progress bars for success-rate style displays
// ABOUTME: Shows red/amber/green zones where a fuller bar is healthier

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width         int
	OKThreshold   float64 // Percentage where the healthy zone starts (default 80)
	WarnThreshold float64 // Percentage where the warning zone starts (default 50)
	OKColor       lipgloss.Color
	WarnColor     lipgloss.Color
	CritColor     lipgloss.Color
	EmptyColor    lipgloss.Color
	ShowZones     bool // Show threshold markers in the bar
}

// DefaultProgressBarConfig returns sensible defaults
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:         20,
		OKThreshold:   80,
		WarnThreshold: 50,
		OKColor:       lipgloss.Color("#10B981"),
		WarnColor:     lipgloss.Color("#F59E0B"),
		CritColor:     lipgloss.Color("#EF4444"),
		EmptyColor:    lipgloss.Color("#374151"),
		ShowZones:     true,
	}
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

// ProgressBar renders a bar colored by the zone the value falls in
func ProgressBar(percent float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	percent = clampPercent(percent)
	filled := int(percent / 100.0 * float64(config.Width))

	var color lipgloss.Color
	switch LevelForRate(percent, config.OKThreshold, config.WarnThreshold) {
	case StatusOK:
		color = config.OKColor
	case StatusWarning:
		color = config.WarnColor
	default:
		color = config.CritColor
	}

	warnPos := int(config.WarnThreshold / 100.0 * float64(config.Width))
	okPos := int(config.OKThreshold / 100.0 * float64(config.Width))

	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(config.EmptyColor)

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < config.Width; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("█"))
		case config.ShowZones && (i == warnPos || i == okPos):
			bar.WriteString(emptyStyle.Render("│"))
		default:
			bar.WriteString(emptyStyle.Render("░"))
		}
	}
	bar.WriteString("]")
	return bar.String()
}

// ProgressBarWithLabel renders the bar followed by the percentage and an icon
func ProgressBarWithLabel(percent float64, config ProgressBarConfig) string {
	level := LevelForRate(clampPercent(percent), config.OKThreshold, config.WarnThreshold)
	bg, _ := levelColors(level)
	label := lipgloss.NewStyle().Foreground(bg).Render(fmt.Sprintf("%5.1f%%", percent))
	return fmt.Sprintf("%s %s %s", ProgressBar(percent, config), label, StatusIcon(level))
}

// CompactProgressBar renders a minimal progress bar for tight spaces
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	filled := int(clampPercent(percent) / 100.0 * float64(width))

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", width-filled))
}
