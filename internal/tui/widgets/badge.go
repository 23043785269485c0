// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Renders link status, priority and success-rate badges

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

func levelColors(level StatusLevel) (bg, fg lipgloss.Color) {
	switch level {
	case StatusOK:
		return BadgeOKBg, BadgeOKFg
	case StatusWarning:
		return BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		return BadgeCritBg, BadgeCritFg
	case StatusInfo:
		return BadgeInfoBg, BadgeInfoFg
	default:
		return BadgeNeutralBg, BadgeNeutralFg
	}
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	bg, fg := levelColors(level)
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// LevelForLinkStatus maps a link's indexing status to a severity
func LevelForLinkStatus(status client.LinkStatus) StatusLevel {
	switch status {
	case client.StatusIndexed:
		return StatusOK
	case client.StatusProcessing:
		return StatusInfo
	case client.StatusPending:
		return StatusWarning
	case client.StatusFailed:
		return StatusCritical
	default:
		return StatusNeutral
	}
}

// LinkStatusIcon returns the icon for a link status
func LinkStatusIcon(status client.LinkStatus) icons.Icon {
	switch status {
	case client.StatusIndexed:
		return icons.Indexed
	case client.StatusProcessing:
		return icons.Processing
	case client.StatusPending:
		return icons.Pending
	case client.StatusFailed:
		return icons.Failed
	default:
		return icons.Info
	}
}

// LinkStatusBadge renders a fixed-width badge for a link status
func LinkStatusBadge(status client.LinkStatus) string {
	text := string(status)
	if text == "" {
		text = "unknown"
	}
	return Badge(fmt.Sprintf("%-10s", strings.ToUpper(text)), LevelForLinkStatus(status))
}

// PriorityText renders a priority in a color matching its urgency
func PriorityText(p client.Priority) string {
	var color lipgloss.Color
	switch p {
	case client.PriorityUrgent:
		color = BadgeCritBg
	case client.PriorityHigh:
		color = BadgeWarnBg
	case client.PriorityLow:
		color = BadgeNeutralBg
	default:
		color = BadgeInfoBg
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(p))
}

// LevelForRate returns the level for a value where higher is better
func LevelForRate(percent, okThreshold, warnThreshold float64) StatusLevel {
	if percent >= okThreshold {
		return StatusOK
	}
	if percent >= warnThreshold {
		return StatusWarning
	}
	return StatusCritical
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	bg, _ := levelColors(level)
	style := lipgloss.NewStyle().Foreground(bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	default:
		return style.Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	bg, _ := levelColors(level)
	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(bg).Render(text))
}
