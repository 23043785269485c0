// ABOUTME: Dashboard component showing account statistics and recent links
// ABOUTME: Renders metric blocks, a success-rate bar and the latest submissions

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/widgets"
)

// blockWidth is the width of each metric block; four fit in 100 columns
const blockWidth = 24

// Dashboard displays the account overview
type Dashboard struct {
	overview  *overview.Overview
	principal *client.User
	err       string
	width     int
	height    int
}

// New creates a new dashboard
func New(ov *overview.Overview, width, height int) *Dashboard {
	return &Dashboard{
		overview: ov,
		width:    width,
		height:   height,
	}
}

// Update replaces the overview and clears any load error
func (d *Dashboard) Update(ov *overview.Overview) {
	d.overview = ov
	d.err = ""
}

// SetError records a failed load. The previous overview stays visible.
func (d *Dashboard) SetError(msg string) {
	d.err = msg
}

// SetPrincipal updates the signed-in user shown in the greeting
func (d *Dashboard) SetPrincipal(u *client.User) {
	d.principal = u
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard
func (d *Dashboard) View() string {
	var sb strings.Builder

	title := "Dashboard"
	if d.principal != nil {
		title = "Welcome back, " + d.principal.DisplayName()
	}
	sb.WriteString(styles.Title.Render(title))
	sb.WriteString("\n")
	if d.principal != nil {
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s %d credits · %s plan",
			icons.Credits.String(), d.principal.Credits, d.principal.Tier())))
		sb.WriteString("\n\n")
	}

	if d.err != "" {
		sb.WriteString(styles.ErrorLine(d.err))
		sb.WriteString("\n\n")
	}

	if d.overview == nil {
		if d.err == "" {
			sb.WriteString("Loading dashboard...")
		}
		return d.frame(sb.String())
	}

	sb.WriteString(d.renderStats())
	sb.WriteString("\n\n")
	sb.WriteString(d.renderRecent())

	return d.frame(sb.String())
}

func (d *Dashboard) frame(content string) string {
	return lipgloss.NewStyle().
		Width(d.width).
		MaxHeight(max(d.height, 1)).
		Render(content)
}

func (d *Dashboard) renderStats() string {
	s := d.overview.Stats
	cfg := widgets.DefaultMetricBlockConfig()
	cfg.Width = blockWidth

	blocks := []string{
		widgets.CountBlock(icons.Link, "Total", s.TotalLinks, "links submitted", cfg),
		widgets.CountBlock(icons.Indexed, "Indexed", s.IndexedLinks, "ready in search", cfg),
		widgets.CountBlock(icons.Pending, "Pending", s.PendingLinks, "waiting in queue", cfg),
		widgets.RateBlock(icons.Gauge, "Success", float64(s.SuccessRate), "indexed of total", cfg),
	}

	// Two rows when the pane cannot fit all four blocks side by side
	if d.width > 0 && d.width < 4*blockWidth {
		top := lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], blocks[1])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, blocks[2], blocks[3])
		return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func (d *Dashboard) renderRecent() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Recent links"))
	sb.WriteString("\n")

	if len(d.overview.Recent) == 0 {
		sb.WriteString(styles.Subtitle.Render("No links yet. Submit some from the menu."))
		return sb.String()
	}

	urlWidth := max(20, d.width-30)
	for _, link := range d.overview.Recent {
		sb.WriteString(fmt.Sprintf("%s %s  %s\n",
			widgets.LinkStatusBadge(link.Status),
			widgets.LinkStatusIcon(link.Status).String(),
			truncateURL(link.URL, urlWidth)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncateURL(u string, width int) string {
	runes := []rune(u)
	if len(runes) <= width {
		return u
	}
	return string(runes[:width-1]) + "…"
}
