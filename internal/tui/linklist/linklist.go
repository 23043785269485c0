// ABOUTME: Link list screen: a filtered, paginated table of submitted links
// ABOUTME: Drives links.Sync from the keyboard and shows its view

package linklist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/widgets"
)

// filterCycle is the order the f key walks through; empty means any status
var filterCycle = append([]client.LinkStatus{""}, client.LinkStatuses...)

// SyncedMsg is sent when a list operation settles
type SyncedMsg struct {
	Op     links.Op
	Result client.Result
	Notice string
}

// DeleteRequestedMsg asks the parent to confirm deleting a link
type DeleteRequestedMsg struct {
	Link client.Link
}

// SubmitRequestedMsg asks the parent to open the submission form
type SubmitRequestedMsg struct{}

// BackMsg is sent when the user leaves the list
type BackMsg struct{}

// Model is the link list screen
type Model struct {
	list    *links.Sync
	view    links.View
	cursor  int
	notice  string
	err     string
	search  textinput.Model
	spinner spinner.Model

	searching bool
	inflight  int
	width     int
	height    int
}

// New creates the screen over list
func New(list *links.Sync) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search URLs..."
	ti.Prompt = icons.Search.String() + " "
	ti.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		list:    list,
		view:    list.View(),
		search:  ti,
		spinner: sp,
	}
}

// SetSize updates the screen dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(10, width-10)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.Refresh())
}

// run executes op off the update loop and reports it as a SyncedMsg
func (m *Model) run(op links.Op, notice string, fn func(context.Context) client.Result) tea.Cmd {
	m.inflight++
	return func() tea.Msg {
		return SyncedMsg{Op: op, Result: fn(context.Background()), Notice: notice}
	}
}

// Refresh re-fetches the current page
func (m *Model) Refresh() tea.Cmd {
	return m.run(links.OpFetch, "", func(ctx context.Context) client.Result {
		return m.list.Refresh(ctx)
	})
}

// SetNotice shows msg and re-reads the list after a change made elsewhere
func (m *Model) SetNotice(msg string) {
	m.view = m.list.View()
	m.cursor = min(m.cursor, max(0, len(m.view.Items)-1))
	m.err = ""
	m.notice = msg
}

// Delete removes a link after the parent confirmed it
func (m *Model) Delete(id string) tea.Cmd {
	return m.run(links.OpRemove, "Link deleted", func(ctx context.Context) client.Result {
		return m.list.Remove(ctx, id)
	})
}

// Selected returns the link under the cursor
func (m *Model) Selected() (client.Link, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Items) {
		return client.Link{}, false
	}
	return m.view.Items[m.cursor], true
}

// Busy reports whether a list operation started here has not settled
func (m *Model) Busy() bool {
	return m.inflight > 0 || m.view.Loading
}

// Searching reports whether the search box has focus
func (m *Model) Searching() bool {
	return m.searching
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SyncedMsg:
		m.settle(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) settle(msg SyncedMsg) {
	m.inflight = max(0, m.inflight-1)
	m.view = m.list.View()
	m.cursor = min(m.cursor, max(0, len(m.view.Items)-1))

	switch {
	case msg.Result.Success:
		m.err = ""
		m.notice = msg.Notice
	case msg.Result.Error == links.MsgSuperseded:
		// a newer fetch owns the outcome
	case msg.Op == links.OpFetch:
		m.err = m.view.LastSyncError
		m.notice = ""
	default:
		m.err = msg.Result.Error
		m.notice = ""
	}
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		term := strings.TrimSpace(m.search.Value())
		m.cursor = 0
		return m, m.run(links.OpFetch, "", func(ctx context.Context) client.Result {
			return m.list.SetQuery(ctx, links.WithSearch(term))
		})
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.view.Query.Search)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.view.Items)-1 {
			m.cursor++
		}
	case "left", "h":
		page := m.view.Query.Page - 1
		if page < 1 {
			return m, nil
		}
		m.cursor = 0
		return m, m.run(links.OpFetch, "", func(ctx context.Context) client.Result {
			return m.list.SetPage(ctx, page)
		})
	case "right", "l":
		page := m.view.Query.Page + 1
		if page > m.view.TotalPages {
			return m, nil
		}
		m.cursor = 0
		return m, m.run(links.OpFetch, "", func(ctx context.Context) client.Result {
			return m.list.SetPage(ctx, page)
		})
	case "f":
		next := nextFilter(m.view.Query.Status)
		m.cursor = 0
		return m, m.run(links.OpFetch, "", func(ctx context.Context) client.Result {
			return m.list.SetQuery(ctx, links.WithStatus(next))
		})
	case "/":
		m.searching = true
		m.search.SetValue(m.view.Query.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "R":
		return m, m.Refresh()
	case "r":
		link, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, m.run(links.OpRetry, "Retry queued for "+link.URL, func(ctx context.Context) client.Result {
			return m.list.Retry(ctx, link.ID)
		})
	case "d":
		link, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DeleteRequestedMsg{Link: link} }
	case "n":
		return m, func() tea.Msg { return SubmitRequestedMsg{} }
	case "esc", "b":
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// nextFilter returns the status after current in the filter cycle
func nextFilter(current client.LinkStatus) client.LinkStatus {
	for i, st := range filterCycle {
		if st == current {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return ""
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Link.String() + " Links"))
	sb.WriteString("\n")
	sb.WriteString(m.renderQueryLine())
	sb.WriteString("\n")

	if m.searching {
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.view.Items) == 0 {
		if m.Busy() {
			sb.WriteString(m.spinner.View() + " Loading links...")
		} else {
			sb.WriteString(styles.Subtitle.Render("No links match the current filters."))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderRows())
	}

	sb.WriteString("\n")
	switch {
	case m.err != "":
		sb.WriteString(styles.ErrorLine(m.err))
	case m.notice != "":
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + m.notice))
	}
	return sb.String()
}

func (m *Model) renderQueryLine() string {
	q := m.view.Query
	status := "all"
	if q.Status != "" {
		status = string(q.Status)
	}

	parts := []string{
		styles.KeyStyle.Render(icons.Filter.String()) + " " + status,
	}
	if q.Search != "" {
		parts = append(parts, styles.KeyStyle.Render(icons.Search.String())+" "+q.Search)
	}
	parts = append(parts, fmt.Sprintf("page %d/%d", q.Page, m.view.TotalPages))
	parts = append(parts, fmt.Sprintf("%d links", m.view.Total))
	if m.Busy() {
		parts = append(parts, m.spinner.View())
	}
	return styles.Subtitle.Render(strings.Join(parts, "  ·  "))
}

func (m *Model) renderRows() string {
	urlWidth := max(20, m.width-40)

	var sb strings.Builder
	for i, link := range m.view.Items {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.KeyStyle.Render("▸ ")
		}
		submitted := "          "
		if !link.SubmittedAt.IsZero() {
			submitted = link.SubmittedAt.Local().Format("2006-01-02")
		}
		url := truncate(link.URL, urlWidth)
		if i == m.cursor {
			url = styles.SelectedRow.Render(url)
		}
		priority := widgets.PriorityText(link.Priority) + strings.Repeat(" ", max(0, 8-len(link.Priority)))
		sb.WriteString(fmt.Sprintf("%s%s %s %s  %s\n",
			cursor,
			widgets.LinkStatusBadge(link.Status),
			priority,
			styles.Subtitle.Render(submitted),
			url,
		))
	}
	return sb.String()
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
