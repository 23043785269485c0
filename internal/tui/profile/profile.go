// ABOUTME: Profile screen: account details and API key management
// ABOUTME: Shows a newly generated key once and never again

package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/session"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
)

// Account is the slice of the session manager this screen drives
type Account interface {
	Snapshot() session.Snapshot
	UpdateProfile(ctx context.Context, update *client.ProfileUpdate) client.Result
	GenerateAPIKey(ctx context.Context, name string, permissions []string) (*client.APIKey, client.Result)
	APIKeys(ctx context.Context) ([]client.APIKey, client.Result)
	DeleteAPIKey(ctx context.Context, id string) client.Result
}

// KeysLoadedMsg is sent when the key list has been fetched
type KeysLoadedMsg struct {
	Keys   []client.APIKey
	Result client.Result
}

// AccountMsg is sent when a profile or key operation settles
type AccountMsg struct {
	Op     session.Op
	Result client.Result
	Key    *client.APIKey
	Notice string
}

// EditRequestedMsg asks the parent to open the profile form
type EditRequestedMsg struct{}

// GenerateRequestedMsg asks the parent to open the key form
type GenerateRequestedMsg struct{}

// DeleteKeyRequestedMsg asks the parent to confirm deleting a key
type DeleteKeyRequestedMsg struct {
	Key client.APIKey
}

// BackMsg is sent when the user leaves the screen
type BackMsg struct{}

// Model is the profile screen
type Model struct {
	account  Account
	keys     []client.APIKey
	cursor   int
	secret   *client.APIKey
	notice   string
	err      string
	spinner  spinner.Model
	inflight int
	width    int
}

// New creates the screen
func New(account Account) *Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return &Model{account: account, spinner: sp}
}

// SetSize updates the screen width
func (m *Model) SetSize(width, _ int) {
	m.width = width
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.loadKeys()
}

// Tick starts the screen's spinner
func (m *Model) Tick() tea.Msg {
	return m.spinner.Tick()
}

func (m *Model) loadKeys() tea.Cmd {
	m.inflight++
	return func() tea.Msg {
		keys, res := m.account.APIKeys(context.Background())
		return KeysLoadedMsg{Keys: keys, Result: res}
	}
}

// UpdateProfile saves the profile form
func (m *Model) UpdateProfile(update client.ProfileUpdate) tea.Cmd {
	m.inflight++
	return func() tea.Msg {
		res := m.account.UpdateProfile(context.Background(), &update)
		return AccountMsg{Op: session.OpUpdateProfile, Result: res, Notice: "Profile updated"}
	}
}

// GenerateKey creates a key; the secret is kept until the screen is left
func (m *Model) GenerateKey(name string, permissions []string) tea.Cmd {
	m.inflight++
	return func() tea.Msg {
		key, res := m.account.GenerateAPIKey(context.Background(), name, permissions)
		return AccountMsg{Op: session.OpGenerateKey, Result: res, Key: key, Notice: "API key generated"}
	}
}

// DeleteKey removes a key after the parent confirmed it
func (m *Model) DeleteKey(id string) tea.Cmd {
	m.inflight++
	return func() tea.Msg {
		res := m.account.DeleteAPIKey(context.Background(), id)
		return AccountMsg{Op: session.OpDeleteKey, Result: res, Notice: "API key deleted"}
	}
}

// ClearSecret forgets the generated key so it cannot be shown again
func (m *Model) ClearSecret() {
	m.secret = nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case KeysLoadedMsg:
		m.inflight = max(0, m.inflight-1)
		if !msg.Result.Success {
			m.err = msg.Result.Error
			return m, nil
		}
		m.keys = msg.Keys
		m.cursor = min(m.cursor, max(0, len(m.keys)-1))
		return m, nil

	case AccountMsg:
		m.inflight = max(0, m.inflight-1)
		if !msg.Result.Success {
			m.err = msg.Result.Error
			m.notice = ""
			return m, nil
		}
		m.err = ""
		m.notice = msg.Notice
		if msg.Key != nil && msg.Key.Key != "" {
			m.secret = msg.Key
		}
		if msg.Op == session.OpGenerateKey || msg.Op == session.OpDeleteKey {
			return m, m.loadKeys()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case "e":
		return m, func() tea.Msg { return EditRequestedMsg{} }
	case "g":
		return m, func() tea.Msg { return GenerateRequestedMsg{} }
	case "d":
		if m.cursor < 0 || m.cursor >= len(m.keys) {
			return m, nil
		}
		key := m.keys[m.cursor]
		return m, func() tea.Msg { return DeleteKeyRequestedMsg{Key: key} }
	case "R":
		return m, m.loadKeys()
	case "esc", "b":
		m.ClearSecret()
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.User.String() + " Profile"))
	sb.WriteString("\n")
	sb.WriteString(m.renderPrincipal())
	sb.WriteString("\n\n")

	if m.secret != nil {
		sb.WriteString(styles.StatusWarning.Render("New API key " + m.secret.Name + ". It will not be shown again."))
		sb.WriteString("\n")
		sb.WriteString(styles.Secret.Render(m.secret.Key))
		sb.WriteString("\n\n")
	}

	sb.WriteString(styles.Title.Render(icons.Key.String() + " API keys"))
	sb.WriteString("\n")
	sb.WriteString(m.renderKeys())

	sb.WriteString("\n")
	switch {
	case m.inflight > 0:
		sb.WriteString(m.spinner.View() + " Working...")
	case m.err != "":
		sb.WriteString(styles.ErrorLine(m.err))
	case m.notice != "":
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + m.notice))
	}
	return sb.String()
}

func (m *Model) renderPrincipal() string {
	u := m.account.Snapshot().Principal
	if u == nil {
		return styles.Subtitle.Render("Not signed in")
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = "(no name set)"
	}
	rows := [][2]string{
		{"Name", name},
		{"Email", u.Email},
		{"Plan", u.Tier()},
		{"Credits", fmt.Sprintf("%d", u.Credits)},
	}
	if !u.CreatedAt.IsZero() {
		rows = append(rows, [2]string{"Member since", u.CreatedAt.Local().Format("2006-01-02")})
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", row[0], styles.ValueStyle.Render(row[1])))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) renderKeys() string {
	if len(m.keys) == 0 {
		return styles.Subtitle.Render("No API keys yet. Press g to generate one.") + "\n"
	}

	var sb strings.Builder
	for i, key := range m.keys {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.KeyStyle.Render("▸ ")
		}
		lastUsed := "never used"
		if key.LastUsed != nil {
			lastUsed = "used " + key.LastUsed.Local().Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("%s%-24s %-12s %s\n",
			cursor,
			key.Name,
			strings.Join(key.Permissions, ","),
			styles.Subtitle.Render(lastUsed),
		))
	}
	return sb.String()
}
