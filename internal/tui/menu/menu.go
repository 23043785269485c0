// ABOUTME: Main menu shown once the session is signed in
// ABOUTME: Wraps a huh select and reports the chosen screen as a message

package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
)

// Action is a main menu entry
type Action int

const (
	ActionDashboard Action = iota
	ActionLinks
	ActionSubmit
	ActionProfile
	ActionLogout
	ActionQuit
)

// SelectedMsg is sent when the user picks an entry
type SelectedMsg struct {
	Action Action
}

// CancelledMsg is sent when the user leaves the menu with esc or q
type CancelledMsg struct{}

type option struct {
	label string
	value Action
}

var options = []option{
	{label: "Dashboard", value: ActionDashboard},
	{label: "Links", value: ActionLinks},
	{label: "Submit links", value: ActionSubmit},
	{label: "Profile & API keys", value: ActionProfile},
	{label: "Sign out", value: ActionLogout},
	{label: "Quit", value: ActionQuit},
}

// Menu is the main menu model
type Menu struct {
	form     *huh.Form
	selected Action
}

// New creates a menu with the dashboard preselected
func New() *Menu {
	m := &Menu{}
	m.reset()
	return m
}

func (m *Menu) reset() {
	var opts []huh.Option[Action]
	for _, opt := range options {
		opts = append(opts, huh.NewOption(opt.label, opt.value))
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("What would you like to do?").
				Options(opts...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q":
			return m, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		action := m.selected
		m.reset()
		m.selected = action
		return m, tea.Batch(m.form.Init(), func() tea.Msg { return SelectedMsg{Action: action} })
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// String returns the label of an Action
func (a Action) String() string {
	for _, opt := range options {
		if opt.value == a {
			return opt.label
		}
	}
	return "unknown"
}
