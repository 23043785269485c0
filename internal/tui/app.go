// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
	"github.com/Mujtaba-Asif/indexing-nest/internal/session"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/dashboard"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/forms"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/icons"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/linklist"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/menu"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/profile"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenMenu
	ScreenDashboard
	ScreenLinks
	ScreenSubmit
	ScreenProfile
	ScreenDialog
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// Confirmation subjects are prefixed with what is being deleted
const (
	subjectLink = "link:"
	subjectKey  = "key:"
)

// Deps are the core services the TUI drives
type Deps struct {
	Session  *session.Manager
	Links    *links.Sync
	Overview *overview.Loader
	BaseURL  string
}

// restoredMsg is sent when the stored credential has been checked
type restoredMsg struct {
	result client.Result
}

// authResultMsg is sent when a login or registration settles
type authResultMsg struct {
	op     session.Op
	result client.Result
}

// overviewLoadedMsg is sent when the dashboard data arrives
type overviewLoadedMsg struct {
	overview *overview.Overview
	result   client.Result
}

// principalReloadedMsg is sent after the principal was re-read
type principalReloadedMsg struct{}

// submittedMsg is sent when a batch submission settles
type submittedMsg struct {
	count  int
	result client.Result
}

// App is the root model for the TUI
type App struct {
	deps       Deps
	screen     Screen
	width      int
	height     int
	err        string
	notice     string
	snapshot   session.Snapshot
	restoring  bool
	register   bool
	working    string
	lastUpdate time.Time
	spinner    spinner.Model

	// Child models
	authForm     *forms.Form
	menu         *menu.Menu
	dashboard    *dashboard.Dashboard
	linkList     *linklist.Model
	submitForm   *forms.Form
	submitReturn Screen
	profile      *profile.Model
	dialog       *forms.Form
	dialogReturn Screen
}

// New creates a new TUI application. The session is restored in Init.
func New(deps Deps) *App {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &App{
		deps:      deps,
		screen:    ScreenLogin,
		restoring: true,
		spinner:   sp,
		menu:      menu.New(),
		dashboard: dashboard.New(nil, 0, 0),
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.restore())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, a.forwardToForm(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateKeys(msg)

	case spinner.TickMsg:
		return a, a.tick(msg)

	case restoredMsg:
		return a.handleRestored(msg)

	case authResultMsg:
		return a.handleAuthResult(msg)

	case overviewLoadedMsg:
		a.syncSession()
		if msg.result.Success {
			a.dashboard.Update(msg.overview)
			a.lastUpdate = time.Now()
		} else {
			a.dashboard.SetError(msg.result.Error)
		}
		return a, a.checkSignedIn()

	case submittedMsg:
		return a.handleSubmitted(msg)

	case menu.SelectedMsg:
		return a.handleMenu(msg.Action)

	case menu.CancelledMsg:
		return a, tea.Quit

	case principalReloadedMsg:
		a.syncSession()
		return a, a.checkSignedIn()

	case forms.LoginMsg:
		a.err = ""
		a.working = "Signing in..."
		return a, a.authenticate(session.OpLogin, func(ctx context.Context) client.Result {
			return a.deps.Session.Login(ctx, msg.Email, msg.Password)
		})

	case forms.RegisterMsg:
		a.err = ""
		a.working = "Creating account..."
		req := msg.Request
		return a, a.authenticate(session.OpRegister, func(ctx context.Context) client.Result {
			return a.deps.Session.Register(ctx, &req)
		})

	case forms.SubmitMsg:
		a.working = "Submitting links..."
		return a, a.submit(msg.Text, msg.Priority)

	case forms.ProfileMsg:
		a.closeDialog()
		return a, a.profile.UpdateProfile(msg.Update)

	case forms.APIKeyMsg:
		a.closeDialog()
		return a, a.profile.GenerateKey(msg.Name, msg.Permissions)

	case forms.ConfirmMsg:
		return a.handleConfirm(msg)

	case forms.CancelledMsg:
		return a.handleFormCancelled()

	case linklist.SyncedMsg:
		if a.linkList == nil {
			return a, nil
		}
		a.linkList.Update(msg)
		if msg.Op == links.OpFetch && msg.Result.Success {
			a.lastUpdate = time.Now()
		}
		a.syncSession()
		return a, a.checkSignedIn()

	case linklist.DeleteRequestedMsg:
		return a, a.openDialog(forms.NewConfirm("Delete "+msg.Link.URL+"?", subjectLink+msg.Link.ID))

	case linklist.SubmitRequestedMsg:
		return a, a.openSubmit(ScreenLinks)

	case linklist.BackMsg, profile.BackMsg:
		a.screen = ScreenMenu
		return a, nil

	case profile.KeysLoadedMsg, profile.AccountMsg:
		if a.profile == nil {
			return a, nil
		}
		_, cmd := a.profile.Update(msg)
		a.syncSession()
		return a, tea.Batch(cmd, a.checkSignedIn())

	case profile.EditRequestedMsg:
		return a, a.openDialog(forms.NewProfile(a.snapshot.Principal))

	case profile.GenerateRequestedMsg:
		return a, a.openDialog(forms.NewAPIKey())

	case profile.DeleteKeyRequestedMsg:
		return a, a.openDialog(forms.NewConfirm("Delete API key "+msg.Key.Name+"?", subjectKey+msg.Key.ID))
	}

	// Forward unknown messages to the active form (needed for huh form internals)
	return a, a.forwardToForm(msg)
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenLogin:
		if a.restoring {
			return a, nil
		}
		if msg.String() == "ctrl+n" {
			a.register = !a.register
			a.err = ""
			return a, a.openAuthForm()
		}
		return a, a.forwardToForm(msg)
	case ScreenMenu:
		_, cmd := a.menu.Update(msg)
		return a, cmd
	case ScreenDashboard:
		return a.updateDashboard(msg)
	case ScreenLinks:
		if a.linkList == nil {
			return a, nil
		}
		if !a.linkList.Searching() && msg.String() == "q" {
			return a, tea.Quit
		}
		_, cmd := a.linkList.Update(msg)
		return a, cmd
	case ScreenProfile:
		if a.profile == nil {
			return a, nil
		}
		if msg.String() == "q" {
			return a, tea.Quit
		}
		_, cmd := a.profile.Update(msg)
		return a, cmd
	case ScreenSubmit, ScreenDialog:
		return a, a.forwardToForm(msg)
	}
	return a, nil
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		return a, a.loadOverview()
	case "l":
		return a.handleMenu(menu.ActionLinks)
	case "n":
		return a, a.openSubmit(ScreenDashboard)
	case "b", "esc":
		a.screen = ScreenMenu
	}
	return a, nil
}

// forwardToForm hands msg to whichever huh form is on screen
func (a *App) forwardToForm(msg tea.Msg) tea.Cmd {
	var form *forms.Form
	switch a.screen {
	case ScreenLogin:
		form = a.authForm
	case ScreenMenu:
		_, cmd := a.menu.Update(msg)
		return cmd
	case ScreenLinks:
		if a.linkList == nil {
			return nil
		}
		_, cmd := a.linkList.Update(msg)
		return cmd
	case ScreenSubmit:
		form = a.submitForm
	case ScreenDialog:
		form = a.dialog
	}
	if form == nil {
		return nil
	}
	_, cmd := form.Update(msg)
	return cmd
}

func (a *App) tick(msg spinner.TickMsg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	cmds = append(cmds, cmd)
	if a.linkList != nil {
		_, cmd = a.linkList.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.profile != nil {
		_, cmd = a.profile.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) handleRestored(msg restoredMsg) (tea.Model, tea.Cmd) {
	a.restoring = false
	a.syncSession()
	if msg.result.Success {
		slog.Info("session restored", "email", a.snapshot.Principal.Email)
		return a, a.enterMenu()
	}
	if !msg.result.IsLocal() {
		a.err = msg.result.Error
	}
	return a, a.openAuthForm()
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	a.working = ""
	a.syncSession()
	if !msg.result.Success {
		a.err = msg.result.Error
		return a, a.openAuthForm()
	}
	a.err = ""
	a.notice = ""
	slog.Info("signed in", "op", msg.op, "email", a.snapshot.Principal.Email)
	return a, a.enterMenu()
}

func (a *App) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	a.working = ""
	a.syncSession()
	if !msg.result.Success {
		a.err = msg.result.Error
		if !a.snapshot.SignedIn() {
			return a, a.checkSignedIn()
		}
		return a, a.openSubmit(a.submitReturn)
	}

	a.err = ""
	a.submitForm = nil
	a.screen = ScreenLinks
	a.ensureLinkList()
	a.linkList.SetNotice(fmt.Sprintf("Submitted %d link(s) for indexing", msg.count))
	a.lastUpdate = time.Now()
	// the credit balance changed server-side
	return a, a.reloadPrincipal()
}

func (a *App) handleMenu(action menu.Action) (tea.Model, tea.Cmd) {
	a.err = ""
	switch action {
	case menu.ActionDashboard:
		a.screen = ScreenDashboard
		return a, a.loadOverview()
	case menu.ActionLinks:
		a.screen = ScreenLinks
		if a.ensureLinkList() {
			return a, a.linkList.Init()
		}
		return a, a.linkList.Refresh()
	case menu.ActionSubmit:
		return a, a.openSubmit(ScreenMenu)
	case menu.ActionProfile:
		a.profile = profile.New(a.deps.Session)
		a.profile.SetSize(a.innerWidth(), a.contentHeight())
		a.screen = ScreenProfile
		return a, tea.Batch(a.profile.Init(), a.profile.Tick)
	case menu.ActionLogout:
		a.deps.Session.Logout()
		a.syncSession()
		a.notice = "Signed out"
		return a, a.leaveSession()
	case menu.ActionQuit:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleConfirm(msg forms.ConfirmMsg) (tea.Model, tea.Cmd) {
	a.closeDialog()
	if !msg.Confirmed {
		return a, nil
	}
	switch {
	case strings.HasPrefix(msg.Subject, subjectLink) && a.linkList != nil:
		return a, a.linkList.Delete(strings.TrimPrefix(msg.Subject, subjectLink))
	case strings.HasPrefix(msg.Subject, subjectKey) && a.profile != nil:
		return a, a.profile.DeleteKey(strings.TrimPrefix(msg.Subject, subjectKey))
	}
	return a, nil
}

func (a *App) handleFormCancelled() (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenLogin:
		return a, tea.Quit
	case ScreenSubmit:
		if a.submitForm != nil {
			draft := a.submitForm.Draft()
			a.deps.Links.SetDraft(draft.Text, draft.Priority)
		}
		a.deps.Links.CloseForm()
		a.submitForm = nil
		a.err = ""
		a.screen = a.submitReturn
	case ScreenDialog:
		a.closeDialog()
	}
	return a, nil
}

func (a *App) openAuthForm() tea.Cmd {
	a.screen = ScreenLogin
	email := ""
	if a.snapshot.Principal != nil {
		email = a.snapshot.Principal.Email
	}
	if a.register {
		a.authForm = forms.NewRegister(email)
	} else {
		a.authForm = forms.NewLogin(email)
	}
	return a.authForm.Init()
}

func (a *App) openSubmit(returnTo Screen) tea.Cmd {
	a.deps.Links.OpenForm()
	a.submitReturn = returnTo
	a.submitForm = forms.NewSubmit(a.deps.Links.Draft())
	a.screen = ScreenSubmit
	return a.submitForm.Init()
}

func (a *App) openDialog(form *forms.Form) tea.Cmd {
	if a.screen != ScreenDialog {
		a.dialogReturn = a.screen
	}
	a.dialog = form
	a.screen = ScreenDialog
	return form.Init()
}

func (a *App) closeDialog() {
	a.dialog = nil
	if a.screen == ScreenDialog {
		a.screen = a.dialogReturn
	}
}

// ensureLinkList creates the list screen once and reports whether it is new
func (a *App) ensureLinkList() bool {
	if a.linkList != nil {
		return false
	}
	a.linkList = linklist.New(a.deps.Links)
	a.linkList.SetSize(a.innerWidth(), a.contentHeight())
	return true
}

func (a *App) enterMenu() tea.Cmd {
	a.screen = ScreenMenu
	a.menu = menu.New()
	return a.menu.Init()
}

// leaveSession drops signed-in screens and shows the sign-in form
func (a *App) leaveSession() tea.Cmd {
	// the next account must not see this one's rows, filters or draft
	a.deps.Links.Reset()
	a.linkList = nil
	a.profile = nil
	a.dialog = nil
	a.submitForm = nil
	a.dashboard = dashboard.New(nil, a.innerWidth(), a.contentHeight())
	a.lastUpdate = time.Time{}
	return a.openAuthForm()
}

// syncSession copies the session state for rendering
func (a *App) syncSession() {
	if a.deps.Session == nil {
		return
	}
	a.snapshot = a.deps.Session.Snapshot()
	a.dashboard.SetPrincipal(a.snapshot.Principal)
}

// checkSignedIn returns to the sign-in form once the server rejects the credential
func (a *App) checkSignedIn() tea.Cmd {
	if a.snapshot.SignedIn() || a.screen == ScreenLogin {
		return nil
	}
	a.err = "Your session has expired. Please sign in again."
	return a.leaveSession()
}

func (a *App) resize() {
	a.dashboard.SetSize(a.innerWidth(), a.contentHeight())
	if a.linkList != nil {
		a.linkList.SetSize(a.innerWidth(), a.contentHeight())
	}
	if a.profile != nil {
		a.profile.SetSize(a.innerWidth(), a.contentHeight())
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenMenu:
		content = a.viewMenu()
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenLinks:
		if a.linkList != nil {
			content = a.linkList.View()
		}
	case ScreenSubmit:
		if a.working != "" {
			content = a.spinner.View() + " " + a.working
		} else {
			content = a.viewForm(a.submitForm)
		}
	case ScreenProfile:
		if a.profile != nil {
			content = a.profile.View()
		}
	case ScreenDialog:
		content = a.viewForm(a.dialog)
	}

	return a.wrapWithFrame(styles.ActivePanel.Width(a.contentWidth()).Render(content))
}

func (a *App) viewLogin() string {
	if a.restoring {
		return a.spinner.View() + " Restoring session..."
	}
	if a.working != "" {
		return a.spinner.View() + " " + a.working
	}
	var sb strings.Builder
	if a.err != "" {
		sb.WriteString(styles.ErrorLine(a.err) + "\n\n")
	} else if a.notice != "" {
		sb.WriteString(styles.StatusOK.Render(a.notice) + "\n\n")
	}
	sb.WriteString(a.viewForm(a.authForm))
	return sb.String()
}

func (a *App) viewMenu() string {
	var sb strings.Builder
	if p := a.snapshot.Principal; p != nil {
		sb.WriteString(styles.Title.Render("Hello, " + p.DisplayName()))
		sb.WriteString("\n")
	}
	sb.WriteString(a.menu.View())
	return sb.String()
}

func (a *App) viewForm(form *forms.Form) string {
	if form == nil {
		return ""
	}
	var sb strings.Builder
	if a.err != "" && a.screen != ScreenLogin {
		sb.WriteString(styles.ErrorLine(a.err) + "\n\n")
	}
	sb.WriteString(form.View())
	return sb.String()
}

// contentWidth calculates the width inside the content panel
func (a *App) contentWidth() int {
	return max(a.width, minTerminalWidth) - panelPadding
}

// innerWidth is the width left for a screen inside the panel padding
func (a *App) innerWidth() int {
	return a.contentWidth() - panelPadding
}

// contentHeight calculates the height available for screen content
func (a *App) contentHeight() int {
	// Header, footer and the panel's border and padding take 8 lines
	return max(a.height-8, 1)
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := max(a.width, minTerminalWidth)

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("indexnest"))

	rightText := ""
	if p := a.snapshot.Principal; p != nil && a.snapshot.SignedIn() {
		rightText = contextStyle.Render(fmt.Sprintf(" %s %s  %s %d ",
			icons.User.String(), p.Email, icons.Credits.String(), p.Credits))
	} else if a.deps.BaseURL != "" {
		rightText = contextStyle.Render(" " + a.deps.BaseURL + " ")
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText)) // -4 for ╭─ and ─╮
	header := borderStyle.Render("╭─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
	return header
}

// shortcuts returns the key hints for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenLogin:
		if a.register {
			return []string{"Enter Next", "ctrl+n Sign-in", "Esc Quit"}
		}
		return []string{"Enter Next", "ctrl+n Register", "Esc Quit"}
	case ScreenMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenDashboard:
		return []string{"r Refresh", "l Links", "n Submit", "b Back", "q Quit"}
	case ScreenLinks:
		if a.linkList != nil && a.linkList.Searching() {
			return []string{"Enter Search", "Esc Cancel"}
		}
		return []string{"←→ Page", "f Filter", "/ Search", "r Retry", "d Delete", "n Submit", "R Refresh", "b Back"}
	case ScreenProfile:
		return []string{"e Edit", "g New key", "d Delete key", "R Refresh", "b Back"}
	case ScreenSubmit, ScreenDialog:
		return []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
	}
	return nil
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := max(a.width, minTerminalWidth)

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var styled []string
	for _, s := range a.shortcuts() {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}
	leftText := " " + strings.Join(styled, "  ") + " "

	rightText := ""
	if !a.lastUpdate.IsZero() && (a.screen == ScreenDashboard || a.screen == ScreenLinks) {
		rightText = statusStyle.Render(" Updated "+formatTimeSince(a.lastUpdate, time.Now())) + " "
	}

	// Drop hints that do not fit rather than overflowing the frame
	for len(styled) > 0 && lipgloss.Width(leftText)+lipgloss.Width(rightText)+4 > width {
		styled = styled[:len(styled)-1]
		leftText = " " + strings.Join(styled, "  ") + " "
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText)) // -4 for ╰─ and ─╯
	return borderStyle.Render("╰─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats the time elapsed since t in human-readable form
func formatTimeSince(t, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// restore checks the stored credential off the update loop
func (a *App) restore() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{result: a.deps.Session.Restore(context.Background())}
	}
}

func (a *App) authenticate(op session.Op, fn func(context.Context) client.Result) tea.Cmd {
	return func() tea.Msg {
		return authResultMsg{op: op, result: fn(context.Background())}
	}
}

func (a *App) loadOverview() tea.Cmd {
	return func() tea.Msg {
		ov, res := a.deps.Overview.Load(context.Background())
		return overviewLoadedMsg{overview: ov, result: res}
	}
}

func (a *App) submit(text string, priority client.Priority) tea.Cmd {
	return func() tea.Msg {
		n, res := a.deps.Links.SubmitBatch(context.Background(), text, priority)
		return submittedMsg{count: n, result: res}
	}
}

// reloadPrincipal refreshes the credit balance shown in the header
func (a *App) reloadPrincipal() tea.Cmd {
	return func() tea.Msg {
		if res := a.deps.Session.Reload(context.Background()); !res.Success {
			slog.Warn("failed to reload profile", "error", res.Error)
		}
		return principalReloadedMsg{}
	}
}

// Run starts the TUI
func Run(deps Deps) error {
	app := New(deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
