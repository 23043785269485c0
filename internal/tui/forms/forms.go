// ABOUTME: Embedded huh forms for sign-in, link submission and account edits
// ABOUTME: Each form reports its outcome to the parent model as a message

package forms

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui/styles"
)

// CancelledMsg is sent when a form is left with esc
type CancelledMsg struct{}

// LoginMsg carries the credentials entered in the sign-in form
type LoginMsg struct {
	Email    string
	Password string
}

// RegisterMsg carries the registration form input
type RegisterMsg struct {
	Request client.RegisterRequest
}

// SubmitMsg carries the submission form input. Text is unparsed.
type SubmitMsg struct {
	Text     string
	Priority client.Priority
}

// ProfileMsg carries the profile form input
type ProfileMsg struct {
	Update client.ProfileUpdate
}

// APIKeyMsg carries the key generation form input
type APIKeyMsg struct {
	Name        string
	Permissions []string
}

// ConfirmMsg reports the answer to a confirmation dialog about Subject
type ConfirmMsg struct {
	Subject   string
	Confirmed bool
}

// values holds every field a form can bind to
type values struct {
	email       string
	password    string
	firstName   string
	lastName    string
	text        string
	priority    client.Priority
	name        string
	permissions []string
	confirmed   bool
}

// Form wraps a huh form as a bubbletea model
type Form struct {
	form   *huh.Form
	v      *values
	result func(*values) tea.Msg
}

func newForm(v *values, result func(*values) tea.Msg, groups ...*huh.Group) *Form {
	return &Form{
		form:   huh.NewForm(groups...).WithTheme(styles.FormTheme()).WithShowHelp(false),
		v:      v,
		result: result,
	}
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		out := f.result(f.v)
		return f, func() tea.Msg { return out }
	case huh.StateAborted:
		return f, func() tea.Msg { return CancelledMsg{} }
	}
	return f, cmd
}

// Draft returns the submission form's current input, completed or not
func (f *Form) Draft() SubmitMsg {
	return SubmitMsg{Text: f.v.text, Priority: f.v.priority}
}

// View implements tea.Model
func (f *Form) View() string {
	return f.form.View()
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(s, "@") {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// NewLogin builds the sign-in form, prefilled with email
func NewLogin(email string) *Form {
	v := &values{email: email}
	return newForm(v, func(v *values) tea.Msg {
		return LoginMsg{Email: strings.TrimSpace(v.email), Password: v.password}
	},
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&v.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password).
				Validate(validateRequired("password")),
		).Title("Sign in").
			Description("Sign in to your indexing account"),
	)
}

// NewRegister builds the account creation form
func NewRegister(email string) *Form {
	v := &values{email: email}
	return newForm(v, func(v *values) tea.Msg {
		return RegisterMsg{Request: client.RegisterRequest{
			Email:     strings.TrimSpace(v.email),
			Password:  v.password,
			FirstName: strings.TrimSpace(v.firstName),
			LastName:  strings.TrimSpace(v.lastName),
		}}
	},
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&v.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password).
				Validate(validateRequired("password")),
			huh.NewInput().
				Title("First name").
				Value(&v.firstName),
			huh.NewInput().
				Title("Last name").
				Value(&v.lastName),
		).Title("Create account").
			Description("Register a new indexing account"),
	)
}

// NewSubmit builds the link submission form from the current draft
func NewSubmit(draft links.Draft) *Form {
	v := &values{text: draft.Text, priority: draft.Priority}
	if v.priority == "" {
		v.priority = client.PriorityNormal
	}

	var priorities []huh.Option[client.Priority]
	for _, p := range client.Priorities {
		priorities = append(priorities, huh.NewOption(string(p), p))
	}

	return newForm(v, func(v *values) tea.Msg {
		return SubmitMsg{Text: v.text, Priority: v.priority}
	},
		huh.NewGroup(
			huh.NewText().
				Title("URLs").
				Description("One URL per line. Each link costs one credit.").
				Placeholder("https://example.com/page1\nhttps://example.com/page2").
				CharLimit(0).
				Lines(8).
				Value(&v.text),
			huh.NewSelect[client.Priority]().
				Title("Priority").
				Options(priorities...).
				Value(&v.priority),
		).Title("Submit links"),
	)
}

// NewProfile builds the profile form, prefilled from the principal
func NewProfile(u *client.User) *Form {
	v := &values{}
	if u != nil {
		v.firstName = u.FirstName
		v.lastName = u.LastName
	}
	return newForm(v, func(v *values) tea.Msg {
		return ProfileMsg{Update: client.ProfileUpdate{
			FirstName: strings.TrimSpace(v.firstName),
			LastName:  strings.TrimSpace(v.lastName),
		}}
	},
		huh.NewGroup(
			huh.NewInput().
				Title("First name").
				Value(&v.firstName).
				Validate(validateRequired("first name")),
			huh.NewInput().
				Title("Last name").
				Value(&v.lastName).
				Validate(validateRequired("last name")),
		).Title("Edit profile"),
	)
}

// NewAPIKey builds the API key generation form
func NewAPIKey() *Form {
	v := &values{permissions: append([]string(nil), client.DefaultPermissions...)}
	return newForm(v, func(v *values) tea.Msg {
		return APIKeyMsg{Name: strings.TrimSpace(v.name), Permissions: v.permissions}
	},
		huh.NewGroup(
			huh.NewInput().
				Title("Key name").
				Placeholder("e.g. CI pipeline").
				Value(&v.name).
				Validate(validateRequired("key name")),
			huh.NewMultiSelect[string]().
				Title("Permissions").
				Options(
					huh.NewOption("read", "read"),
					huh.NewOption("write", "write"),
				).
				Value(&v.permissions),
		).Title("Generate API key").
			Description("The key is shown once. Store it somewhere safe."),
	)
}

// NewConfirm builds a yes/no dialog about subject
func NewConfirm(question, subject string) *Form {
	v := &values{}
	return newForm(v, func(v *values) tea.Msg {
		return ConfirmMsg{Subject: subject, Confirmed: v.confirmed}
	},
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&v.confirmed),
		),
	)
}
