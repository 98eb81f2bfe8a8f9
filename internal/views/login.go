package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ploomesterm/internal/session"
)

// LoginModel asks for the User-Key before the contact list is shown.
type LoginModel struct {
	session *session.Session
	input   textinput.Model
	styles  styles

	err    string
	notice string

	width  int
	height int
}

func NewLoginModel(sess *session.Session, st styles) *LoginModel {
	input := textinput.New()
	input.Placeholder = "User-Key"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 512
	input.Width = 48
	input.Focus()

	return &LoginModel{
		session: sess,
		input:   input,
		styles:  st,
	}
}

func (m *LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *LoginModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *LoginModel) SetStyles(st styles) {
	m.styles = st
}

// SetNotice shows an informational line under the form, e.g. after sign-out.
func (m *LoginModel) SetNotice(notice string) {
	m.notice = notice
}

func (m *LoginModel) Update(msg tea.Msg) (*LoginModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m, m.submit()
		case "ctrl+t":
			return m, send(ToggleThemeMsg{})
		case "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != "" {
		m.err = ""
	}
	return m, cmd
}

func (m *LoginModel) submit() tea.Cmd {
	err := m.session.SignIn(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyKey):
		m.err = "Please enter your User-Key."
		return nil
	case err != nil:
		m.err = err.Error()
		return nil
	}

	m.err = ""
	m.notice = ""
	m.input.Reset()
	return send(SignedInMsg{})
}

func (m *LoginModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Ploomes Contacts"))
	b.WriteString("\n\n")
	b.WriteString("Enter the User-Key of your Ploomes account to continue.\n")
	b.WriteString(m.styles.Muted.Render("The key is stored encrypted on this machine until you leave."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.FocusedBox.Render(m.input.View()))
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(m.styles.Error.Render(m.err))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(m.styles.Success.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter: sign in • ctrl+t: theme • esc: quit"))

	box := m.styles.Sidebar.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
