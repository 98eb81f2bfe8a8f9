package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"ploomesterm/internal/config"
	"ploomesterm/internal/contacts"
	"ploomesterm/internal/crm"
	"ploomesterm/internal/session"
)

type ViewState int

const (
	ViewLogin ViewState = iota
	ViewContacts
)

func (s ViewState) String() string {
	switch s {
	case ViewLogin:
		return "login"
	case ViewContacts:
		return "contacts"
	default:
		return "unknown"
	}
}

type NavigateMsg struct {
	State ViewState
}

// SignedInMsg is sent once a key has been stored.
type SignedInMsg struct{}

// SignOutMsg asks the app to forget the key and return to credential entry.
type SignOutMsg struct{}

type ToggleThemeMsg struct{}

// Deps are the collaborators shared by every screen.
type Deps struct {
	Session *session.Session
	API     contacts.API
	Config  *config.Config
	Logger  *zap.Logger
}

type AppModel struct {
	state  ViewState
	width  int
	height int

	session *session.Session
	api     contacts.API
	config  *config.Config
	logger  *zap.Logger
	styles  styles

	login        *LoginModel
	contactsView *ContactsModel

	err error
}

// NewAppModel starts on the contact list when a key is already stored.
func NewAppModel(deps Deps) *AppModel {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &AppModel{
		session: deps.Session,
		api:     deps.API,
		config:  cfg,
		logger:  logger,
		styles:  newStyles(deps.Session.DarkMode()),
	}

	if m.session.SignedIn() {
		m.state = ViewContacts
		m.contactsView = m.newContactsView()
	} else {
		m.state = ViewLogin
		m.login = NewLoginModel(m.session, m.styles)
	}
	return m
}

func (m AppModel) State() ViewState {
	return m.state
}

func (m *AppModel) newContactsView() *ContactsModel {
	return NewContactsModel(m.api, m.session, ContactsOptions{
		ExpandOwner: m.config.ExpandOwner,
		Tolerance:   m.config.ScrollTolerance,
		Logger:      m.logger,
	}, m.styles)
}

func (m AppModel) Init() tea.Cmd {
	switch m.state {
	case ViewContacts:
		return m.contactsView.Init()
	default:
		return m.login.Init()
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.login != nil {
			m.login.SetSize(msg.Width, msg.Height)
		}
		if m.contactsView != nil {
			m.contactsView.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}

	case NavigateMsg:
		return m.navigateTo(msg.State)

	case SignedInMsg:
		m.logger.Info("signed in")
		return m.navigateTo(ViewContacts)

	case SignOutMsg:
		if err := m.session.SignOut(); err != nil {
			m.err = err
		}
		m.logger.Info("signed out")
		next, cmd := m.navigateTo(ViewLogin)
		app := next.(AppModel)
		app.login.SetNotice("UserKey removed")
		return app, cmd

	case ToggleThemeMsg:
		dark, err := m.session.ToggleDarkMode()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.styles = newStyles(dark)
		if m.login != nil {
			m.login.SetStyles(m.styles)
		}
		if m.contactsView != nil {
			m.contactsView.SetStyles(m.styles)
		}
		return m, nil
	}

	switch m.state {
	case ViewLogin:
		if m.login != nil {
			m.login, cmd = m.login.Update(msg)
		}
	case ViewContacts:
		if m.contactsView != nil {
			m.contactsView, cmd = m.contactsView.Update(msg)
		}
	}

	return m, cmd
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string
	switch m.state {
	case ViewLogin:
		if m.login != nil {
			content = m.login.View()
		}
	case ViewContacts:
		if m.contactsView != nil {
			content = m.contactsView.View()
		}
	default:
		content = "Unknown view"
	}

	if m.err != nil {
		content += "\n" + m.styles.Error.Padding(1).Render(fmt.Sprintf("Error: %s", crm.UserMessage(m.err)))
	}

	return m.styles.App.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m AppModel) navigateTo(state ViewState) (tea.Model, tea.Cmd) {
	m.logger.Debug("navigate", zap.Stringer("from", m.state), zap.Stringer("to", state))
	m.state = state
	m.err = nil

	switch state {
	case ViewLogin:
		if m.contactsView != nil {
			m.contactsView.Close()
			m.contactsView = nil
		}
		m.login = NewLoginModel(m.session, m.styles)
		m.login.SetSize(m.width, m.height)
		return m, m.login.Init()

	case ViewContacts:
		m.login = nil
		if m.contactsView != nil {
			m.contactsView.Close()
		}
		m.contactsView = m.newContactsView()
		m.contactsView.SetSize(m.width, m.height)
		return m, m.contactsView.Init()
	}

	return m, nil
}

func (m *AppModel) shutdown() {
	if m.contactsView != nil {
		m.contactsView.Close()
	}
	_ = m.logger.Sync()
}

func NavigateTo(state ViewState) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state}
	}
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
