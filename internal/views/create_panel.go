package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"ploomesterm/internal/contacts"
	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
)

type contactCreatedMsg struct {
	contact *models.Contact
}

type createFailedMsg struct {
	err error
}

var draftLabels = map[models.Field]string{
	models.FieldName:  "Name",
	models.FieldEmail: "Email",
	models.FieldPhone: "Phone",
	models.FieldOwner: "Owner ID",
}

// CreatePanelModel is the sidebar form for a new contact. Its draft is independent of the list.
type CreatePanelModel struct {
	panel  *contacts.CreatePanel
	ctx    context.Context
	inputs []textinput.Model
	focus  int
	err    error
	styles styles
}

func NewCreatePanelModel(ctx context.Context, api contacts.API, creds contacts.Credentials, logger *zap.Logger, st styles) *CreatePanelModel {
	m := &CreatePanelModel{
		panel:  contacts.NewCreatePanel(api, creds, nil, logger),
		ctx:    ctx,
		styles: st,
	}
	m.inputs = make([]textinput.Model, len(models.Fields))
	for i, field := range models.Fields {
		input := textinput.New()
		input.Placeholder = draftLabels[field]
		input.Prompt = ""
		input.CharLimit = 256
		input.Width = 28
		m.inputs[i] = input
	}
	return m
}

func (m *CreatePanelModel) IsOpen() bool {
	return m.panel.IsOpen()
}

func (m *CreatePanelModel) Open() tea.Cmd {
	m.panel.Open()
	m.err = nil
	m.reset()
	return m.setFocus(0)
}

func (m *CreatePanelModel) Close() {
	m.panel.Close()
	m.err = nil
	m.reset()
}

func (m *CreatePanelModel) SetStyles(st styles) {
	m.styles = st
}

func (m *CreatePanelModel) reset() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
}

func (m *CreatePanelModel) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.inputs {
		if j == m.focus {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func (m *CreatePanelModel) Update(msg tea.Msg) (*CreatePanelModel, tea.Cmd) {
	switch msg := msg.(type) {
	case createFailedMsg:
		m.err = msg.err
		return m, nil

	case contactCreatedMsg:
		m.err = nil
		m.reset()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.Close()
			return m, nil
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "enter", "ctrl+s":
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.panel.SetField(models.Fields[m.focus], m.inputs[m.focus].Value())
	return m, cmd
}

func (m *CreatePanelModel) submit() tea.Cmd {
	if m.panel.Submitting() {
		return nil
	}
	m.err = nil

	panel := m.panel
	ctx := m.ctx
	return func() tea.Msg {
		created, err := panel.Submit(ctx)
		if err != nil {
			return createFailedMsg{err: err}
		}
		return contactCreatedMsg{contact: created}
	}
}

func (m *CreatePanelModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("New contact"))
	b.WriteString("\n\n")

	for i, field := range models.Fields {
		b.WriteString(m.styles.Muted.Render(draftLabels[field]))
		b.WriteString("\n")
		box := m.styles.Input
		if i == m.focus {
			box = m.styles.FocusedBox
		}
		b.WriteString(box.Render(m.inputs[i].View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.panel.Submitting() {
		b.WriteString(m.styles.Muted.Render("Creating..."))
	} else {
		b.WriteString(m.styles.Button.Render("Create"))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(crm.UserMessage(m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter: create • tab: next • esc: close"))

	return m.styles.Sidebar.Render(b.String())
}
