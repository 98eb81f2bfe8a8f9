package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ploomesterm/internal/contacts"
	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
	"ploomesterm/internal/utils"
)

type contactsMode int

const (
	modeTable contactsMode = iota
	modeSearch
	modeEdit
	modeConfirmDelete
	modeCreate
)

type fetchDoneMsg struct {
	result contacts.FetchResult
}

type commitDoneMsg struct {
	commit *contacts.Commit
	err    error
}

type deleteDoneMsg struct {
	id  int64
	err error
}

// chromeRows is everything above and below the table body.
const chromeRows = 12

type ContactsOptions struct {
	ExpandOwner bool
	Tolerance   int
	Logger      *zap.Logger
}

type ContactsModel struct {
	ctrl      *contacts.Controller
	panel     *CreatePanelModel
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	tolerance int

	mode        contactsMode
	search      []textinput.Model
	searchFocus int
	edit        []textinput.Model
	editFocus   int

	cursor        int
	offset        int
	pendingDelete int64

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  styles
	notice  string

	width  int
	height int
}

func NewContactsModel(api contacts.API, creds contacts.Credentials, opts ContactsOptions, st styles) *ContactsModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &ContactsModel{
		ctrl: contacts.NewController(api, creds, contacts.Options{
			ExpandOwner: opts.ExpandOwner,
			Logger:      logger,
		}),
		panel:     NewCreatePanelModel(ctx, api, creds, logger, st),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		tolerance: opts.Tolerance,
		spinner:   s,
		help:      help.New(),
		keys:      defaultKeyMap(),
	}
	m.search = newFieldInputs("Search ")
	m.edit = newFieldInputs("")
	m.SetStyles(st)
	return m
}

func newFieldInputs(placeholderPrefix string) []textinput.Model {
	inputs := make([]textinput.Model, len(models.Fields))
	for i, field := range models.Fields {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = placeholderPrefix + strings.ToLower(field.String())
		input.CharLimit = 256
		inputs[i] = input
	}
	return inputs
}

func (m *ContactsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(m.ctrl.StartFetch(1)))
}

// Close cancels every request still in flight.
func (m *ContactsModel) Close() {
	m.cancel()
}

func (m *ContactsModel) Controller() *contacts.Controller {
	return m.ctrl
}

func (m *ContactsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	widths := m.columnWidths()
	for i := range m.search {
		m.search[i].Width = max(widths[i]-4, 4)
		m.edit[i].Width = max(widths[i]-2, 4)
	}
	m.clampCursor()
}

func (m *ContactsModel) SetStyles(st styles) {
	m.styles = st
	m.spinner.Style = st.Title
	m.panel.SetStyles(st)
}

func (m *ContactsModel) fetch(f *contacts.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return fetchDoneMsg{result: f.Run(ctx)}
	}
}

func (m *ContactsModel) Update(msg tea.Msg) (*ContactsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchDoneMsg:
		if m.ctrl.Complete(msg.result) {
			m.syncEditMode()
			m.clampCursor()
		}
		return m, nil

	case commitDoneMsg:
		m.ctrl.CompleteCommit(msg.commit, msg.err)
		if msg.err == nil {
			m.notice = "Contact updated successfully."
		}
		return m, nil

	case deleteDoneMsg:
		if msg.err == nil {
			m.notice = "Contact deleted successfully."
			m.logger.Info("contact deleted", zap.Int64("id", msg.id))
		}
		m.clampCursor()
		return m, nil

	case contactCreatedMsg:
		m.mode = modeTable
		m.notice = "Contact successfully created!"
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		return m, cmd

	case createFailedMsg:
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeCreate:
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Update(msg)
			if !m.panel.IsOpen() {
				m.mode = modeTable
			}
			return m, cmd
		default:
			return m.updateTable(msg)
		}
	}

	return m, nil
}

func (m *ContactsModel) updateTable(msg tea.KeyMsg) (*ContactsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Leave):
		m.Close()
		return m, send(SignOutMsg{})

	case key.Matches(msg, m.keys.Theme):
		return m, send(ToggleThemeMsg{})

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, m.loadMoreIfNearBottom()

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, m.loadMoreIfNearBottom()

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows())
		return m, m.loadMoreIfNearBottom()

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows())
		return m, m.loadMoreIfNearBottom()

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.focusSearch(m.searchFocus)

	case key.Matches(msg, m.keys.Edit):
		return m, m.beginEdit()

	case key.Matches(msg, m.keys.Delete):
		if contact, ok := m.selected(); ok {
			m.pendingDelete = contact.ID
			m.mode = modeConfirmDelete
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		return m, m.panel.Open()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch(m.ctrl.StartFetch(1))

	case msg.String() == "esc":
		m.ctrl.ClearErr()
		m.notice = ""
		return m, nil
	}

	return m, nil
}

func (m *ContactsModel) updateSearch(msg tea.KeyMsg) (*ContactsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.blurSearch()
		m.mode = modeTable
		return m, nil
	case "tab":
		return m, m.focusSearch(m.searchFocus + 1)
	case "shift+tab":
		return m, m.focusSearch(m.searchFocus - 1)
	case "enter":
		var filter models.SearchFields
		for i, field := range models.Fields {
			filter.Set(field, m.search[i].Value())
		}
		m.blurSearch()
		m.mode = modeTable
		m.cursor = 0
		m.offset = 0
		m.notice = ""
		m.logger.Debug("filter changed", zap.String("filter", crm.BuildFilter(filter)))
		return m, m.fetch(m.ctrl.StartFilterChange(filter))
	}

	var cmd tea.Cmd
	m.search[m.searchFocus], cmd = m.search[m.searchFocus].Update(msg)
	return m, cmd
}

func (m *ContactsModel) focusSearch(i int) tea.Cmd {
	n := len(m.search)
	m.searchFocus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.search {
		if j == m.searchFocus {
			cmd = m.search[j].Focus()
		} else {
			m.search[j].Blur()
		}
	}
	return cmd
}

func (m *ContactsModel) blurSearch() {
	for i := range m.search {
		m.search[i].Blur()
	}
}

func (m *ContactsModel) beginEdit() tea.Cmd {
	contact, ok := m.selected()
	if !ok || !m.ctrl.BeginEdit(contact.ID) {
		return nil
	}

	editable := m.ctrl.Snapshot().Editable
	for i, field := range models.Fields {
		m.edit[i].SetValue(editable.Get(field))
	}
	m.mode = modeEdit
	m.notice = ""
	return m.focusEdit(0)
}

func (m *ContactsModel) focusEdit(i int) tea.Cmd {
	n := len(m.edit)
	m.editFocus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.edit {
		if j == m.editFocus {
			cmd = m.edit[j].Focus()
		} else {
			m.edit[j].Blur()
		}
	}
	return cmd
}

func (m *ContactsModel) updateEdit(msg tea.KeyMsg) (*ContactsModel, tea.Cmd) {
	state := m.ctrl.Snapshot()
	if !state.Editing {
		m.mode = modeTable
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.ctrl.CancelEdit()
		m.mode = modeTable
		return m, nil
	case "tab":
		return m, m.focusEdit(m.editFocus + 1)
	case "shift+tab":
		return m, m.focusEdit(m.editFocus - 1)
	case "enter":
		return m, m.commitEdit(state.EditID)
	}

	var cmd tea.Cmd
	m.edit[m.editFocus], cmd = m.edit[m.editFocus].Update(msg)
	m.ctrl.SetEditField(models.Fields[m.editFocus], m.edit[m.editFocus].Value())
	return m, cmd
}

func (m *ContactsModel) commitEdit(id int64) tea.Cmd {
	commit, err := m.ctrl.PrepareCommit(id)
	if !m.ctrl.Snapshot().Editing {
		m.mode = modeTable
	}
	if err != nil || commit.Empty() {
		return nil
	}

	ctx := m.ctx
	return func() tea.Msg {
		return commitDoneMsg{commit: commit, err: commit.Run(ctx)}
	}
}

// syncEditMode leaves edit mode when a reload dropped the edited row.
func (m *ContactsModel) syncEditMode() {
	if m.mode == modeEdit && !m.ctrl.Snapshot().Editing {
		m.mode = modeTable
	}
}

func (m *ContactsModel) updateConfirmDelete(msg tea.KeyMsg) (*ContactsModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.pendingDelete
		m.pendingDelete = 0
		m.mode = modeTable
		ctrl := m.ctrl
		ctx := m.ctx
		return m, func() tea.Msg {
			_, err := ctrl.DeleteContact(ctx, id, contacts.Confirmed(true))
			return deleteDoneMsg{id: id, err: err}
		}
	case "n", "N", "esc", "q":
		m.pendingDelete = 0
		m.mode = modeTable
	}
	return m, nil
}

func (m *ContactsModel) selected() (models.Contact, bool) {
	list := m.ctrl.Snapshot().Contacts
	if m.cursor < 0 || m.cursor >= len(list) {
		return models.Contact{}, false
	}
	return list[m.cursor], true
}

func (m *ContactsModel) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *ContactsModel) clampCursor() {
	total := len(m.ctrl.Snapshot().Contacts)
	if m.cursor >= total {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset > max(total-visible, 0) {
		m.offset = max(total-visible, 0)
	}
}

func (m *ContactsModel) loadMoreIfNearBottom() tea.Cmd {
	total := len(m.ctrl.Snapshot().Contacts)
	if !contacts.NearBottom(m.offset, m.visibleRows(), total, m.tolerance) {
		return nil
	}
	return m.fetch(m.ctrl.StartNextPage())
}

func (m *ContactsModel) visibleRows() int {
	if m.height == 0 {
		return 10
	}
	return max(m.height-chromeRows, 3)
}

func (m *ContactsModel) columnWidths() [4]int {
	width := m.width
	if width == 0 {
		width = 100
	}
	if m.mode == modeCreate {
		width -= 38
	}
	width = max(width-2, 40)

	name := width * 25 / 100
	email := width * 30 / 100
	phone := width * 20 / 100
	return [4]int{name, email, phone, width - name - email - phone}
}

func (m *ContactsModel) View() string {
	state := m.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSearch())
	b.WriteString("\n")
	b.WriteString(m.renderTable(state))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(state))

	if m.mode == modeConfirmDelete {
		b.WriteString("\n")
		b.WriteString(m.renderDeleteModal(state))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	content := b.String()
	if m.mode == modeCreate {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, " ", m.panel.View())
	}
	return content
}

func (m *ContactsModel) renderHeader() string {
	width := m.width
	if width == 0 {
		width = 100
	}
	right := "[t] theme  [L] leave"
	title := "Ploomes Contacts"
	gap := max(width-lipgloss.Width(title)-lipgloss.Width(right)-2, 1)
	return m.styles.Header.Width(width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m *ContactsModel) renderSearch() string {
	boxes := make([]string, len(m.search))
	for i := range m.search {
		box := m.styles.Input
		if m.mode == modeSearch && i == m.searchFocus {
			box = m.styles.FocusedBox
		}
		boxes[i] = box.Render(m.search[i].View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *ContactsModel) renderTable(state contacts.State) string {
	widths := m.columnWidths()

	var b strings.Builder
	head := make([]string, len(models.Fields))
	for i, field := range models.Fields {
		head[i] = utils.PadString(field.String(), widths[i], ' ')
	}
	b.WriteString(m.styles.ColumnHead.Render(strings.Join(head, " ")))
	b.WriteString("\n")

	if len(state.Contacts) == 0 {
		if !state.Loading {
			b.WriteString(m.styles.Placeholder.Render("No contacts found."))
			b.WriteString("\n")
		}
		return b.String()
	}

	end := min(m.offset+m.visibleRows(), len(state.Contacts))
	for i := m.offset; i < end; i++ {
		contact := state.Contacts[i]

		if m.mode == modeEdit && state.Editing && contact.ID == state.EditID {
			cells := make([]string, len(m.edit))
			for j := range m.edit {
				cells[j] = lipgloss.NewStyle().Width(widths[j]).MaxWidth(widths[j]).Render(m.edit[j].View())
			}
			b.WriteString(m.styles.Selected.Render(strings.Join(cells, " ")))
			b.WriteString("\n")
			continue
		}

		values := []string{contact.Name, contact.Email, contact.DisplayPhone(), contact.DisplayOwner()}
		cells := make([]string, len(values))
		for j, value := range values {
			cells[j] = utils.PadString(value, widths[j], ' ')
		}

		row := m.styles.Row
		if i == m.cursor {
			row = m.styles.Selected
		}
		b.WriteString(row.Render(strings.Join(cells, " ")))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *ContactsModel) renderStatus(state contacts.State) string {
	var lines []string

	if state.Loading {
		lines = append(lines, m.spinner.View()+" Loading contacts...")
	}
	if state.Err != nil {
		lines = append(lines, m.styles.Error.Render(crm.UserMessage(state.Err)))
	} else if m.notice != "" {
		lines = append(lines, m.styles.Success.Render(m.notice))
	}

	more := "end of list"
	if state.HasMore {
		more = "more available"
	}
	summary := fmt.Sprintf("%s · page %d · %s", utils.FormatCount(len(state.Contacts), "contact"), state.Page, more)
	if !state.Filter.IsEmpty() {
		summary += " · filtered"
	}
	lines = append(lines, m.styles.Muted.Render(summary))

	return strings.Join(lines, "\n")
}

func (m *ContactsModel) renderDeleteModal(state contacts.State) string {
	name := ""
	for _, contact := range state.Contacts {
		if contact.ID == m.pendingDelete {
			name = contact.Name
			break
		}
	}

	body := contacts.DeletePrompt(name) + "\n\n" + m.styles.Muted.Render("y: delete • n: cancel")
	return m.styles.Modal.Render(body)
}
