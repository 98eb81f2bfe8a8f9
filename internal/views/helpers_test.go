package views

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/crmtest"
	"ploomesterm/internal/models"
	"ploomesterm/internal/session"
)

func ownerID(id int64) *int64 { return &id }

func newClient(t *testing.T, server *crmtest.Server) *crm.Client {
	t.Helper()

	client, err := crm.NewClient(crm.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func seedContacts(server *crmtest.Server, n int) {
	server.AddUsers(models.User{ID: 1, Name: "Alice"})
	for i := 0; i < n; i++ {
		server.AddContacts(models.Contact{
			Name:    "Contact " + string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Email:   "c@x.io",
			OwnerID: ownerID(1),
		})
	}
}

// newLoadedContacts builds the list view and applies its first page.
func newLoadedContacts(t *testing.T, server *crmtest.Server) *ContactsModel {
	t.Helper()

	m := NewContactsModel(newClient(t, server), session.WithKey(crmtest.DefaultKey), ContactsOptions{Tolerance: 1}, newStyles(false))
	t.Cleanup(m.Close)
	m.SetSize(100, 30)

	for _, msg := range runBatch(t, m.Init()) {
		if done, ok := msg.(fetchDoneMsg); ok {
			m, _ = m.Update(done)
		}
	}
	return m
}

func runBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)

	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}

	var msgs []tea.Msg
	for _, c := range batch {
		if c != nil {
			msgs = append(msgs, c())
		}
	}
	return msgs
}

// run executes a command that must produce exactly one message.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
