package contacts

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/crmtest"
	"ploomesterm/internal/models"
	"ploomesterm/internal/session"
)

func newLiveController(t *testing.T, server *crmtest.Server, key string) *Controller {
	t.Helper()

	client, err := crm.NewClient(crm.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return NewController(client, session.WithKey(key), Options{})
}

func TestLiveNoCredentialMakesNoCalls(t *testing.T) {
	server := crmtest.New(t)
	ctrl := newLiveController(t, server, "")

	err := ctrl.FetchPage(context.Background(), 1)
	assert.True(t, crm.IsType(err, crm.ErrAuthMissing))
	assert.True(t, crm.IsType(ctrl.Snapshot().Err, crm.ErrAuthMissing))
	assert.Empty(t, server.Requests())
}

func TestLiveOwnerFilter(t *testing.T) {
	server := crmtest.New(t)
	server.AddUsers(models.User{ID: 1, Name: "Alice"}, models.User{ID: 2, Name: "Bob"})
	server.AddContacts(
		models.Contact{Name: "A1", OwnerID: ownerID(1)},
		models.Contact{Name: "B1", OwnerID: ownerID(2)},
		models.Contact{Name: "A2", OwnerID: ownerID(1)},
	)
	ctrl := newLiveController(t, server, crmtest.DefaultKey)

	require.NoError(t, ctrl.OnFilterChange(context.Background(), models.SearchFields{Owner: "Alice"}))

	state := ctrl.Snapshot()
	require.Len(t, state.Contacts, 2)
	for _, c := range state.Contacts {
		assert.Equal(t, "Alice", c.DisplayOwner())
	}
	assert.Equal(t, "A1", state.Contacts[0].Name)
	assert.Equal(t, "A2", state.Contacts[1].Name)

	reads := server.RequestsFor(http.MethodGet, "/Contacts")
	require.Len(t, reads, 1)
	assert.Equal(t, "Owner/Name eq 'Alice'", reads[0].Query["$filter"])
	assert.Len(t, server.RequestsFor(http.MethodGet, "/Users"), 1)
}

func TestLiveEmailEditSendsOnePatch(t *testing.T) {
	server := crmtest.New(t)
	server.AddContacts(models.Contact{Name: "John", Email: "old@x.io", Phones: []models.Phone{{PhoneNumber: "1"}}})
	ctrl := newLiveController(t, server, crmtest.DefaultKey)
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	require.True(t, ctrl.BeginEdit(1))
	ctrl.SetEditField(models.FieldEmail, "new@x.io")

	sent, err := ctrl.CommitEdit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, sent)

	patches := server.RequestsFor(http.MethodPatch, "/Contacts(1)")
	require.Len(t, patches, 1)
	assert.JSONEq(t, `{"Email":"new@x.io"}`, string(patches[0].Body))
	assert.Equal(t, "new@x.io", server.Contacts()[0].Email)
}

func TestLiveScrollIssuesOneFetch(t *testing.T) {
	server := crmtest.New(t)
	batch := make([]models.Contact, 0, 35)
	for i := 0; i < 35; i++ {
		batch = append(batch, models.Contact{Name: "C"})
	}
	server.AddContacts(batch...)
	ctrl := newLiveController(t, server, crmtest.DefaultKey)
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	server.ResetRequests()

	fetch := ctrl.StartNextPage()
	require.NotNil(t, fetch)
	assert.Nil(t, ctrl.StartNextPage(), "loading blocks a second next-page read")
	ctrl.Complete(fetch.Run(ctx))

	reads := server.RequestsFor(http.MethodGet, "/Contacts")
	require.Len(t, reads, 1)
	assert.Equal(t, "30", reads[0].Query["$skip"])

	state := ctrl.Snapshot()
	assert.Len(t, state.Contacts, 35)
	assert.False(t, state.HasMore)
}

func TestLiveDeleteAndCreate(t *testing.T) {
	server := crmtest.New(t)
	server.AddContacts(models.Contact{Name: "Gone"}, models.Contact{Name: "Stays"})
	ctrl := newLiveController(t, server, crmtest.DefaultKey)
	ctx := context.Background()
	require.NoError(t, ctrl.FetchPage(ctx, 1))

	_, err := ctrl.DeleteContact(ctx, 1, Confirmed(true))
	require.NoError(t, err)
	assert.Len(t, server.RequestsFor(http.MethodDelete, "/Contacts(1)"), 1)
	assert.Len(t, ctrl.Snapshot().Contacts, 1)

	client, err := crm.NewClient(crm.Config{BaseURL: server.URL})
	require.NoError(t, err)
	panel := NewCreatePanel(client, session.WithKey(crmtest.DefaultKey), nil, nil)
	panel.Open()
	panel.SetField(models.FieldName, "New")

	created, err := panel.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "New", created.Name)
	assert.Len(t, server.Contacts(), 2)
	assert.Len(t, ctrl.Snapshot().Contacts, 1)
}
