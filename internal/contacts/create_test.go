package contacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
	"ploomesterm/internal/session"
)

func fillDraft(p *CreatePanel) {
	p.SetField(models.FieldName, "Ana")
	p.SetField(models.FieldEmail, "ana@x.io")
	p.SetField(models.FieldPhone, "123")
	p.SetField(models.FieldOwner, "8")
}

func TestCreateSuccessClosesAndNotifies(t *testing.T) {
	api := newFakeAPI()
	api.created = &models.Contact{ID: 77, Name: "Ana"}

	var notified *models.Contact
	calls := 0
	panel := NewCreatePanel(api, session.WithKey("key"), func(created *models.Contact) {
		calls++
		notified = created
	}, nil)

	panel.Open()
	fillDraft(panel)

	created, err := panel.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, created, notified)

	assert.False(t, panel.IsOpen())
	assert.Equal(t, models.ContactDraft{}, panel.Draft())

	require.Len(t, api.creates, 1)
	assert.Equal(t, models.NewContact{
		Name:    "Ana",
		Email:   "ana@x.io",
		Phones:  []models.Phone{{PhoneNumber: "123"}},
		OwnerID: ownerID(8),
	}, api.creates[0])
}

func TestCreateDoesNotTouchTheList(t *testing.T) {
	api := newFakeAPI()
	ctrl := loadedController(t, api)
	before := api.listCount()

	panel := NewCreatePanel(api, session.WithKey("key"), nil, nil)
	panel.Open()
	fillDraft(panel)

	_, err := panel.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, ids(ctrl.Snapshot().Contacts))
	assert.Equal(t, before, api.listCount())
}

func TestCreateFailureKeepsDraft(t *testing.T) {
	api := newFakeAPI()
	api.createErr = crm.NewAPIError(400, "")
	panel := NewCreatePanel(api, session.WithKey("key"), func(*models.Contact) {
		t.Error("onCreated must not run on failure")
	}, nil)

	panel.Open()
	fillDraft(panel)

	_, err := panel.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, panel.IsOpen())
	assert.False(t, panel.Submitting())
	assert.Equal(t, "Ana", panel.Draft().Name)
}

func TestCreateWithoutKey(t *testing.T) {
	api := newFakeAPI()
	panel := NewCreatePanel(api, session.WithKey(""), nil, nil)
	panel.Open()
	fillDraft(panel)

	_, err := panel.Submit(context.Background())
	assert.True(t, crm.IsType(err, crm.ErrAuthMissing))
	assert.Empty(t, api.creates)
	assert.True(t, panel.IsOpen())
}

func TestCreateRequiresName(t *testing.T) {
	api := newFakeAPI()
	panel := NewCreatePanel(api, session.WithKey("key"), nil, nil)
	panel.Open()
	panel.SetField(models.FieldEmail, "x@y.z")

	_, err := panel.Submit(context.Background())
	assert.True(t, crm.IsType(err, crm.ErrInvalid))
	assert.Empty(t, api.creates)
	assert.Equal(t, "x@y.z", panel.Draft().Email)
}

func TestCloseDiscardsDraft(t *testing.T) {
	panel := NewCreatePanel(newFakeAPI(), session.WithKey("key"), nil, nil)
	panel.Open()
	fillDraft(panel)
	panel.Close()

	assert.False(t, panel.IsOpen())
	assert.Equal(t, models.ContactDraft{}, panel.Draft())
}
