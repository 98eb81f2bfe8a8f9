package contacts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
	"ploomesterm/internal/session"
)

func ids(contacts []models.Contact) []int64 {
	out := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.ID)
	}
	return out
}

func TestPaginationAccumulatesPages(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	api.pages[2] = makeContacts(31, 30)
	api.pages[3] = makeContacts(61, 12)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	assert.True(t, ctrl.Snapshot().HasMore)

	issued, err := ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.True(t, ctrl.Snapshot().HasMore)

	issued, err = ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	assert.True(t, issued)

	state := ctrl.Snapshot()
	assert.False(t, state.HasMore)
	assert.Equal(t, 3, state.Page)
	require.Len(t, state.Contacts, 72)

	want := ids(append(append(makeContacts(1, 30), makeContacts(31, 30)...), makeContacts(61, 12)...))
	if diff := cmp.Diff(want, ids(state.Contacts)); diff != "" {
		t.Errorf("contact order mismatch (-want +got):\n%s", diff)
	}

	issued, err = ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	assert.False(t, issued)
	assert.Equal(t, 3, api.listCount())

	assert.Equal(t, []int{0, 30, 60}, []int{api.listCalls[0].Skip, api.listCalls[1].Skip, api.listCalls[2].Skip})
}

func TestExactlyFullLastPageCostsOneEmptyFetch(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	assert.True(t, ctrl.Snapshot().HasMore)

	issued, err := ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	assert.True(t, issued)

	state := ctrl.Snapshot()
	assert.False(t, state.HasMore)
	assert.Len(t, state.Contacts, 30)
	assert.Equal(t, 2, api.listCount())
}

func TestFetchWithoutKeyMakesNoRequest(t *testing.T) {
	api := newFakeAPI()
	ctrl := NewController(api, session.WithKey(""), Options{})

	err := ctrl.FetchPage(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, crm.IsType(err, crm.ErrAuthMissing))

	state := ctrl.Snapshot()
	assert.False(t, state.Loading)
	assert.True(t, crm.IsType(state.Err, crm.ErrAuthMissing))
	assert.Equal(t, 0, api.listCount())
	assert.Equal(t, 0, api.usersCalls)
}

func TestFilterChangeDiscardsAccumulatedPages(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	api.pages[2] = makeContacts(31, 5)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	_, err := ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	require.Len(t, ctrl.Snapshot().Contacts, 35)

	api.mu.Lock()
	api.pages[1] = makeContacts(100, 2)
	api.mu.Unlock()

	filter := models.SearchFields{Name: "Jo"}
	require.NoError(t, ctrl.OnFilterChange(ctx, filter))

	state := ctrl.Snapshot()
	assert.Equal(t, []int64{100, 101}, ids(state.Contacts))
	assert.Equal(t, 1, state.Page)
	assert.False(t, state.HasMore)
	assert.Equal(t, filter, state.Filter)

	last := api.listCalls[len(api.listCalls)-1]
	assert.Equal(t, 0, last.Skip)
	assert.Equal(t, filter, last.Filter)
}

func TestFailedFilterChangeStopsPaging(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1000, 30)
	api.pages[2] = makeContacts(2500, 30)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	require.True(t, ctrl.Snapshot().HasMore)

	api.mu.Lock()
	api.listErr = crm.NewAPIError(500, "")
	api.mu.Unlock()

	require.Error(t, ctrl.OnFilterChange(ctx, models.SearchFields{Name: "Jo"}))

	api.mu.Lock()
	api.listErr = nil
	api.mu.Unlock()

	issued, err := ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	assert.False(t, issued)

	state := ctrl.Snapshot()
	assert.Equal(t, ids(makeContacts(1000, 30)), ids(state.Contacts))
	assert.False(t, state.HasMore)
	assert.Equal(t, 2, api.listCount())

	require.NoError(t, ctrl.OnFilterChange(ctx, models.SearchFields{Name: "Jo"}))
	state = ctrl.Snapshot()
	assert.Equal(t, ids(makeContacts(1000, 30)), ids(state.Contacts))
	assert.True(t, state.HasMore)
}

func TestStaleFetchIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.list = func(opts crm.ListOptions) ([]models.Contact, error) {
		if opts.Filter.Name == "old" {
			return makeContacts(1, 3), nil
		}
		return makeContacts(50, 2), nil
	}
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	older := ctrl.StartFilterChange(models.SearchFields{Name: "old"})
	newer := ctrl.StartFilterChange(models.SearchFields{Name: "new"})
	require.NotNil(t, older)
	require.NotNil(t, newer)
	assert.Greater(t, newer.Generation, older.Generation)

	olderResult := older.Run(ctx)
	newerResult := newer.Run(ctx)

	// The older response arrives first and must not be applied.
	assert.False(t, ctrl.Complete(olderResult))
	assert.True(t, ctrl.Snapshot().Loading)

	assert.True(t, ctrl.Complete(newerResult))
	assert.False(t, ctrl.Complete(olderResult))

	state := ctrl.Snapshot()
	assert.False(t, state.Loading)
	assert.Equal(t, []int64{50, 51}, ids(state.Contacts))
}

func TestNextPageNotIssuedWhileLoading(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	api.pages[2] = makeContacts(31, 30)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	assert.Nil(t, ctrl.StartNextPage(), "no page loaded yet")

	require.NoError(t, ctrl.FetchPage(ctx, 1))

	fetch := ctrl.StartNextPage()
	require.NotNil(t, fetch)
	assert.Equal(t, 2, fetch.Page)
	assert.True(t, ctrl.Snapshot().Loading)
	assert.Nil(t, ctrl.StartNextPage())

	assert.True(t, ctrl.Complete(fetch.Run(ctx)))
	assert.Equal(t, 2, api.listCount())
}

func TestFailedPageKeepsListAndCursor(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	api.pages[2] = makeContacts(31, 1)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))

	api.mu.Lock()
	api.listErr = crm.NewAPIError(500, "")
	api.mu.Unlock()

	issued, err := ctrl.OnScrollNearBottom(ctx)
	assert.True(t, issued)
	require.Error(t, err)

	state := ctrl.Snapshot()
	assert.Len(t, state.Contacts, 30)
	assert.Equal(t, 1, state.Page)
	assert.True(t, state.HasMore)
	assert.True(t, crm.IsType(state.Err, crm.ErrAPI))

	api.mu.Lock()
	api.listErr = nil
	api.mu.Unlock()

	_, err = ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)
	state = ctrl.Snapshot()
	assert.Len(t, state.Contacts, 31)
	assert.Nil(t, state.Err)
}

func TestUsersFailureFailsWholeFetch(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 3)
	api.usersErr = crm.NewTransportError("network failure", errors.New("reset"))
	ctrl := newTestController(api, Options{})

	err := ctrl.FetchPage(context.Background(), 1)
	require.Error(t, err)

	state := ctrl.Snapshot()
	assert.Empty(t, state.Contacts)
	assert.True(t, crm.IsType(state.Err, crm.ErrTransport))
}

func TestOwnersResolvedClientSide(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = []models.Contact{
		{ID: 1, Name: "A", OwnerID: ownerID(5)},
		{ID: 2, Name: "B", OwnerID: ownerID(6)},
		{ID: 3, Name: "C"},
	}
	api.users = []models.User{{ID: 5, Name: "Alice"}}
	ctrl := newTestController(api, Options{})

	require.NoError(t, ctrl.FetchPage(context.Background(), 1))

	state := ctrl.Snapshot()
	assert.Equal(t, "Alice", state.Contacts[0].DisplayOwner())
	assert.Equal(t, models.UnknownOwner, state.Contacts[1].DisplayOwner())
	assert.Equal(t, models.UnknownOwner, state.Contacts[2].DisplayOwner())
	assert.Equal(t, 1, api.usersCalls)
	assert.Equal(t, []string{crm.ExpandPhones}, api.listCalls[0].Expand)
}

func TestServerExpandedOwnerSkipsUsers(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = []models.Contact{{ID: 1, Name: "A", OwnerID: ownerID(5), Owner: &models.User{ID: 5, Name: "Alice"}}}
	ctrl := newTestController(api, Options{ExpandOwner: true})

	require.NoError(t, ctrl.FetchPage(context.Background(), 1))

	assert.Equal(t, 0, api.usersCalls)
	assert.Equal(t, []string{crm.ExpandPhones, crm.ExpandOwner}, api.listCalls[0].Expand)
	assert.Equal(t, "Alice", ctrl.Snapshot().Contacts[0].DisplayOwner())
}

func TestAppendSkipsDuplicates(t *testing.T) {
	api := newFakeAPI()
	api.pages[1] = makeContacts(1, 30)
	api.pages[2] = append(makeContacts(30, 1), makeContacts(31, 2)...)
	ctrl := newTestController(api, Options{})
	ctx := context.Background()

	require.NoError(t, ctrl.FetchPage(ctx, 1))
	_, err := ctrl.OnScrollNearBottom(ctx)
	require.NoError(t, err)

	got := ids(ctrl.Snapshot().Contacts)
	assert.Len(t, got, 32)
	assert.Equal(t, []int64{30, 31, 32}, got[29:])
}

func TestNearBottom(t *testing.T) {
	tests := []struct {
		name                               string
		offset, viewport, total, tolerance int
		want                               bool
	}{
		{"exact bottom", 20, 10, 30, 0, true},
		{"one short without tolerance", 19, 10, 30, 0, false},
		{"one short within tolerance", 19, 10, 30, 1, true},
		{"far from bottom", 0, 10, 30, 1, false},
		{"list shorter than viewport", 0, 10, 4, 1, true},
		{"empty list", 0, 10, 0, 1, false},
		{"negative tolerance treated as zero", 19, 10, 30, -3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NearBottom(tt.offset, tt.viewport, tt.total, tt.tolerance)
			if got != tt.want {
				t.Errorf("NearBottom(%d, %d, %d, %d) = %v, want %v",
					tt.offset, tt.viewport, tt.total, tt.tolerance, got, tt.want)
			}
		})
	}
}
