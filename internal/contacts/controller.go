// Package contacts owns the contact list state: incremental paging, search, inline edit and
// delete, plus the independent create panel.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
)

var (
	ErrNotEditing      = errors.New("contact is not in edit mode")
	ErrContactNotFound = errors.New("contact not in the current list")
)

// API is the part of the CRM client the list and the create panel need.
type API interface {
	ListContacts(ctx context.Context, key string, opts crm.ListOptions) ([]models.Contact, error)
	ListUsers(ctx context.Context, key string) ([]models.User, error)
	UpdateContact(ctx context.Context, key string, id int64, patch models.ContactPatch) error
	DeleteContact(ctx context.Context, key string, id int64) error
	CreateContact(ctx context.Context, key string, contact models.NewContact) (*models.Contact, error)
}

// Credentials yields the current user key, empty when signed out.
type Credentials interface {
	UserKey() string
}

type Options struct {
	// ExpandOwner asks the server to expand Owner instead of resolving names through /Users.
	ExpandOwner bool
	Logger      *zap.Logger
}

// State is a point-in-time copy of the controller.
type State struct {
	Contacts []models.Contact
	Loading  bool
	Err      error
	Page     int
	HasMore  bool
	Filter   models.SearchFields

	Editing  bool
	EditID   int64
	Editable models.EditableFields
}

type Controller struct {
	api         API
	creds       Credentials
	expandOwner bool
	logger      *zap.Logger

	mu         sync.Mutex
	contacts   []models.Contact
	loading    bool
	err        error
	page       int
	hasMore    bool
	filter     models.SearchFields
	editing    bool
	editID     int64
	editable   models.EditableFields
	generation uint64
	owners     map[int64]string
}

func NewController(api API, creds Credentials, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		api:         api,
		creds:       creds,
		expandOwner: opts.ExpandOwner,
		logger:      logger.Named("contacts"),
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Contacts: append([]models.Contact(nil), c.contacts...),
		Loading:  c.loading,
		Err:      c.err,
		Page:     c.page,
		HasMore:  c.hasMore,
		Filter:   c.filter,
		Editing:  c.editing,
		EditID:   c.editID,
		Editable: c.editable,
	}
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearErr dismisses the current error.
func (c *Controller) ClearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

// Fetch is one issued page read. Run performs the I/O without touching controller state.
type Fetch struct {
	Generation uint64
	Page       int

	key         string
	opts        crm.ListOptions
	expandOwner bool
	api         API
	logger      *zap.Logger
}

type FetchResult struct {
	Generation uint64
	Page       int
	Contacts   []models.Contact
	Owners     map[int64]string
	Err        error
}

// StartFetch issues a read of the given 1-based page. Without a stored key it records an
// auth error and returns nil, making no request.
func (c *Controller) StartFetch(page int) *Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startFetchLocked(page)
}

func (c *Controller) startFetchLocked(page int) *Fetch {
	c.generation++

	key := c.creds.UserKey()
	if key == "" {
		c.loading = false
		c.err = crm.NewAuthMissingError()
		return nil
	}

	c.loading = true
	c.err = nil

	c.logger.Debug("fetch issued",
		zap.Uint64("generation", c.generation),
		zap.Int("page", page))

	return &Fetch{
		Generation:  c.generation,
		Page:        page,
		key:         key,
		opts:        crm.PageOptions(c.filter, page, c.expandOwner),
		expandOwner: c.expandOwner,
		api:         c.api,
		logger:      c.logger,
	}
}

// StartFilterChange replaces the active filter and restarts from page 1.
func (c *Controller) StartFilterChange(filter models.SearchFields) *Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = filter
	return c.startFetchLocked(1)
}

// StartNextPage issues the following page unless a read is in flight or the list is exhausted.
func (c *Controller) StartNextPage() *Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || !c.hasMore {
		return nil
	}
	return c.startFetchLocked(c.page + 1)
}

// Run reads the page, and the users when owner names are resolved here. Either read failing
// fails the whole fetch.
func (f *Fetch) Run(ctx context.Context) FetchResult {
	result := FetchResult{Generation: f.Generation, Page: f.Page}

	if f.expandOwner {
		result.Contacts, result.Err = f.api.ListContacts(ctx, f.key, f.opts)
		return result
	}

	var users []models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contacts, err := f.api.ListContacts(gctx, f.key, f.opts)
		result.Contacts = contacts
		return err
	})
	g.Go(func() error {
		var err error
		users, err = f.api.ListUsers(gctx, f.key)
		return err
	})
	if err := g.Wait(); err != nil {
		return FetchResult{Generation: f.Generation, Page: f.Page, Err: err}
	}

	result.Owners = make(map[int64]string, len(users))
	for _, u := range users {
		result.Owners[u.ID] = u.Name
	}
	for i := range result.Contacts {
		resolveOwner(&result.Contacts[i], result.Owners)
	}
	return result
}

func resolveOwner(contact *models.Contact, owners map[int64]string) {
	if contact.OwnerID != nil {
		contact.OwnerName = owners[*contact.OwnerID]
	}
}

// Complete applies a finished fetch. Results from superseded fetches are dropped and
// Complete reports false.
func (c *Controller) Complete(result FetchResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if result.Generation != c.generation {
		c.logger.Debug("stale fetch discarded",
			zap.Uint64("generation", result.Generation),
			zap.Uint64("latest", c.generation))
		return false
	}

	c.loading = false

	if result.Err != nil {
		c.err = result.Err
		if result.Page <= 1 {
			// The rows still belong to the previous query. Paging stays off until page 1 succeeds.
			c.hasMore = false
		}
		c.logger.Warn("fetch failed", zap.Int("page", result.Page), zap.Error(result.Err))
		return true
	}

	if result.Page <= 1 {
		c.contacts = append([]models.Contact(nil), result.Contacts...)
		if c.editing && c.indexLocked(c.editID) < 0 {
			c.exitEditLocked()
		}
	} else {
		seen := make(map[int64]struct{}, len(c.contacts))
		for _, existing := range c.contacts {
			seen[existing.ID] = struct{}{}
		}
		for _, contact := range result.Contacts {
			if _, dup := seen[contact.ID]; dup {
				continue
			}
			seen[contact.ID] = struct{}{}
			c.contacts = append(c.contacts, contact)
		}
	}

	if result.Owners != nil {
		c.owners = result.Owners
	}
	c.page = result.Page
	c.hasMore = len(result.Contacts) == crm.PageSize

	c.logger.Debug("fetch applied",
		zap.Int("page", c.page),
		zap.Int("returned", len(result.Contacts)),
		zap.Int("total", len(c.contacts)),
		zap.Bool("has_more", c.hasMore))
	return true
}

// FetchPage reads a page and applies it.
func (c *Controller) FetchPage(ctx context.Context, page int) error {
	return c.runFetch(ctx, c.StartFetch(page))
}

// OnFilterChange replaces the filter and reloads from page 1, discarding accumulated pages.
func (c *Controller) OnFilterChange(ctx context.Context, filter models.SearchFields) error {
	return c.runFetch(ctx, c.StartFilterChange(filter))
}

// OnScrollNearBottom loads the next page when allowed. It reports whether a read was issued.
func (c *Controller) OnScrollNearBottom(ctx context.Context) (bool, error) {
	fetch := c.StartNextPage()
	if fetch == nil {
		return false, nil
	}
	return true, c.runFetch(ctx, fetch)
}

func (c *Controller) runFetch(ctx context.Context, fetch *Fetch) error {
	if fetch == nil {
		return c.Err()
	}
	result := fetch.Run(ctx)
	c.Complete(result)
	return result.Err
}

// NearBottom reports whether the visible window reaches the end of the list, allowing
// tolerance rows of slack.
func NearBottom(offset, viewport, total, tolerance int) bool {
	if total <= 0 || viewport <= 0 {
		return false
	}
	if tolerance < 0 {
		tolerance = 0
	}
	return offset+viewport >= total-tolerance
}

func (c *Controller) indexLocked(id int64) int {
	for i := range c.contacts {
		if c.contacts[i].ID == id {
			return i
		}
	}
	return -1
}

// Contact returns the listed contact with the given id.
func (c *Controller) Contact(id int64) (models.Contact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return models.Contact{}, false
	}
	return c.contacts[i], true
}

func (c *Controller) requireKey() (string, error) {
	key := c.creds.UserKey()
	if key == "" {
		return "", crm.NewAuthMissingError()
	}
	return key, nil
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func wrapNotFound(id int64) error {
	return fmt.Errorf("contact %d: %w", id, ErrContactNotFound)
}
