package contacts

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
)

var ErrSubmitInFlight = errors.New("a contact is already being created")

// CreatePanel holds a draft independent of the list. A successful submit closes the panel
// and notifies the parent; the list is left as it is.
type CreatePanel struct {
	api       API
	creds     Credentials
	onCreated func(created *models.Contact)
	logger    *zap.Logger

	mu         sync.Mutex
	open       bool
	submitting bool
	draft      models.ContactDraft
}

// NewCreatePanel builds a closed panel. onCreated may be nil; it receives the echoed record,
// which is nil when the API does not return one.
func NewCreatePanel(api API, creds Credentials, onCreated func(created *models.Contact), logger *zap.Logger) *CreatePanel {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CreatePanel{
		api:       api,
		creds:     creds,
		onCreated: onCreated,
		logger:    logger.Named("create"),
	}
}

func (p *CreatePanel) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
}

// Close hides the panel and discards the draft.
func (p *CreatePanel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.draft = models.ContactDraft{}
}

func (p *CreatePanel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *CreatePanel) Submitting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitting
}

func (p *CreatePanel) SetField(field models.Field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Set(field, value)
}

func (p *CreatePanel) Draft() models.ContactDraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// Submit posts the draft. On any failure the panel stays open with the draft intact.
func (p *CreatePanel) Submit(ctx context.Context) (*models.Contact, error) {
	p.mu.Lock()
	if p.submitting {
		p.mu.Unlock()
		return nil, ErrSubmitInFlight
	}

	key := p.creds.UserKey()
	if key == "" {
		p.mu.Unlock()
		return nil, crm.NewAuthMissingError()
	}

	payload, err := p.draft.Payload()
	if err != nil {
		p.mu.Unlock()
		return nil, crm.NewInvalidInputError(err)
	}
	p.submitting = true
	p.mu.Unlock()

	created, err := p.api.CreateContact(ctx, key, payload)

	p.mu.Lock()
	p.submitting = false
	if err != nil {
		p.mu.Unlock()
		p.logger.Warn("create failed", zap.Error(err))
		return nil, err
	}
	p.open = false
	p.draft = models.ContactDraft{}
	p.mu.Unlock()

	p.logger.Debug("contact created", zap.String("name", payload.Name))
	if p.onCreated != nil {
		p.onCreated(created)
	}
	return created, nil
}
