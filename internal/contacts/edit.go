package contacts

import (
	"context"

	"go.uber.org/zap"

	"ploomesterm/internal/crm"
	"ploomesterm/internal/models"
)

// BeginEdit puts the listed contact in edit mode, replacing any other row being edited.
// Unknown ids are ignored and BeginEdit reports false.
func (c *Controller) BeginEdit(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return false
	}

	c.editing = true
	c.editID = id
	c.editable = c.contacts[i].Editable()
	return true
}

func (c *Controller) SetEditField(field models.Field, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.editing {
		return false
	}
	c.editable.Set(field, value)
	return true
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitEditLocked()
}

func (c *Controller) exitEditLocked() {
	c.editing = false
	c.editID = 0
	c.editable = models.EditableFields{}
}

// Commit is a prepared partial update.
type Commit struct {
	ID    int64
	Patch models.ContactPatch

	key string
	api API
}

// Empty reports whether nothing changed, in which case no request is sent.
func (m *Commit) Empty() bool {
	return m.Patch.IsEmpty()
}

func (m *Commit) Run(ctx context.Context) error {
	if m.Empty() {
		return nil
	}
	return m.api.UpdateContact(ctx, m.key, m.ID, m.Patch)
}

// PrepareCommit diffs the edited fields against the listed contact and leaves edit mode.
// An unparsable owner id keeps the row in edit mode so it can be corrected.
func (c *Controller) PrepareCommit(id int64) (*Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.editing || c.editID != id {
		return nil, ErrNotEditing
	}

	i := c.indexLocked(id)
	if i < 0 {
		c.exitEditLocked()
		return nil, wrapNotFound(id)
	}

	patch, err := models.Diff(c.contacts[i], c.editable)
	if err != nil {
		invalid := crm.NewInvalidInputError(err)
		c.err = invalid
		return nil, invalid
	}

	c.exitEditLocked()

	commit := &Commit{ID: id, Patch: patch, api: c.api}
	if commit.Empty() {
		return commit, nil
	}

	key := c.creds.UserKey()
	if key == "" {
		c.err = crm.NewAuthMissingError()
		return nil, c.err
	}
	commit.key = key
	return commit, nil
}

// CompleteCommit merges a successful update into the list or records the failure.
func (c *Controller) CompleteCommit(commit *Commit, err error) {
	if err != nil {
		c.logger.Warn("update failed", zap.Int64("id", commit.ID), zap.Error(err))
		c.setErr(err)
		return
	}
	c.ApplyPatch(commit.ID, commit.Patch)
}

// ApplyPatch merges changed fields into the listed contact.
func (c *Controller) ApplyPatch(id int64, patch models.ContactPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return
	}
	c.contacts[i].Apply(patch)
	if patch.OwnerID == nil {
		return
	}
	if c.owners != nil {
		resolveOwner(&c.contacts[i], c.owners)
		return
	}
	if owner, ok := c.expandedOwnerLocked(*patch.OwnerID); ok {
		c.contacts[i].Owner = &owner
	}
}

// expandedOwnerLocked finds the owner among the server-expanded owners already listed.
func (c *Controller) expandedOwnerLocked(id int64) (models.User, bool) {
	for _, contact := range c.contacts {
		if contact.Owner != nil && contact.Owner.ID == id && contact.Owner.Name != "" {
			return *contact.Owner, true
		}
	}
	return models.User{}, false
}

// CommitEdit sends the changed fields of the row in edit mode. It reports whether a request
// was made. Edit mode is left even when the update fails.
func (c *Controller) CommitEdit(ctx context.Context, id int64) (bool, error) {
	commit, err := c.PrepareCommit(id)
	if err != nil {
		return false, err
	}
	if commit.Empty() {
		return false, nil
	}

	err = commit.Run(ctx)
	c.CompleteCommit(commit, err)
	return true, err
}
