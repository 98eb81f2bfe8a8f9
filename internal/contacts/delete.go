package contacts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Confirmed answers without asking, for callers that already obtained consent.
type Confirmed bool

func (c Confirmed) Confirm(string) bool {
	return bool(c)
}

// DeletePrompt is the question put to the user before deleting a contact.
func DeletePrompt(name string) string {
	return fmt.Sprintf("Are you sure you want to delete %q?", name)
}

// DeleteContact removes the contact after confirmation. It reports whether a request was made.
// Declining, or a failed request, leaves the list unchanged.
func (c *Controller) DeleteContact(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	contact, ok := c.Contact(id)
	if !ok {
		return false, wrapNotFound(id)
	}

	if !confirm.Confirm(DeletePrompt(contact.Name)) {
		return false, nil
	}

	key, err := c.requireKey()
	if err != nil {
		c.setErr(err)
		return false, err
	}

	if err := c.api.DeleteContact(ctx, key, id); err != nil {
		c.logger.Warn("delete failed", zap.Int64("id", id), zap.Error(err))
		c.setErr(err)
		return true, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(id); i >= 0 {
		c.contacts = append(c.contacts[:i:i], c.contacts[i+1:]...)
	}
	if c.editing && c.editID == id {
		c.exitEditLocked()
	}
	return true, nil
}
