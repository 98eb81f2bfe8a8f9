package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// NoPhone is shown when a contact has no phone on record.
	NoPhone = "N/A"
	// UnknownOwner is shown when the owner could not be resolved.
	UnknownOwner = "Unknown"
)

type Phone struct {
	PhoneNumber string `json:"PhoneNumber"`
}

// User is a CRM account that can own contacts.
type User struct {
	ID   int64  `json:"Id"`
	Name string `json:"Name"`
}

type Contact struct {
	ID      int64   `json:"Id"`
	Name    string  `json:"Name"`
	Email   string  `json:"Email"`
	Phones  []Phone `json:"Phones,omitempty"`
	OwnerID *int64  `json:"OwnerId,omitempty"`
	Owner   *User   `json:"Owner,omitempty"`

	// OwnerName is filled client side when the server was not asked to expand Owner.
	OwnerName string `json:"-"`
}

// PrimaryPhone returns the first phone number, the only one this client reads or writes.
func (c *Contact) PrimaryPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0].PhoneNumber
}

func (c *Contact) DisplayPhone() string {
	if phone := c.PrimaryPhone(); phone != "" {
		return phone
	}
	return NoPhone
}

func (c *Contact) DisplayOwner() string {
	if c.Owner != nil && c.Owner.Name != "" {
		return c.Owner.Name
	}
	if c.OwnerName != "" {
		return c.OwnerName
	}
	return UnknownOwner
}

// Editable projects the contact onto the fields that can be edited inline.
func (c *Contact) Editable() EditableFields {
	return EditableFields{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.PrimaryPhone(),
		OwnerID: FormatOwnerID(c.OwnerID),
	}
}

// Apply merges a successful partial update into the in-memory contact.
func (c *Contact) Apply(patch ContactPatch) {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phones != nil {
		c.Phones = append([]Phone(nil), patch.Phones...)
	}
	if patch.OwnerID != nil {
		id := *patch.OwnerID
		c.OwnerID = &id
		c.Owner = nil
		c.OwnerName = ""
	}
}

func FormatOwnerID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// ParseOwnerID parses a user-entered owner id. Blank input yields nil.
func ParseOwnerID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("owner id must be a number: %q", s)
	}
	return &id, nil
}
