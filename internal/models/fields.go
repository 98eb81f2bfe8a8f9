package models

import (
	"errors"
	"strings"
)

// Field names one of the four user-facing contact columns.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldPhone
	FieldOwner
)

// Fields lists the columns in declaration order. Filter clauses and form focus follow it.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldOwner}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldEmail:
		return "Email"
	case FieldPhone:
		return "Phone"
	case FieldOwner:
		return "Owner"
	default:
		return "Unknown"
	}
}

// SearchFields is the sparse filter record typed into the header. Empty means unconstrained.
type SearchFields struct {
	Name  string
	Email string
	Phone string
	Owner string
}

func (s SearchFields) Get(f Field) string {
	switch f {
	case FieldName:
		return s.Name
	case FieldEmail:
		return s.Email
	case FieldPhone:
		return s.Phone
	case FieldOwner:
		return s.Owner
	}
	return ""
}

func (s *SearchFields) Set(f Field, value string) {
	switch f {
	case FieldName:
		s.Name = value
	case FieldEmail:
		s.Email = value
	case FieldPhone:
		s.Phone = value
	case FieldOwner:
		s.Owner = value
	}
}

func (s SearchFields) IsEmpty() bool {
	return s == SearchFields{}
}

// EditableFields is the shadow copy of the row in edit mode.
type EditableFields struct {
	Name    string
	Email   string
	Phone   string
	OwnerID string
}

func (e EditableFields) Get(f Field) string {
	switch f {
	case FieldName:
		return e.Name
	case FieldEmail:
		return e.Email
	case FieldPhone:
		return e.Phone
	case FieldOwner:
		return e.OwnerID
	}
	return ""
}

func (e *EditableFields) Set(f Field, value string) {
	switch f {
	case FieldName:
		e.Name = value
	case FieldEmail:
		e.Email = value
	case FieldPhone:
		e.Phone = value
	case FieldOwner:
		e.OwnerID = value
	}
}

// ContactPatch carries only the fields that changed. Nil members are omitted from the body.
type ContactPatch struct {
	Name    *string `json:"Name,omitempty"`
	Email   *string `json:"Email,omitempty"`
	Phones  []Phone `json:"Phones,omitempty"`
	OwnerID *int64  `json:"OwnerId,omitempty"`
}

func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phones == nil && p.OwnerID == nil
}

// Diff compares the edited values against the last known contact and returns the minimal patch.
// A phone change is always sent as a one-element phone list.
func Diff(contact Contact, edited EditableFields) (ContactPatch, error) {
	var patch ContactPatch
	current := contact.Editable()

	if edited.Name != current.Name {
		name := edited.Name
		patch.Name = &name
	}
	if edited.Email != current.Email {
		email := edited.Email
		patch.Email = &email
	}
	if edited.Phone != current.Phone {
		patch.Phones = []Phone{{PhoneNumber: edited.Phone}}
	}
	if edited.OwnerID != current.OwnerID {
		id, err := ParseOwnerID(edited.OwnerID)
		if err != nil {
			return ContactPatch{}, err
		}
		if id == nil {
			return ContactPatch{}, errors.New("owner id cannot be cleared")
		}
		if contact.OwnerID == nil || *contact.OwnerID != *id {
			patch.OwnerID = id
		}
	}

	return patch, nil
}

// ContactDraft is the create panel's independent record.
type ContactDraft struct {
	Name    string
	Email   string
	Phone   string
	OwnerID string
}

func (d ContactDraft) Get(f Field) string {
	return EditableFields(d).Get(f)
}

func (d *ContactDraft) Set(f Field, value string) {
	e := EditableFields(*d)
	e.Set(f, value)
	*d = ContactDraft(e)
}

// NewContact is the body posted to create a contact.
type NewContact struct {
	Name    string  `json:"Name"`
	Email   string  `json:"Email,omitempty"`
	Phones  []Phone `json:"Phones,omitempty"`
	OwnerID *int64  `json:"OwnerId,omitempty"`
}

func (d ContactDraft) Payload() (NewContact, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return NewContact{}, errors.New("name required")
	}

	ownerID, err := ParseOwnerID(d.OwnerID)
	if err != nil {
		return NewContact{}, err
	}

	payload := NewContact{
		Name:    name,
		Email:   strings.TrimSpace(d.Email),
		OwnerID: ownerID,
	}
	if phone := strings.TrimSpace(d.Phone); phone != "" {
		payload.Phones = []Phone{{PhoneNumber: phone}}
	}
	return payload, nil
}
