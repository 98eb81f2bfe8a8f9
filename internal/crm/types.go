package crm

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"ploomesterm/internal/models"
)

const (
	DefaultBaseURL = "https://api2.ploomes.com"
	DefaultTimeout = 30 * time.Second

	// PageSize is the fixed batch size for contact listing.
	PageSize = 30

	// KeyHeader carries the per-account static credential.
	KeyHeader = "User-Key"
)

// Expansions understood by the Contacts collection.
const (
	ExpandPhones = "Phones"
	ExpandOwner  = "Owner"
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ListOptions describes one page read of the Contacts collection.
type ListOptions struct {
	Filter models.SearchFields
	Expand []string
	Top    int
	Skip   int
}

type ErrorType string

const (
	ErrAuthMissing ErrorType = "auth_missing"
	ErrAPI         ErrorType = "api_error"
	ErrTransport   ErrorType = "transport_error"
	ErrTimeout     ErrorType = "timeout"
	ErrCanceled    ErrorType = "canceled"
	ErrInvalid     ErrorType = "invalid_input"
)

type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
