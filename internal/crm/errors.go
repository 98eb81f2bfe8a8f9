package crm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

func NewError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

func NewAuthMissingError() *Error {
	return NewError(ErrAuthMissing, "user key not found", nil)
}

func NewAPIError(statusCode int, message string) *Error {
	err := NewError(ErrAPI, fmt.Sprintf("api responded %d %s", statusCode, http.StatusText(statusCode)), nil)
	if message != "" {
		err.Message += ": " + message
	}
	err.StatusCode = statusCode
	return err
}

func NewMalformedResponseError(message string) *Error {
	return NewError(ErrAPI, "malformed response: "+message, nil)
}

func NewTransportError(message string, cause error) *Error {
	return NewError(ErrTransport, message, cause)
}

func NewInvalidInputError(cause error) *Error {
	return NewError(ErrInvalid, "invalid input", cause)
}

// ClassifyError maps any error returned while talking to the API onto the error taxonomy.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var crmErr *Error
	if errors.As(err, &crmErr) {
		return crmErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return NewError(ErrCanceled, "request canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrTimeout, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrTimeout, "request timed out", err)
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") {
		return NewError(ErrTimeout, "request timed out", err)
	}

	return NewTransportError("network failure", err)
}

// IsType reports whether err classifies as the given error type.
func IsType(err error, errType ErrorType) bool {
	classified := ClassifyError(err)
	return classified != nil && classified.Type == errType
}

func (e *Error) UserMessage() string {
	switch e.Type {
	case ErrAuthMissing:
		return "User key not found. Please enter your user key."
	case ErrAPI:
		if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
			return "The CRM rejected your user key."
		}
		return "The CRM could not process the request."
	case ErrTransport:
		return "Network connection failed. Please check your internet connection."
	case ErrTimeout:
		return "Request timed out. Please try again."
	case ErrCanceled:
		return "Request canceled."
	case ErrInvalid:
		if e.Cause != nil {
			return "Invalid input: " + e.Cause.Error()
		}
		return "Invalid input."
	default:
		return "An unexpected error occurred."
	}
}

// UserMessage renders any error for display in a banner or on stderr.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return ClassifyError(err).UserMessage()
}
