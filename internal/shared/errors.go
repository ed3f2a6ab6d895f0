package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation indicates input rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness rule would be violated.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTransport indicates a network or HTTP failure talking to the backend.
	ErrTransport = errors.New("transport failure")
	// ErrAuth indicates the session token was rejected; the session is no longer usable.
	ErrAuth = errors.New("session invalidated")
)

// Error is a categorised failure carrying a message fit for end users.
type Error struct {
	Kind    error
	Message string
	// Fields maps input field names to problems for validation failures.
	Fields map[string]string
	// Status is the backend HTTP status when the error came from a response.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the category sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validation builds a ValidationError for a single field.
func Validation(field, message string) *Error {
	return ValidationFields(map[string]string{field: message})
}

// ValidationFields builds a ValidationError from several field problems.
func ValidationFields(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, fields[k])
			continue
		}
		parts = append(parts, k+": "+fields[k])
	}
	return &Error{Kind: ErrValidation, Message: strings.Join(parts, "; "), Fields: fields}
}

// Conflict builds a ConflictError.
func Conflict(message string) *Error {
	return &Error{Kind: ErrConflict, Message: message}
}

// NotFound builds a NotFoundError for the named resource.
func NotFound(resource string, id int64) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %d not found", resource, id)}
}

// Transport builds a TransportError. Detail is the backend-provided message, if any.
func Transport(status int, detail string, cause error) *Error {
	msg := detail
	if msg == "" {
		msg = "the server could not complete the request, please try again"
	}
	return &Error{Kind: ErrTransport, Message: msg, Status: status, Err: cause}
}

// Auth builds an AuthError.
func Auth(detail string) *Error {
	if detail == "" {
		detail = "session expired, please sign in again"
	}
	return &Error{Kind: ErrAuth, Message: detail, Status: 401}
}

// UserMessage returns the message to show to an end user for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "something went wrong, please try again"
}
