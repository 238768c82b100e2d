// Package domain defines the error taxonomy shared by services and
// handlers. Every failure a handler can surface to a client is one of
// these types; the central HTTP error handler maps each type to a
// status code so individual handlers never pick status codes for
// domain failures themselves.
package domain

import "errors"

// ValidationError covers malformed, missing or conflicting input.
// Mapped to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError with the given message.
func Validation(msg string) error { return &ValidationError{Message: msg} }

// AuthenticationError covers a bad, missing or expired credential.
// Mapped to 401.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// Authentication builds an AuthenticationError with the given message.
func Authentication(msg string) error { return &AuthenticationError{Message: msg} }

// AuthorizationError covers a verified caller acting outside their
// role or ownership. Mapped to 403.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// Authorization builds an AuthorizationError with the given message.
func Authorization(msg string) error { return &AuthorizationError{Message: msg} }

// NotFoundError covers a referenced entity that does not exist.
// Mapped to 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFound builds a NotFoundError with the given message.
func NotFound(msg string) error { return &NotFoundError{Message: msg} }

// ConflictError covers an operation blocked by dependent state, such
// as deleting a time slot that still has reservations. Mapped to 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict builds a ConflictError with the given message.
func Conflict(msg string) error { return &ConflictError{Message: msg} }

// LineProfile carries the identity-provider profile of a caller whose
// token verified but who has no account yet. It is echoed back to the
// client so the registration step can be completed without a second
// profile fetch.
type LineProfile struct {
	LineID      string `json:"lineId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// NewUserError signals the first-login special case: the LINE token is
// valid but no user record exists and no phone number was supplied.
// Not a hard failure; mapped to 400 with an isNewUser payload that
// lets the client continue registration.
type NewUserError struct {
	Profile LineProfile
}

func (e *NewUserError) Error() string { return "phone number required for new user" }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
