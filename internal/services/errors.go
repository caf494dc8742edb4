package services

import (
	"errors"
	"strings"

	"vision-webapi/internal/pkg/validation"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateCredential = errors.New("username or email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrStorageFailure      = errors.New("storage failure")
	ErrUploadNotFound      = errors.New("upload not found")
	ErrSessionNotFound     = errors.New("session not found")
)

// ValidationError carries per-field messages and matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []*validation.ErrorResponse
}

func newValidationError(fields []*validation.ErrorResponse) *ValidationError {
	return &ValidationError{Fields: fields}
}

func validationMessage(field, message string) *ValidationError {
	return newValidationError([]*validation.ErrorResponse{{FailedField: field, Tag: "invalid", Message: message}})
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, " ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Messages returns the user-facing message of every failed field.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return msgs
}

// AuthFailure is returned by Authenticate. UserID is set when the username resolved
// to an account so the failed attempt can be audited against it; it never means the
// caller is authenticated. Callers facing end users must treat every AuthFailure alike.
type AuthFailure struct {
	UserID *int64
	Err    error
}

func (e *AuthFailure) Error() string { return e.Err.Error() }

func (e *AuthFailure) Unwrap() error { return e.Err }
