package service

import (
	"errors"
	"strings"
)

var (
	// ErrUserNotFound reports a strict update against an unknown username.
	ErrUserNotFound = errors.New("service: user not found")

	// ErrUsernameTaken reports a create against an already-registered username.
	ErrUsernameTaken = errors.New("service: username already taken")
)

// FieldError is a single structured problem reported to the client.
type FieldError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ValidationError accumulates business-rule failures on the request input.
// Handlers map it to 403.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "service: validation failed: " + joinDetails(e.Fields)
}

// CredentialError reports a failed password authentication (unknown user,
// comparison failure, or mismatch). Handlers map it to 400.
type CredentialError struct {
	Fields []FieldError
}

func (e *CredentialError) Error() string {
	return "service: authentication failed: " + joinDetails(e.Fields)
}

func joinDetails(fields []FieldError) string {
	details := make([]string, len(fields))
	for i, f := range fields {
		details[i] = f.Detail
	}
	return strings.Join(details, "; ")
}
