package domain

import "time"

// User is an account record. Attributes carries free-form fields (for example
// oauthId) that callers may attach through update without schema changes.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt encoded, never serialized back to clients
	Email        string
	Attributes   map[string]any
	CreatedAt    time.Time
	ModifiedAt   time.Time
}
