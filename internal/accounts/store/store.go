package store

import (
	"context"
	"errors"

	"github.com/freemanity/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to do multi-step operations that must be atomic
	// (e.g. upsert's read-then-write).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// ListUsers returns every user record in store-native (insertion) order.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// GetUserByUsername returns a user by its external lookup key.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser overwrites the mutable fields of the record with u's id and
	// bumps modified_at. Returns ErrNotFound when no record matches.
	UpdateUser(ctx context.Context, u domain.User) error

	// DeleteUser removes a record by id. Only exercised by test teardown;
	// the service exposes no delete operation.
	DeleteUser(ctx context.Context, id string) error
}
