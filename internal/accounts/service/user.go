package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freemanity/accounts/internal/accounts/domain"
	"github.com/freemanity/accounts/internal/accounts/observability/metrics"
	"github.com/freemanity/accounts/internal/accounts/store"
	"github.com/freemanity/accounts/pkg/cryptox"
	"github.com/freemanity/accounts/pkg/idx"
	"github.com/freemanity/accounts/pkg/slogx"
)

// UserService orchestrates the account operations: validation, store access,
// password hashing, and token issuance.
type UserService struct {
	Store  store.Store
	Tokens *TokenService
}

// NewUser is the input to Create. Attributes carries any extra fields the
// client sent alongside the credentials.
type NewUser struct {
	Username   string
	Password   string
	Email      string
	Attributes map[string]any
}

// List returns every user record in store-native order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// Get looks a user up by exact username. A missing record is not an error:
// the result is nil and the caller renders a success-shaped null result.
func (s *UserService) Get(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create validates the credentials, hashes the password, persists the record,
// and issues a token for the fresh account.
func (s *UserService) Create(ctx context.Context, params NewUser) (domain.User, string, error) {
	if fields := validateNewUser(params.Username, params.Password); len(fields) > 0 {
		return domain.User{}, "", &ValidationError{Fields: fields}
	}

	hash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     params.Username,
		PasswordHash: hash,
		Email:        params.Email,
		Attributes:   params.Attributes,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrUsernameTaken
		}
		return domain.User{}, "", err
	}

	// Re-read so the caller sees the store-assigned timestamps.
	created, err := s.Store.Users().GetUserByID(ctx, u.ID)
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.Tokens.Issue(created)
	if err != nil {
		return domain.User{}, "", err
	}

	metrics.AccountsCreated.Inc()
	return created, token, nil
}

// Update merges changes into the record with the given username and returns
// the post-update document. Unknown usernames fail with ErrUserNotFound;
// creating on miss is the explicitly separate Upsert operation.
func (s *UserService) Update(ctx context.Context, username string, changes map[string]any) (domain.User, error) {
	var result domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := applyChanges(&u, changes); err != nil {
			return err
		}
		if err := tx.Users().UpdateUser(ctx, u); err != nil {
			return err
		}

		// Re-read for the store-assigned modified_at.
		result, err = tx.Users().GetUserByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	metrics.AccountsUpdated.Inc()
	return result, nil
}

// Upsert is Update with create-if-absent semantics: when no record matches
// the username, a new sparse record is created from the changes.
func (s *UserService) Upsert(ctx context.Context, username string, changes map[string]any) (domain.User, error) {
	var result domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByUsername(ctx, username)
		switch {
		case errors.Is(err, store.ErrNotFound):
			u = domain.User{
				ID:       idx.New().String(),
				Username: username,
			}
			if err := applyChanges(&u, changes); err != nil {
				return err
			}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				if !errors.Is(err, store.ErrAlreadyExists) {
					return err
				}
				// A concurrent upsert created the record between our read and
				// insert. Merge into the winner's record instead.
				u, err = tx.Users().GetUserByUsername(ctx, username)
				if err != nil {
					return err
				}
				if err := applyChanges(&u, changes); err != nil {
					return err
				}
				if err := tx.Users().UpdateUser(ctx, u); err != nil {
					return err
				}
			}
		case err != nil:
			return err
		default:
			if err := applyChanges(&u, changes); err != nil {
				return err
			}
			if err := tx.Users().UpdateUser(ctx, u); err != nil {
				return err
			}
		}

		result, err = tx.Users().GetUserByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	metrics.AccountsUpdated.Inc()
	return result, nil
}

// Authenticate verifies the supplied credentials against the stored hash and
// issues a token on success.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	if fields := validatePassword(password); len(fields) > 0 {
		return domain.User{}, "", &ValidationError{Fields: fields}
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.AuthenticationsFailed.Inc()
			return domain.User{}, "", &CredentialError{Fields: []FieldError{{
				Title:  titleInvalidAttribute,
				Detail: "The user doesn't exist in our records",
			}}}
		}
		return domain.User{}, "", err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		metrics.AuthenticationsFailed.Inc()
		log.Info("password authentication rejected", "username", username)

		fields := []FieldError{}
		if !errors.Is(err, cryptox.ErrMismatch) {
			fields = append(fields, FieldError{
				Title:  titleLoginFailed,
				Detail: "Error comparing the password",
			})
		}
		fields = append(fields, FieldError{
			Title:  titleLoginFailed,
			Detail: "The password doesn't match",
		})
		return domain.User{}, "", &CredentialError{Fields: fields}
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", err
	}

	metrics.AuthenticationsSucceeded.Inc()
	return u, token, nil
}

// applyChanges folds a free-form change set into u. The username, id, and
// store-managed timestamps are not client-mutable; a password change is
// re-hashed so plaintext never reaches the store.
func applyChanges(u *domain.User, changes map[string]any) error {
	for key, value := range changes {
		switch key {
		case "id", "username", "createdAt", "modifiedAt":
			// ignored: lookup key and store-managed fields
		case "email":
			if email, ok := value.(string); ok {
				u.Email = email
			}
		case "password":
			password, ok := value.(string)
			if !ok {
				continue
			}
			hash, err := cryptox.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.PasswordHash = hash
		default:
			if u.Attributes == nil {
				u.Attributes = map[string]any{}
			}
			u.Attributes[key] = value
		}
	}
	return nil
}
