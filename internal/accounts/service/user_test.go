package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/freemanity/accounts/internal/accounts/domain"
	"github.com/freemanity/accounts/internal/accounts/service"
	"github.com/freemanity/accounts/internal/accounts/store"
	"github.com/freemanity/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/freemanity/accounts/pkg/cryptox"
	"github.com/freemanity/accounts/pkg/idx"
	"github.com/freemanity/accounts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestService(t *testing.T) (*service.UserService, *jwtx.HS256Signer) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256("service-test-secret")
	require.NoError(t, err)

	return &service.UserService{
		Store: st,
		Tokens: &service.TokenService{
			Signer: signer,
			Issuer: "accounts-test",
			TTL:    time.Hour,
		},
	}, signer
}

func createUser(t *testing.T, svc *service.UserService, username, password string) domain.User {
	t.Helper()

	u, token, err := svc.Create(context.Background(), service.NewUser{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return u
}

func TestCreateIssuesToken(t *testing.T) {
	svc, signer := newTestService(t)

	u, token, err := svc.Create(context.Background(), service.NewUser{
		Username: "perpz",
		Password: "miracle123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "perpz", u.Username)
	require.False(t, u.CreatedAt.IsZero())

	require.True(t, len(token) > len(service.TokenScheme)+1)
	require.Equal(t, service.TokenScheme+" ", token[:len(service.TokenScheme)+1])

	claims, err := signer.Verify(token[len(service.TokenScheme)+1:])
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
}

func TestCreateHashesPassword(t *testing.T) {
	svc, _ := newTestService(t)

	u := createUser(t, svc, "freeman", "miracle123")
	require.NotEqual(t, "miracle123", u.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("miracle123", u.PasswordHash))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("missing password", func(t *testing.T) {
		_, _, err := svc.Create(ctx, service.NewUser{Username: "perpz"})

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		require.Equal(t, "No password specified", verr.Fields[0].Detail)
	})

	t.Run("short password", func(t *testing.T) {
		_, _, err := svc.Create(ctx, service.NewUser{Username: "perpz", Password: "mira"})

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		require.Equal(t, "Password must contain at least 6 characters", verr.Fields[0].Detail)
	})

	t.Run("errors accumulate", func(t *testing.T) {
		_, _, err := svc.Create(ctx, service.NewUser{})

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 2)
		require.Equal(t, "No username specified", verr.Fields[0].Detail)
		require.Equal(t, "No password specified", verr.Fields[1].Detail)
	})
}

func TestCreateLongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Well past bcrypt's 72-byte input cap; must still round-trip.
	password := strings.Repeat("correct-horse-battery-staple", 4)

	_, token, err := svc.Create(ctx, service.NewUser{
		Username: "longpass",
		Password: password,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, _, err = svc.Authenticate(ctx, "longpass", password)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "longpass", password+"x")
	var cerr *service.CredentialError
	require.ErrorAs(t, err, &cerr)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	createUser(t, svc, "freeman", "miracle123")

	_, _, err := svc.Create(context.Background(), service.NewUser{
		Username: "freeman",
		Password: "another-pass",
	})
	require.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := createUser(t, svc, "sirfreeman", "miracle123")

	t.Run("correct password", func(t *testing.T) {
		u, token, err := svc.Authenticate(ctx, "sirfreeman", "miracle123")
		require.NoError(t, err)
		require.Equal(t, created.ID, u.ID)
		require.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "sirfreeman", "wrong-password")

		var cerr *service.CredentialError
		require.ErrorAs(t, err, &cerr)
		require.Len(t, cerr.Fields, 1)
		require.Equal(t, "The password doesn't match", cerr.Fields[0].Detail)
	})

	t.Run("short password is a validation error", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "sirfreeman", "mira")

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "Password must contain at least 6 characters", verr.Fields[0].Detail)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "freemanity", "miracle123")

		var cerr *service.CredentialError
		require.ErrorAs(t, err, &cerr)
		require.Len(t, cerr.Fields, 1)
		require.Equal(t, "The user doesn't exist in our records", cerr.Fields[0].Detail)
	})
}

func TestAuthenticateBrokenStoredHash(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Seed a record whose hash bcrypt cannot parse.
	require.NoError(t, svc.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Username:     "corrupt",
		PasswordHash: "plainly-not-bcrypt",
	}))

	_, _, err := svc.Authenticate(ctx, "corrupt", "miracle123")

	var cerr *service.CredentialError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Fields, 2)
	require.Equal(t, "Error comparing the password", cerr.Fields[0].Detail)
	require.Equal(t, "The password doesn't match", cerr.Fields[1].Detail)
}

func TestGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createUser(t, svc, "freeman", "miracle123")

	t.Run("existing user", func(t *testing.T) {
		u, err := svc.Get(ctx, "freeman")
		require.NoError(t, err)
		require.NotNil(t, u)
		require.Equal(t, "freeman", u.Username)
	})

	t.Run("missing user yields nil without error", func(t *testing.T) {
		u, err := svc.Get(ctx, "nobody")
		require.NoError(t, err)
		require.Nil(t, u)
	})
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	createUser(t, svc, "perpz", "miracle123")
	createUser(t, svc, "freeman", "miracle123")

	users, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := createUser(t, svc, "freeman", "miracle123")

	t.Run("merges free-form attributes", func(t *testing.T) {
		u, err := svc.Update(ctx, "freeman", map[string]any{"oauthId": 200})
		require.NoError(t, err)
		require.Equal(t, created.ID, u.ID)
		require.EqualValues(t, 200, u.Attributes["oauthId"])
	})

	t.Run("re-hashes a password change", func(t *testing.T) {
		u, err := svc.Update(ctx, "freeman", map[string]any{"password": "changed-secret"})
		require.NoError(t, err)
		require.NotEqual(t, "changed-secret", u.PasswordHash)

		_, _, err = svc.Authenticate(ctx, "freeman", "changed-secret")
		require.NoError(t, err)
	})

	t.Run("username stays immutable", func(t *testing.T) {
		u, err := svc.Update(ctx, "freeman", map[string]any{"username": "impostor"})
		require.NoError(t, err)
		require.Equal(t, "freeman", u.Username)
	})

	t.Run("unknown username fails", func(t *testing.T) {
		_, err := svc.Update(ctx, "freemanity", map[string]any{"oauthId": 200})
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func TestUpsert(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("creates a sparse record when absent", func(t *testing.T) {
		u, err := svc.Upsert(ctx, "newcomer", map[string]any{"oauthId": 7})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.Equal(t, "newcomer", u.Username)
		require.EqualValues(t, 7, u.Attributes["oauthId"])
	})

	t.Run("merges into an existing record", func(t *testing.T) {
		before, err := svc.Get(ctx, "newcomer")
		require.NoError(t, err)

		u, err := svc.Upsert(ctx, "newcomer", map[string]any{"email": "new@example.com"})
		require.NoError(t, err)
		require.Equal(t, before.ID, u.ID)
		require.Equal(t, "new@example.com", u.Email)
		require.EqualValues(t, 7, u.Attributes["oauthId"])
	})
}

// lostRaceStore replays the window where a concurrent upsert creates the
// record between this transaction's read and its insert: the first read
// misses, the insert collides, and later reads see the winner's record.
type lostRaceStore struct {
	store.Store
	missed bool
}

func (s *lostRaceStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(&lostRaceTx{storeTx: tx, outer: s})
	})
}

// storeTx aliases store.Tx so it can be embedded without the field name
// colliding with the interface's Tx method.
type storeTx = store.Tx

type lostRaceTx struct {
	storeTx
	outer *lostRaceStore
}

func (t *lostRaceTx) Users() store.Users {
	return &lostRaceUsers{Users: t.storeTx.Users(), outer: t.outer}
}

type lostRaceUsers struct {
	store.Users
	outer *lostRaceStore
}

func (u *lostRaceUsers) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if !u.outer.missed {
		u.outer.missed = true
		return domain.User{}, store.ErrNotFound
	}
	return u.Users.GetUserByUsername(ctx, username)
}

func (u *lostRaceUsers) CreateUser(ctx context.Context, user domain.User) error {
	return store.ErrAlreadyExists
}

func TestUpsertLosesCreateRace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	winner := createUser(t, svc, "raced", "miracle123")

	racedSvc := &service.UserService{
		Store:  &lostRaceStore{Store: svc.Store},
		Tokens: svc.Tokens,
	}

	u, err := racedSvc.Upsert(ctx, "raced", map[string]any{"oauthId": 9})
	require.NoError(t, err)
	require.Equal(t, winner.ID, u.ID)
	require.EqualValues(t, 9, u.Attributes["oauthId"])
}
