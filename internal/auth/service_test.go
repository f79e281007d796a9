package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openmercato/storefront-backend/internal/customers"
	"github.com/openmercato/storefront-backend/internal/users"
	pkgauth "github.com/openmercato/storefront-backend/pkg/auth"
	"github.com/openmercato/storefront-backend/pkg/config"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"github.com/openmercato/storefront-backend/pkg/logger"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  is_admin INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	customersTable := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  address TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec(customersTable).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type stubSessions struct {
	mu      sync.Mutex
	active  map[string]uuid.UUID
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{active: map[string]uuid.UUID{}}
}

func (s *stubSessions) Generate(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.active[id] = userID
	return id, nil
}

func (s *stubSessions) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sessionID)
	s.revoked = append(s.revoked, sessionID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:            "auth-test-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
}

func newAuthService(t *testing.T, db *gorm.DB, sessions *stubSessions) Service {
	t.Helper()

	svc, err := NewService(
		users.NewRepository(db),
		customers.NewRepository(db),
		sessions,
		gormTxRunner{db: db},
		testConfig(),
		logger.New(logger.Options{ServiceName: "test"}),
	)
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupAuthTestDB(t)
	sessions := newStubSessions()
	svc := newAuthService(t, db, sessions)

	created, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "  Shopper@Example.COM ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", created.Email)
	assert.False(t, created.IsAdmin)
	assert.True(t, created.IsActive)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, created.ID, resp.User.ID)

	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Nil(t, claims.CustomerID)
	assert.False(t, claims.IsAdmin)

	sessions.mu.Lock()
	_, active := sessions.active[claims.ID]
	sessions.mu.Unlock()
	assert.True(t, active, "login should open a session keyed by the token jti")

	reloaded, err := users.NewRepository(db).FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newStubSessions())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "dup@example.com", Password: "password-one"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "DUP@example.com", Password: "password-two"})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newStubSessions())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "buyer@example.com", Password: "the-real-password"})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{name: "unknown email", req: LoginRequest{Email: "nobody@example.com", Password: "whatever"}},
		{name: "wrong password", req: LoginRequest{Email: "buyer@example.com", Password: "not-it"}},
		{name: "empty password", req: LoginRequest{Email: "buyer@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.req)
			require.Error(t, err)

			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())
			assert.Equal(t, invalidCredentialsMessage, coded.Message())
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newStubSessions())

	created, err := svc.Register(context.Background(), RegisterRequest{Email: "gone@example.com", Password: "still-remembers-it"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, created.ID).Error)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "gone@example.com", Password: "still-remembers-it"})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())
	assert.Equal(t, invalidCredentialsMessage, coded.Message())
}

func TestLoginEmbedsCustomerID(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newStubSessions())

	created, err := svc.Register(context.Background(), RegisterRequest{Email: "profiled@example.com", Password: "with-a-profile"})
	require.NoError(t, err)

	customerID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO customers (id, user_id, first_name, last_name, email, address) VALUES (?, ?, ?, ?, ?, ?)`,
		customerID, created.ID, "Pat", "Doe", "profiled@example.com", "1 Main St",
	).Error)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "profiled@example.com", Password: "with-a-profile"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, resp.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.CustomerID)
	assert.Equal(t, customerID, *claims.CustomerID)
}

func TestLogoutRevokesSession(t *testing.T) {
	db := setupAuthTestDB(t)
	sessions := newStubSessions()
	svc := newAuthService(t, db, sessions)

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "leaver@example.com", Password: "see-you-later"})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "leaver@example.com", Password: "see-you-later"})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testConfig().JWT, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.ID))
	assert.Contains(t, sessions.revoked, claims.ID)

	err = svc.Logout(context.Background(), "")
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())
}
