package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmercato/storefront-backend/internal/customers"
	"github.com/openmercato/storefront-backend/internal/users"
	pkgauth "github.com/openmercato/storefront-backend/pkg/auth"
	"github.com/openmercato/storefront-backend/pkg/config"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"github.com/openmercato/storefront-backend/pkg/logger"
	"github.com/openmercato/storefront-backend/pkg/security"
)

// invalidCredentialsMessage is intentionally identical for unknown emails,
// wrong passwords and disabled accounts.
const invalidCredentialsMessage = "invalid credentials"

// Service handles account registration and credential-based sessions.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	users     *users.Repository
	customers customers.Repository
	sessions  sessionManager
	db        txRunner
	cfg       *config.Config
	logg      *logger.Logger
}

// NewService wires the auth service with its dependencies.
func NewService(
	usersRepo *users.Repository,
	customersRepo customers.Repository,
	sessions sessionManager,
	db txRunner,
	cfg *config.Config,
	logg *logger.Logger,
) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customers repository is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &service{
		users:     usersRepo,
		customers: customersRepo,
		sessions:  sessions,
		db:        db,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// Register creates a new user account with a hashed password.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	hash, err := security.HashPassword(req.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		_, err := repo.FindByEmail(ctx, email)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check existing email")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "user registered")
	return created, nil
}

// Login verifies the credentials and issues a signed access token backed by a
// Redis session.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user.ID)

	var customerID *uuid.UUID
	customer, err := s.customers.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		customerID = &customer.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no profile yet; token carries only the user identity
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load customer profile")
	}

	sessionID, err := s.sessions.Generate(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create session")
	}

	token, err := pkgauth.MintAccessToken(s.cfg.JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		CustomerID: customerID,
		IsAdmin:    user.IsAdmin,
		JTI:        sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint access token")
	}

	return &LoginResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}

// Logout revokes the session referenced by the token's jti. Revoking an
// unknown session is not an error.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, req LoginRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to verify password")
	}
	if !ok || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return user, nil
}

// recordLogin is best-effort; a failed timestamp update never blocks a login.
func (s *service) recordLogin(ctx context.Context, userID uuid.UUID) {
	if err := s.users.UpdateLastLogin(ctx, userID, time.Now().UTC()); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "failed to record login timestamp")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
