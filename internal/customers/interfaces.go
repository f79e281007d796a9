package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for customer profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	HasOrders(ctx context.Context, customerID uuid.UUID) (bool, error)
}

// Service exposes customer profile operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Customer, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error
	// RequireCustomer resolves the customer for the user or fails with a
	// profile-required error. Order and cart flows call this first.
	RequireCustomer(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
}
