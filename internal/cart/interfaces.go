package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
}

// Service exposes cart operations keyed by the acting customer.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	GetTotal(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}
