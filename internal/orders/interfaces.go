package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"github.com/openmercato/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindByIDForUpdate loads the order with a row lock; callers must be
	// inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) error
}

// Service exposes order placement and reads.
type Service interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, lines []Line) (*models.Order, error)
	Checkout(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
}

// Line is one requested (product, quantity) pair for direct placement.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderList is one page of orders plus the next cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
