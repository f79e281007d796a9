package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for payment attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

// Service settles payments against orders.
type Service interface {
	ProcessPayment(ctx context.Context, customerID, orderID uuid.UUID, amount decimal.Decimal) (*Result, error)
	ListPayments(ctx context.Context, customerID, orderID uuid.UUID) ([]models.Payment, error)
}

// Result reports the settlement outcome.
type Result struct {
	Order *models.Order `json:"order"`
	// Payment is nil when the order was already paid and the call was a
	// no-op.
	Payment *models.Payment `json:"payment,omitempty"`
}
