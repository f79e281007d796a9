package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/internal/orders"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	orders orders.Repository
	tx     txRunner
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: orderRepo, tx: tx}, nil
}

// ProcessPayment settles a tendered amount against an order. Every attempt
// is recorded, successful or not; the transaction commits either way so the
// audit row survives a declined settlement. The paid flag only ever moves
// false -> true, and paying an already-paid order is a no-op.
func (s *service) ProcessPayment(ctx context.Context, customerID, orderID uuid.UUID, amount decimal.Decimal) (*Result, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var (
		result       Result
		insufficient *pkgerrors.Error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		if order.Paid {
			result.Order = order
			return nil
		}

		payment := &models.Payment{
			OrderID:   order.ID,
			Amount:    amount,
			Succeeded: amount.GreaterThanOrEqual(order.Total),
		}
		if _, err := s.repo.WithTx(tx).CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		if !payment.Succeeded {
			// Keep the attempt: return nil so the transaction commits,
			// and surface the settlement failure after.
			insufficient = pkgerrors.New(pkgerrors.CodeInsufficientPayment, "amount does not cover order total").
				WithDetails(map[string]any{
					"order_id": order.ID,
					"amount":   amount,
					"total":    order.Total,
				})
			result.Order = order
			result.Payment = payment
			return nil
		}

		if err := orderRepo.MarkPaid(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order.Paid = true
		result.Order = order
		result.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if insufficient != nil {
		return nil, insufficient
	}
	return &result, nil
}

func (s *service) ListPayments(ctx context.Context, customerID, orderID uuid.UUID) ([]models.Payment, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}
