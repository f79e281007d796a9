package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a customers service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}
	return customer, nil
}

// UpsertProfile creates the profile on first save and updates it afterwards.
// The user link is set at creation and never changes.
func (s *service) UpsertProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	var result *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
		}

		if existing == nil {
			customer := &models.Customer{
				UserID:    userID,
				FirstName: strings.TrimSpace(input.FirstName),
				LastName:  strings.TrimSpace(input.LastName),
				Email:     strings.TrimSpace(input.Email),
				Address:   strings.TrimSpace(input.Address),
			}
			created, err := repo.Create(ctx, customer)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer profile")
			}
			result = created
			return nil
		}

		existing.FirstName = strings.TrimSpace(input.FirstName)
		existing.LastName = strings.TrimSpace(input.LastName)
		existing.Email = strings.TrimSpace(input.Email)
		existing.Address = strings.TrimSpace(input.Address)
		updated, err := repo.Update(ctx, existing)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer profile")
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteProfile removes the customer profile. Profiles with order history are
// kept: orders are historical records and reference the customer row.
func (s *service) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
		}

		hasOrders, err := repo.HasOrders(ctx, customer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer orders")
		}
		if hasOrders {
			return pkgerrors.New(pkgerrors.CodeConflict, "customer has orders and cannot be deleted")
		}

		if err := repo.Delete(ctx, customer.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer profile")
		}
		return nil
	})
}

func (s *service) RequireCustomer(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProfileRequired, "customer profile required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}
	return customer, nil
}

func validateProfileInput(input ProfileInput) error {
	if strings.TrimSpace(input.FirstName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "first name required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "last name required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	return nil
}
