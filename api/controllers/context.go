package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openmercato/storefront-backend/api/middleware"
	"github.com/openmercato/storefront-backend/internal/customers"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"github.com/openmercato/storefront-backend/pkg/db/models"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// requireCustomer resolves the calling user's purchasing profile. Profiles can
// be created after the token was minted, so this always goes through the
// customers service instead of trusting the claim.
func requireCustomer(r *http.Request, svc customers.Service) (*models.Customer, error) {
	userID, err := currentUserID(r)
	if err != nil {
		return nil, err
	}
	return svc.RequireCustomer(r.Context(), userID)
}
