package catalog

import (
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// CreateProductInput carries the fields accepted when adding a catalog entry.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Available   bool
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Available   *bool
}

// ListFilters narrows the public product listing.
type ListFilters struct {
	// AvailableOnly hides unavailable products from the public listing.
	AvailableOnly bool
	// Query matches against the product name, case-insensitive.
	Query string
}

// ProductList is one page of catalog entries plus the next cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
