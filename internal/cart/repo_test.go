package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type dbProductLoader struct {
	db *gorm.DB
}

func (l dbProductLoader) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func newDBService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, dbProductLoader{db: db})
	require.NoError(t, err)
	return svc
}

func TestServiceAddItemMergesLines(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newDBService(t, db)

	customerID := uuid.New()
	product := seedProduct(t, db, "Espresso Beans", "12.50", 10)

	cart, err := svc.AddItem(context.Background(), customerID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// Adding the same product again increments the existing line.
	cart, err = svc.AddItem(context.Background(), customerID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestServiceGetCartCreatesLazily(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newDBService(t, db)

	customerID := uuid.New()
	cart, err := svc.GetCart(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, cart.CustomerID)
	assert.Empty(t, cart.Items)

	again, err := svc.GetCart(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestServiceGetTotal(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newDBService(t, db)

	customerID := uuid.New()
	beans := seedProduct(t, db, "Espresso Beans", "12.50", 10)
	mug := seedProduct(t, db, "Mug", "8.00", 4)

	_, err := svc.AddItem(context.Background(), customerID, beans.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), customerID, mug.ID, 1)
	require.NoError(t, err)

	total, err := svc.GetTotal(context.Background(), customerID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("33.00")), "got %s", total)
}

func TestServiceRemoveItemAndClear(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newDBService(t, db)

	customerID := uuid.New()
	beans := seedProduct(t, db, "Espresso Beans", "12.50", 10)
	mug := seedProduct(t, db, "Mug", "8.00", 4)

	cart, err := svc.AddItem(context.Background(), customerID, beans.ID, 1)
	require.NoError(t, err)
	cart, err = svc.AddItem(context.Background(), customerID, mug.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	cart, err = svc.RemoveItem(context.Background(), customerID, cart.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.NoError(t, svc.Clear(context.Background(), customerID))

	cart, err = svc.GetCart(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestServiceUpdateItemQuantityPersists(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newDBService(t, db)

	customerID := uuid.New()
	beans := seedProduct(t, db, "Espresso Beans", "12.50", 10)

	cart, err := svc.AddItem(context.Background(), customerID, beans.ID, 1)
	require.NoError(t, err)

	cart, err = svc.UpdateItemQuantity(context.Background(), customerID, cart.Items[0].ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)
}
