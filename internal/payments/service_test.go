package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openmercato/storefront-backend/internal/orders"
	"github.com/openmercato/storefront-backend/pkg/db/models"
	pkgerrors "github.com/openmercato/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  paid INTEGER NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`
	paymentsTable := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  succeeded INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(paymentsTable).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, total string, paid bool) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Paid:       paid,
		Total:      decimal.RequireFromString(total),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newPaymentService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), orders.NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func paymentRows(t *testing.T, db *gorm.DB, orderID uuid.UUID) []models.Payment {
	t.Helper()

	var rows []models.Payment
	require.NoError(t, db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestProcessPaymentExactAmount(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", false)

	result, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("33.00"))
	require.NoError(t, err)
	assert.True(t, result.Order.Paid)
	require.NotNil(t, result.Payment)
	assert.True(t, result.Payment.Succeeded)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.True(t, reloaded.Paid)
}

func TestProcessPaymentOverpayment(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", false)

	result, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, result.Order.Paid)
}

func TestProcessPaymentInsufficientKeepsAttempt(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", false)

	_, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("20.00"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientPayment, typed.Code())

	// The order stays unpaid but the attempt is on record.
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	assert.False(t, reloaded.Paid)

	rows := paymentRows(t, db, order.ID)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Succeeded)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("20.00")))
}

func TestProcessPaymentAlreadyPaidIsNoop(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", true)

	result, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("33.00"))
	require.NoError(t, err)
	assert.True(t, result.Order.Paid)
	assert.Nil(t, result.Payment)

	// No second attempt is recorded.
	assert.Empty(t, paymentRows(t, db, order.ID))
}

func TestProcessPaymentValidation(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", false)

	_, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.Zero)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("-5.00"))
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// Nothing was recorded for the rejected amounts.
	assert.Empty(t, paymentRows(t, db, order.ID))
}

func TestProcessPaymentUnknownOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	_, err := svc.ProcessPayment(context.Background(), uuid.New(), uuid.New(), decimal.RequireFromString("10.00"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestProcessPaymentForeignOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	order := seedOrder(t, db, uuid.New(), "33.00", false)

	_, err := svc.ProcessPayment(context.Background(), uuid.New(), order.ID, decimal.RequireFromString("33.00"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestProcessPaymentRetryAfterShortfall(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "33.00", false)

	_, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("10.00"))
	require.Error(t, err)

	result, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("40.00"))
	require.NoError(t, err)
	assert.True(t, result.Order.Paid)

	rows := paymentRows(t, db, order.ID)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Succeeded)
	assert.True(t, rows[1].Succeeded)
}

func TestListPaymentsScopedToCustomer(t *testing.T) {
	db := setupPaymentsTestDB(t)
	svc := newPaymentService(t, db)

	customerID := uuid.New()
	order := seedOrder(t, db, customerID, "10.00", false)

	result, err := svc.ProcessPayment(context.Background(), customerID, order.ID, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	require.NotNil(t, result.Payment)

	rows, err := svc.ListPayments(context.Background(), customerID, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.ListPayments(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
