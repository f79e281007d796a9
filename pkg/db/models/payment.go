package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records one settlement attempt against an order. Failed attempts
// are kept as an audit trail; the attempt that covered the total carries
// Succeeded = true.
type Payment struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Succeeded bool            `gorm:"column:succeeded;not null;default:false" json:"succeeded"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
