package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income is money received on a date. Soft-deleted rows are excluded from
// aggregations.
type Income struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
}
