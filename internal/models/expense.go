package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spend record. The subcategory is optional; spending
// can also be broken down per line item (see ExpenseItem). Soft-deleted
// expenses are excluded from every aggregation.
type Expense struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	CategoryID    uint            `gorm:"not null;index" json:"category_id"`
	SubcategoryID *uint           `gorm:"index" json:"subcategory_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Description   string          `json:"description"`
	Date          time.Time       `gorm:"not null;index" json:"date"`

	Category    Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Subcategory *Subcategory  `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	Items       []ExpenseItem `gorm:"foreignKey:ExpenseID" json:"items,omitempty"`
}
