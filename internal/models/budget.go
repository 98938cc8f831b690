package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the legacy period label derived from a budget's date range.
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodAnnual  BudgetPeriod = "annual"
	// BudgetPeriodNone means the range carries no label: either the wide
	// recurring sentinel or an arbitrary custom range.
	BudgetPeriodNone BudgetPeriod = ""
)

// The wide range is a sentinel meaning "always active". Budgets created
// without explicit dates get it, and DerivePeriod maps it back to no label.
var (
	WideRangeStart = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	WideRangeEnd   = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Budget caps spending for exactly one category or one subcategory over a
// date range. Overlapping rows for the same scope are legal; resolution
// picks the most recently touched one.
type Budget struct {
	Base
	UserID        *uint           `gorm:"index" json:"user_id,omitempty"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	SubcategoryID *uint           `gorm:"index" json:"subcategory_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       time.Time       `gorm:"not null" json:"end_date"`

	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Subcategory *Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
}

// IsWideRange reports whether the budget uses the always-active sentinel range.
func (b *Budget) IsWideRange() bool {
	return b.StartDate.Equal(WideRangeStart) && b.EndDate.Equal(WideRangeEnd)
}
