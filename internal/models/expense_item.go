package models

import "github.com/shopspring/decimal"

// ExpenseItem is a line item inside an expense (e.g. one product on a
// receipt). When CategoryID or SubcategoryID is unset the item inherits the
// parent expense's assignment for reporting. Items live and die with their
// parent expense.
type ExpenseItem struct {
	Base
	ExpenseID     uint            `gorm:"not null;index" json:"expense_id"`
	Name          string          `gorm:"not null" json:"name"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	SubcategoryID *uint           `gorm:"index" json:"subcategory_id,omitempty"`

	Expense     Expense      `gorm:"foreignKey:ExpenseID" json:"-"`
	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Subcategory *Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
}
