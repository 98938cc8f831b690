package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetReport is a read-only projection of the pre-aggregated
// budget_reports view (see migrations). Rows carry budget-vs-spend figures
// per scope and period; the service layer only filters and reshapes them.
type BudgetReport struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `json:"user_id"`
	CategoryID       *uint           `json:"category_id,omitempty"`
	SubcategoryID    *uint           `json:"subcategory_id,omitempty"`
	BudgetAmount     decimal.Decimal `gorm:"type:numeric(20,4)" json:"budget_amount"`
	Period           BudgetPeriod    `json:"period"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	TotalSpent       decimal.Decimal `gorm:"type:numeric(20,4)" json:"total_spent"`
	PercentUsed      decimal.Decimal `gorm:"type:numeric(20,4)" json:"percent_used"`
	RemainingBudget  decimal.Decimal `gorm:"type:numeric(20,4)" json:"remaining_budget"`
	IsOverBudget     bool            `json:"is_over_budget"`
	OverBudgetAmount decimal.Decimal `gorm:"type:numeric(20,4)" json:"over_budget_amount"`
}

// TableName maps the model onto the aggregated view.
func (BudgetReport) TableName() string { return "budget_reports" }
