package services

import (
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// budgetReportService reads rows from the budget_reports database view,
// where budget-versus-spend aggregation is precomputed per budget row.
type budgetReportService struct {
	db *gorm.DB
}

// NewBudgetReportService creates a new BudgetReportServicer.
func NewBudgetReportService(db *gorm.DB) BudgetReportServicer {
	return &budgetReportService{db: db}
}

// ListBudgetReports returns the user's budget report rows, optionally
// narrowed by scope, period label, and period overlap with a date range.
// The view is read-only; this reshapes rows, it never recomputes them.
func (s *budgetReportService) ListBudgetReports(userID uint, f BudgetReportFilter) ([]BudgetReportRow, error) {
	q := s.db.Model(&models.BudgetReport{}).Where("user_id = ?", userID)
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.SubcategoryID != nil {
		q = q.Where("subcategory_id = ?", *f.SubcategoryID)
	}
	if f.Period != nil {
		q = q.Where("period = ?", string(*f.Period))
	}
	if f.From != nil {
		q = q.Where("period_end >= ?", dateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("period_start < ?", nextDay(*f.To))
	}

	var reports []models.BudgetReport
	if err := q.Order("period_start DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rows := make([]BudgetReportRow, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, BudgetReportRow{
			ID:               r.ID,
			CategoryID:       r.CategoryID,
			SubcategoryID:    r.SubcategoryID,
			Budget:           r.BudgetAmount,
			Period:           r.Period,
			PeriodStart:      r.PeriodStart,
			PeriodEnd:        r.PeriodEnd,
			Spent:            r.TotalSpent,
			PercentUsed:      r.PercentUsed,
			Remaining:        r.RemainingBudget,
			OverBudget:       r.IsOverBudget,
			OverBudgetAmount: r.OverBudgetAmount,
		})
	}
	return rows, nil
}
