package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// budgetService resolves which budget governs a scope on a date and manages
// the budget lifecycle.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// DerivePeriod classifies a budget date range into its legacy period label.
// Rules, in order: the wide sentinel range carries no label; an exact
// first-to-last-day month is monthly; an exact Jan 1 to Dec 31 year is
// annual; anything else is a custom range with no label.
func DerivePeriod(start, end time.Time) models.BudgetPeriod {
	start, end = dateOnly(start), dateOnly(end)
	if start.Equal(models.WideRangeStart) && end.Equal(models.WideRangeEnd) {
		return models.BudgetPeriodNone
	}
	if start.Day() == 1 && end.Equal(monthEnd(start)) {
		return models.BudgetPeriodMonthly
	}
	if start.Equal(yearStart(start)) && end.Equal(yearEnd(start)) {
		return models.BudgetPeriodAnnual
	}
	return models.BudgetPeriodNone
}

// ResolveDateRange is the inverse of DerivePeriod. Explicit dates win;
// otherwise the period expands around now; with neither, the wide sentinel
// applies. now is injected so the function stays deterministic in tests.
func ResolveDateRange(period models.BudgetPeriod, explicitStart, explicitEnd *time.Time, now time.Time) (time.Time, time.Time) {
	if explicitStart != nil && explicitEnd != nil {
		return dateOnly(*explicitStart), dateOnly(*explicitEnd)
	}
	switch period {
	case models.BudgetPeriodMonthly:
		return monthStart(now), monthEnd(now)
	case models.BudgetPeriodAnnual:
		return yearStart(now), yearEnd(now)
	}
	return models.WideRangeStart, models.WideRangeEnd
}

// scopeQuery builds the base query for a budget scope. Exactly one of
// category or subcategory must be set.
func (s *budgetService) scopeQuery(userID uint, scope BudgetScope) (*gorm.DB, error) {
	if (scope.CategoryID == nil) == (scope.SubcategoryID == nil) {
		return nil, apperrors.ErrBudgetScope
	}
	q := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if scope.CategoryID != nil {
		q = q.Where("category_id = ?", *scope.CategoryID)
	} else {
		q = q.Where("subcategory_id = ?", *scope.SubcategoryID)
	}
	return q, nil
}

// ActiveBudget returns the single budget governing the scope on the target
// date, or nil when none matches. When ranges overlap, the most recently
// touched row wins: updated_at desc, then created_at desc, then id desc.
func (s *budgetService) ActiveBudget(userID uint, scope BudgetScope, target time.Time) (*models.Budget, error) {
	q, err := s.scopeQuery(userID, scope)
	if err != nil {
		return nil, err
	}

	d := dateOnly(target)
	var budget models.Budget
	err = q.Where("start_date <= ? AND end_date >= ?", d, d).
		Order("updated_at DESC, created_at DESC, id DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// EffectiveBudget applies subcategory-over-category precedence: a budget on
// the subcategory governs when present, otherwise the category budget does.
// With neither, all fields of the result are empty.
func (s *budgetService) EffectiveBudget(userID, categoryID uint, subcategoryID *uint, target time.Time) (*EffectiveBudget, error) {
	if subcategoryID != nil {
		budget, err := s.ActiveBudget(userID, BudgetScope{SubcategoryID: subcategoryID}, target)
		if err != nil {
			return nil, err
		}
		if budget != nil {
			return &EffectiveBudget{
				Amount: &budget.Amount,
				Period: DerivePeriod(budget.StartDate, budget.EndDate),
				Source: "subcategory",
				Budget: budget,
			}, nil
		}
	}

	budget, err := s.ActiveBudget(userID, BudgetScope{CategoryID: &categoryID}, target)
	if err != nil {
		return nil, err
	}
	if budget != nil {
		return &EffectiveBudget{
			Amount: &budget.Amount,
			Period: DerivePeriod(budget.StartDate, budget.EndDate),
			Source: "category",
			Budget: budget,
		}, nil
	}

	return &EffectiveBudget{}, nil
}

// Upsert creates or updates the budget with an exact (scope, start, end)
// match, defaulting omitted dates to the wide sentinel. Only the amount is
// updated on a match; overlapping-but-different ranges create separate rows
// and ActiveBudget's ordering arbitrates between them.
//
// The lookup and the write are two separate statements: concurrent upserts
// for the same scope and range can both miss the lookup and insert
// duplicate rows. Resolution tolerates the duplicates (recency ordering),
// so no uniqueness constraint backs this.
func (s *budgetService) Upsert(userID uint, scope BudgetScope, amount decimal.Decimal, start, end *time.Time) (*models.Budget, error) {
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must not be negative")
	}

	startDate := models.WideRangeStart
	if start != nil {
		startDate = dateOnly(*start)
	}
	endDate := models.WideRangeEnd
	if end != nil {
		endDate = dateOnly(*end)
	}
	if startDate.After(endDate) {
		return nil, apperrors.ErrBudgetRange
	}

	q, err := s.scopeQuery(userID, scope)
	if err != nil {
		return nil, err
	}

	var existing models.Budget
	err = q.Where("start_date = ? AND end_date = ?", startDate, endDate).
		Order("updated_at DESC, created_at DESC, id DESC").
		First(&existing).Error
	if err == nil {
		if err := s.db.Model(&existing).Update("amount", amount).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget := &models.Budget{
		UserID:        &userID,
		CategoryID:    scope.CategoryID,
		SubcategoryID: scope.SubcategoryID,
		Amount:        amount,
		StartDate:     startDate,
		EndDate:       endDate,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// Remove deletes the scope's budgets, optionally narrowed by exact start
// and/or end date equality (not overlap). Returns the number of rows removed.
func (s *budgetService) Remove(userID uint, scope BudgetScope, start, end *time.Time) (int64, error) {
	q, err := s.scopeQuery(userID, scope)
	if err != nil {
		return 0, err
	}
	if start != nil {
		q = q.Where("start_date = ?", dateOnly(*start))
	}
	if end != nil {
		q = q.Where("end_date = ?", dateOnly(*end))
	}

	res := q.Delete(&models.Budget{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// GetUserBudgets returns a paginated list of the user's budgets with
// optional scope filters.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		base = base.Where("subcategory_id = ?", *filter.SubcategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Preload("Subcategory").
		Scopes(pagination.Paginate(page)).
		Order("start_date DESC, id DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}
