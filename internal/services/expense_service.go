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

// expenseService handles expense-related business logic, including the
// expense's optional line items.
type expenseService struct {
	db              *gorm.DB
	categoryService CategoryServicer
	budgetService   BudgetServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, categoryService CategoryServicer, budgetService BudgetServicer) ExpenseServicer {
	return &expenseService{
		db:              db,
		categoryService: categoryService,
		budgetService:   budgetService,
	}
}

// validateScope checks that the category is visible to the user and, when a
// subcategory is given, that it belongs to that category.
func (s *expenseService) validateScope(userID, categoryID uint, subcategoryID *uint) error {
	if _, err := s.categoryService.GetCategoryByID(userID, categoryID); err != nil {
		return err
	}
	if subcategoryID != nil {
		subcategory, err := s.categoryService.GetSubcategoryByID(userID, *subcategoryID)
		if err != nil {
			return err
		}
		if subcategory.CategoryID != categoryID {
			return apperrors.ErrSubcategoryMismatch
		}
	}
	return nil
}

// CreateExpense creates an expense and its line items in one transaction.
// Items without their own category/subcategory inherit the parent's at
// read time, so unset item fields stay null here.
func (s *expenseService) CreateExpense(userID, categoryID uint, subcategoryID *uint, amount decimal.Decimal, description string, date time.Time, items []ExpenseItemInput) (*models.Expense, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := s.validateScope(userID, categoryID, subcategoryID); err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item name is required")
		}
		if item.Amount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item amount must not be negative")
		}
	}

	if date.IsZero() {
		date = time.Now()
	}

	expense := &models.Expense{
		UserID:        userID,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Amount:        amount,
		Description:   description,
		Date:          dateOnly(date),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, input := range items {
			item := models.ExpenseItem{
				ExpenseID:     expense.ID,
				Name:          input.Name,
				Amount:        input.Amount,
				CategoryID:    input.CategoryID,
				SubcategoryID: input.SubcategoryID,
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			expense.Items = append(expense.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// GetExpenseByID retrieves an expense with its items for a specific user.
func (s *expenseService) GetExpenseByID(userID, expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.Preload("Items").Preload("Category").Preload("Subcategory").
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// GetUserExpenses retrieves a paginated, filtered list of the user's
// expenses, newest first.
func (s *expenseService) GetUserExpenses(userID uint, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	base = applyDateBounds(base, "date", filter.From, filter.To)
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

	var expenses []models.Expense
	if err := base.Preload("Items").Preload("Category").Preload("Subcategory").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateExpense applies a partial update. A non-nil items slice replaces
// the expense's line items wholesale; nil leaves them untouched.
func (s *expenseService) UpdateExpense(userID, expenseID uint, amount *decimal.Decimal, description *string, date *time.Time, subcategoryID *uint, items []ExpenseItemInput) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if subcategoryID != nil {
		if err := s.validateScope(userID, expense.CategoryID, subcategoryID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if amount != nil {
		updates["amount"] = *amount
	}
	if description != nil {
		updates["description"] = *description
	}
	if date != nil {
		updates["date"] = dateOnly(*date)
	}
	if subcategoryID != nil {
		updates["subcategory_id"] = *subcategoryID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(expense).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if items != nil {
			if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseItem{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			for _, input := range items {
				if input.Name == "" {
					return apperrors.WithMessage(apperrors.ErrInvalidInput, "item name is required")
				}
				item := models.ExpenseItem{
					ExpenseID:     expense.ID,
					Name:          input.Name,
					Amount:        input.Amount,
					CategoryID:    input.CategoryID,
					SubcategoryID: input.SubcategoryID,
				}
				if err := tx.Create(&item).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetExpenseByID(userID, expenseID)
}

// DeleteExpense soft-deletes an expense and its line items, so both drop
// out of every aggregation together.
func (s *expenseService) DeleteExpense(userID, expenseID uint) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// BudgetStatus reports how the expense's scope stands against the budget
// governing it on the expense date. The comparison window is the derived
// period containing the date; a wide-range or custom budget falls back to
// the expense's calendar month so the figure stays a period spend, not an
// all-time one.
func (s *expenseService) BudgetStatus(userID, expenseID uint) (*ExpenseBudgetStatus, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	effective, err := s.budgetService.EffectiveBudget(userID, expense.CategoryID, expense.SubcategoryID, expense.Date)
	if err != nil {
		return nil, err
	}
	status := &ExpenseBudgetStatus{Effective: effective, Spent: decimal.Zero}
	if effective.Budget == nil {
		return status, nil
	}

	var periodStart, periodEnd time.Time
	switch effective.Period {
	case models.BudgetPeriodMonthly:
		periodStart, periodEnd = monthStart(expense.Date), monthEnd(expense.Date)
	case models.BudgetPeriodAnnual:
		periodStart, periodEnd = yearStart(expense.Date), yearEnd(expense.Date)
	default:
		if effective.Budget.IsWideRange() {
			periodStart, periodEnd = monthStart(expense.Date), monthEnd(expense.Date)
		} else {
			periodStart, periodEnd = effective.Budget.StartDate, effective.Budget.EndDate
		}
	}
	status.PeriodStart, status.PeriodEnd = &periodStart, &periodEnd

	q := s.db.Model(&models.Expense{}).
		Where("user_id = ?", userID).
		Where("date >= ? AND date < ?", periodStart, nextDay(periodEnd))
	if effective.Source == "subcategory" {
		q = q.Where("subcategory_id = ?", *expense.SubcategoryID)
	} else {
		q = q.Where("category_id = ?", expense.CategoryID)
	}

	var rows []dateAmountRow
	if err := q.Select("date, amount").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, r := range rows {
		status.Spent = status.Spent.Add(r.Amount)
	}
	status.OverBudget = status.Spent.GreaterThan(*effective.Amount)
	return status, nil
}
