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

// incomeService handles income-related business logic.
type incomeService struct {
	db *gorm.DB
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB) IncomeServicer {
	return &incomeService{db: db}
}

// CreateIncome records an income for a user.
func (s *incomeService) CreateIncome(userID uint, amount decimal.Decimal, description string, date time.Time) (*models.Income, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	income := &models.Income{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Date:        dateOnly(date),
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// GetIncomeByID retrieves an income by ID for a specific user.
func (s *incomeService) GetIncomeByID(userID, incomeID uint) (*models.Income, error) {
	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// GetUserIncomes retrieves a paginated list of the user's incomes, newest
// first, with an optional inclusive date range.
func (s *incomeService) GetUserIncomes(userID uint, page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	base := s.db.Model(&models.Income{}).Where("user_id = ?", userID)
	base = applyDateBounds(base, "date", from, to)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateIncome applies a partial update to an income.
func (s *incomeService) UpdateIncome(userID, incomeID uint, amount *decimal.Decimal, description *string, date *time.Time) (*models.Income, error) {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return nil, err
	}

	if amount != nil && !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
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
	if len(updates) > 0 {
		if err := s.db.Model(income).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return income, nil
}

// DeleteIncome soft-deletes an income.
func (s *incomeService) DeleteIncome(userID, incomeID uint) error {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(income).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
