package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// categoryService handles category and subcategory business logic. Global
// categories (nil user) are visible to everyone but only mutable through
// migrations; user-owned rows are private.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleCategories scopes a query to the user's own rows plus global rows.
func (s *categoryService) visibleCategories(userID uint) *gorm.DB {
	return s.db.Model(&models.Category{}).Where("user_id = ? OR user_id IS NULL", userID)
}

// CreateCategory creates a user-owned category.
func (s *categoryService) CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	category := &models.Category{
		UserID:      &userID,
		Name:        name,
		Type:        categoryType,
		Description: description,
		Icon:        icon,
		Color:       color,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories returns a paginated list of categories visible to the user.
func (s *categoryService) GetCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.visibleCategories(userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Preload("Subcategories").
		Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category visible to the user.
func (s *categoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := s.visibleCategories(userID).
		Preload("Subcategories").
		Where("id = ?", categoryID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a user-owned category. Global categories are not
// editable.
func (s *categoryService) UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if name = strings.TrimSpace(name); name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if len(updates) > 0 {
		if err := s.db.Model(&category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &category, nil
}

// DeleteCategory removes a user-owned category that no expense or budget
// still references.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var inUse int64
	if err := s.db.Model(&models.Expense{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse == 0 {
		if err := s.db.Model(&models.Budget{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", categoryID).Delete(&models.Subcategory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CreateSubcategory creates a subcategory under a category visible to the
// user. The subcategory itself is always user-owned, even under a global
// category.
func (s *categoryService) CreateSubcategory(userID, categoryID uint, name, color string) (*models.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory name is required")
	}
	if _, err := s.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		UserID:     &userID,
		Name:       name,
		Color:      color,
	}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subcategory, nil
}

// GetSubcategories lists the subcategories of a category visible to the
// user, including global ones.
func (s *categoryService) GetSubcategories(userID, categoryID uint) ([]models.Subcategory, error) {
	if _, err := s.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}

	var subcategories []models.Subcategory
	err := s.db.Where("category_id = ?", categoryID).
		Where("user_id = ? OR user_id IS NULL", userID).
		Order("name ASC").
		Find(&subcategories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subcategories, nil
}

// GetSubcategoryByID retrieves a subcategory visible to the user.
func (s *categoryService) GetSubcategoryByID(userID, subcategoryID uint) (*models.Subcategory, error) {
	var subcategory models.Subcategory
	err := s.db.Preload("Category").
		Where("id = ?", subcategoryID).
		Where("user_id = ? OR user_id IS NULL", userID).
		First(&subcategory).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subcategory, nil
}

// DeleteSubcategory removes a user-owned subcategory that no expense, item,
// or budget still references.
func (s *categoryService) DeleteSubcategory(userID, subcategoryID uint) error {
	var subcategory models.Subcategory
	err := s.db.Where("id = ? AND user_id = ?", subcategoryID, userID).First(&subcategory).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSubcategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var inUse int64
	if err := s.db.Model(&models.Expense{}).Where("subcategory_id = ?", subcategoryID).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse == 0 {
		if err := s.db.Model(&models.ExpenseItem{}).Where("subcategory_id = ?", subcategoryID).Count(&inUse).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if inUse == 0 {
		if err := s.db.Model(&models.Budget{}).Where("subcategory_id = ?", subcategoryID).Count(&inUse).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(&subcategory).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
