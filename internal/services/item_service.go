package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

const defaultTopItemsLimit = 10

// itemService aggregates expense line items across expenses.
type itemService struct {
	db *gorm.DB
}

// NewItemService creates a new ItemServicer.
func NewItemService(db *gorm.DB) ItemServicer {
	return &itemService{db: db}
}

// normalizeItemName is the grouping key for item aggregation: items that
// differ only in case or surrounding whitespace are the same item.
func normalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type itemRow struct {
	Name       string
	Amount     decimal.Decimal
	ExpenseID  uint
	CategoryID uint
}

// TopItems groups the user's line items by normalized name and returns the
// biggest groups by total spend. Each group is attributed to its modal
// category: the category (item-level, falling back to the parent expense's)
// that the most items in the group carry.
func (s *itemService) TopItems(userID uint, f ItemFilter, limit int) ([]ItemGroup, error) {
	if limit <= 0 {
		limit = defaultTopItemsLimit
	}

	var rows []itemRow
	q := s.db.Table("expense_items").
		Select("expense_items.name, expense_items.amount, expense_items.expense_id, COALESCE(expense_items.category_id, expenses.category_id) AS category_id").
		Joins("JOIN expenses ON expenses.id = expense_items.expense_id").
		Where("expense_items.deleted_at IS NULL").
		Where("expenses.deleted_at IS NULL").
		Where("expenses.user_id = ?", userID)
	q = applyDateBounds(q, "expenses.date", f.From, f.To)
	if f.CategoryID != nil {
		q = q.Where("COALESCE(expense_items.category_id, expenses.category_id) = ?", *f.CategoryID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type acc struct {
		name          string
		total         decimal.Decimal
		itemCount     int
		expenseIDs    map[uint]struct{}
		categoryCount map[uint]int
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		key := normalizeItemName(r.Name)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{
				name:          key,
				expenseIDs:    make(map[uint]struct{}),
				categoryCount: make(map[uint]int),
			}
			groups[key] = g
		}
		g.total = g.total.Add(r.Amount)
		g.itemCount++
		g.expenseIDs[r.ExpenseID] = struct{}{}
		g.categoryCount[r.CategoryID]++
	}

	result := make([]ItemGroup, 0, len(groups))
	categoryIDs := make(map[uint]struct{})
	for _, g := range groups {
		modal := modalCategory(g.categoryCount)
		categoryIDs[modal] = struct{}{}
		result = append(result, ItemGroup{
			Name:         g.name,
			TotalAmount:  g.total,
			ItemCount:    g.itemCount,
			ExpenseCount: len(g.expenseIDs),
			CategoryID:   modal,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TotalAmount.Equal(result[j].TotalAmount) {
			return result[i].TotalAmount.GreaterThan(result[j].TotalAmount)
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > limit {
		result = result[:limit]
	}

	ids := make([]uint, 0, len(categoryIDs))
	for id := range categoryIDs {
		ids = append(ids, id)
	}
	var categories []models.Category
	if len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	byID := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for i := range result {
		if c, ok := byID[result[i].CategoryID]; ok {
			result[i].CategoryName = c.Name
			result[i].Color = c.Color
		}
	}
	return result, nil
}

// modalCategory picks the most frequent category; ties break to the lowest
// category id so attribution is stable across runs.
func modalCategory(counts map[uint]int) uint {
	var winner uint
	best := -1
	for id, n := range counts {
		if n > best || (n == best && id < winner) {
			winner = id
			best = n
		}
	}
	return winner
}

// SearchItems finds line items by case-insensitive substring match on the
// name, newest expense first.
func (s *itemService) SearchItems(userID uint, query string, f ItemFilter, page pagination.PageRequest) (*pagination.PageResponse[ItemSearchRow], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "search query must not be empty")
	}
	page.Defaults()

	base := s.db.Table("expense_items").
		Joins("JOIN expenses ON expenses.id = expense_items.expense_id").
		Where("expense_items.deleted_at IS NULL").
		Where("expenses.deleted_at IS NULL").
		Where("expenses.user_id = ?", userID).
		Where("LOWER(expense_items.name) LIKE ?", "%"+strings.ToLower(query)+"%")
	base = applyDateBounds(base, "expenses.date", f.From, f.To)
	if f.CategoryID != nil {
		base = base.Where("COALESCE(expense_items.category_id, expenses.category_id) = ?", *f.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []ItemSearchRow
	err := base.
		Select("expense_items.id, expense_items.name, expense_items.amount, expense_items.expense_id, expenses.date, COALESCE(expense_items.category_id, expenses.category_id) AS category_id").
		Order("expenses.date DESC, expense_items.created_at DESC, expense_items.id DESC").
		Scopes(pagination.Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]struct{})
	for _, r := range rows {
		if _, ok := seen[r.CategoryID]; !ok {
			seen[r.CategoryID] = struct{}{}
			ids = append(ids, r.CategoryID)
		}
	}
	if len(ids) > 0 {
		var categories []models.Category
		if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		byID := make(map[uint]string, len(categories))
		for _, c := range categories {
			byID[c.ID] = c.Name
		}
		for i := range rows {
			rows[i].CategoryName = byID[rows[i].CategoryID]
		}
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}
