package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category groups expenses. A nil UserID marks a global category shared by
// all users; otherwise the category belongs to a single user.
type Category struct {
	Base
	UserID      *uint        `gorm:"index" json:"user_id,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null;default:expense" json:"type"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Icon        string       `json:"icon"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
	Budgets       []Budget      `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}
