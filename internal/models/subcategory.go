package models

// Subcategory refines a category. Like categories, a nil UserID marks a
// global subcategory.
type Subcategory struct {
	Base
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	UserID     *uint  `gorm:"index" json:"user_id,omitempty"`
	Name       string `gorm:"not null" json:"name"`
	Color      string `json:"color"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Budgets  []Budget `gorm:"foreignKey:SubcategoryID" json:"budgets,omitempty"`
}
