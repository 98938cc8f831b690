package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date builds a UTC midnight date, the form every fixture and service uses.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Amount parses a decimal amount literal, failing the test on bad input.
func Amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", value, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a user-owned category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestGlobalCategory creates a category visible to all users.
func CreateTestGlobalCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name: fmt.Sprintf("Global Category %d", nextID()),
		Type: categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create global test category: %v", err)
	}
	return category
}

// CreateTestSubcategory creates a user-owned subcategory under a category.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, userID, categoryID uint) *models.Subcategory {
	t.Helper()

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		UserID:     &userID,
		Name:       fmt.Sprintf("Test Subcategory %d", nextID()),
	}
	if err := db.Create(subcategory).Error; err != nil {
		t.Fatalf("failed to create test subcategory: %v", err)
	}
	return subcategory
}

// CreateTestExpense creates an expense on the given date.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID uint, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     Amount(t, amount),
		Date:       date,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestExpenseWithSubcategory creates an expense assigned directly to a
// subcategory.
func CreateTestExpenseWithSubcategory(t *testing.T, db *gorm.DB, userID, categoryID, subcategoryID uint, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:        userID,
		CategoryID:    categoryID,
		SubcategoryID: &subcategoryID,
		Amount:        Amount(t, amount),
		Date:          date,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestExpenseItem creates a line item on an expense. subcategoryID may
// be nil for an item inheriting the parent expense's assignment.
func CreateTestExpenseItem(t *testing.T, db *gorm.DB, expenseID uint, name, amount string, subcategoryID *uint) *models.ExpenseItem {
	t.Helper()

	item := &models.ExpenseItem{
		ExpenseID:     expenseID,
		Name:          name,
		Amount:        Amount(t, amount),
		SubcategoryID: subcategoryID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test expense item: %v", err)
	}
	return item
}

// CreateTestIncome creates an income on the given date.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID uint, amount string, date time.Time) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID: userID,
		Amount: Amount(t, amount),
		Date:   date,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestCategoryBudget creates a budget scoped to a category with the
// given date range.
func CreateTestCategoryBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, amount string, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     &userID,
		CategoryID: &categoryID,
		Amount:     Amount(t, amount),
		StartDate:  start,
		EndDate:    end,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test category budget: %v", err)
	}
	return budget
}

// CreateTestSubcategoryBudget creates a budget scoped to a subcategory with
// the given date range.
func CreateTestSubcategoryBudget(t *testing.T, db *gorm.DB, userID, subcategoryID uint, amount string, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:        &userID,
		SubcategoryID: &subcategoryID,
		Amount:        Amount(t, amount),
		StartDate:     start,
		EndDate:       end,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test subcategory budget: %v", err)
	}
	return budget
}
