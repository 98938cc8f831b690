package services

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for category and subcategory logic.
// Reads include global (unowned) rows alongside the user's own.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
	CreateSubcategory(userID, categoryID uint, name, color string) (*models.Subcategory, error)
	GetSubcategories(userID, categoryID uint) ([]models.Subcategory, error)
	GetSubcategoryByID(userID, subcategoryID uint) (*models.Subcategory, error)
	DeleteSubcategory(userID, subcategoryID uint) error
}

// BudgetScope binds a budget operation to exactly one category or one
// subcategory. Setting both or neither is invalid.
type BudgetScope struct {
	CategoryID    *uint
	SubcategoryID *uint
}

// EffectiveBudget is the single budget governing a category/subcategory
// pair on a date, after subcategory-over-category precedence. All fields
// are nil/empty when nothing governs the scope.
type EffectiveBudget struct {
	Amount *decimal.Decimal    `json:"amount"`
	Period models.BudgetPeriod `json:"period"`
	Source string              `json:"source"` // "subcategory" or "category"
	Budget *models.Budget      `json:"budget"`
}

// BudgetFilter holds optional filters for listing budgets.
type BudgetFilter struct {
	CategoryID    *uint
	SubcategoryID *uint
}

// BudgetServicer defines the contract for budget resolution and lifecycle.
type BudgetServicer interface {
	ActiveBudget(userID uint, scope BudgetScope, target time.Time) (*models.Budget, error)
	EffectiveBudget(userID, categoryID uint, subcategoryID *uint, target time.Time) (*EffectiveBudget, error)
	Upsert(userID uint, scope BudgetScope, amount decimal.Decimal, start, end *time.Time) (*models.Budget, error)
	Remove(userID uint, scope BudgetScope, start, end *time.Time) (int64, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error)
}

// Interval selects the bucket size for spending-over-time series.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// SpendFilter holds the common expense-report filters. From/To are
// inclusive calendar dates.
type SpendFilter struct {
	From          time.Time
	To            time.Time
	CategoryID    *uint
	SubcategoryID *uint
}

// TimeBucket is one point of a spending-over-time series. Bucket is the
// first day of the bucket (day, ISO week, or month) as YYYY-MM-DD.
type TimeBucket struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
}

// CategorySpend is the spend total for one category.
type CategorySpend struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
}

// SubcategorySpend is the de-duplicated spend total for one subcategory.
type SubcategorySpend struct {
	SubcategoryID uint            `json:"subcategory_id"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Amount        decimal.Decimal `json:"amount"`
}

// BudgetVsActualRow compares the monthly-equivalent budget against actual
// spend for one calendar month (YYYY-MM). Months without spending still
// appear with a zero actual.
type BudgetVsActualRow struct {
	Month        string          `json:"month"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
}

// MonthlyCashflow is the per-month income/expense decomposition.
type MonthlyCashflow struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetSavings  decimal.Decimal `json:"net_savings"`
	SavingsRate decimal.Decimal `json:"savings_rate"`
}

// SubcategoryMonthSpend is one (month, subcategory) drill-down row.
type SubcategoryMonthSpend struct {
	Month         string          `json:"month"`
	SubcategoryID uint            `json:"subcategory_id"`
	Subcategory   string          `json:"subcategory"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
}

// IncomeExpenseSummary aggregates income against expenses, with monthly and
// subcategory decompositions.
type IncomeExpenseSummary struct {
	TotalIncome                  decimal.Decimal         `json:"total_income"`
	TotalExpenses                decimal.Decimal         `json:"total_expenses"`
	NetSavings                   decimal.Decimal         `json:"net_savings"`
	SavingsRate                  decimal.Decimal         `json:"savings_rate"`
	IncomeByMonth                []MonthlyCashflow       `json:"income_by_month"`
	ExpensesBySubcategoryByMonth []SubcategoryMonthSpend `json:"expenses_by_subcategory_by_month"`
}

// ReportServicer defines the read-only spend aggregation boundary.
type ReportServicer interface {
	SpendingOverTime(userID uint, f SpendFilter, interval Interval) ([]TimeBucket, error)
	SpendingByCategory(userID uint, f SpendFilter) ([]CategorySpend, error)
	SpendingBySubcategory(userID uint, f SpendFilter) ([]SubcategorySpend, error)
	BudgetVsActual(userID uint, f SpendFilter) ([]BudgetVsActualRow, error)
	IncomeVsExpense(userID uint, from, to *time.Time) (*IncomeExpenseSummary, error)
}

// ItemFilter holds optional filters for line-item reports.
type ItemFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uint
}

// ItemGroup is one "top items" row: all line items sharing a normalized
// name, with the group's modal category attribution.
type ItemGroup struct {
	Name         string          `json:"name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
	ExpenseCount int             `json:"expense_count"`
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Color        string          `json:"color"`
}

// ItemSearchRow is one line-item search hit.
type ItemSearchRow struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	ExpenseID    uint            `json:"expense_id"`
	Date         time.Time       `json:"date"`
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
}

// ItemServicer defines the contract for line-item aggregation.
type ItemServicer interface {
	TopItems(userID uint, f ItemFilter, limit int) ([]ItemGroup, error)
	SearchItems(userID uint, query string, f ItemFilter, page pagination.PageRequest) (*pagination.PageResponse[ItemSearchRow], error)
}

// BudgetReportFilter holds optional filters for pre-aggregated budget
// report rows. From/To select rows whose period overlaps the range.
type BudgetReportFilter struct {
	CategoryID    *uint
	SubcategoryID *uint
	Period        *models.BudgetPeriod
	From          *time.Time
	To            *time.Time
}

// BudgetReportRow reshapes a BudgetReport view row for the response contract.
type BudgetReportRow struct {
	ID               uint                `json:"id"`
	CategoryID       *uint               `json:"category_id,omitempty"`
	SubcategoryID    *uint               `json:"subcategory_id,omitempty"`
	Budget           decimal.Decimal     `json:"budget"`
	Period           models.BudgetPeriod `json:"period"`
	PeriodStart      time.Time           `json:"period_start"`
	PeriodEnd        time.Time           `json:"period_end"`
	Spent            decimal.Decimal     `json:"spent"`
	PercentUsed      decimal.Decimal     `json:"percent_used"`
	Remaining        decimal.Decimal     `json:"remaining"`
	OverBudget       bool                `json:"over_budget"`
	OverBudgetAmount decimal.Decimal     `json:"over_budget_amount"`
}

// BudgetReportServicer reads pre-aggregated budget report rows.
type BudgetReportServicer interface {
	ListBudgetReports(userID uint, f BudgetReportFilter) ([]BudgetReportRow, error)
}

// ExpenseItemInput is the payload for one line item on an expense write.
type ExpenseItemInput struct {
	Name          string
	Amount        decimal.Decimal
	CategoryID    *uint
	SubcategoryID *uint
}

// ExpenseFilter holds optional filters for listing expenses.
type ExpenseFilter struct {
	From          *time.Time
	To            *time.Time
	CategoryID    *uint
	SubcategoryID *uint
}

// ExpenseBudgetStatus reports how an expense's scope stands against its
// effective budget for the period containing the expense.
type ExpenseBudgetStatus struct {
	Effective   *EffectiveBudget `json:"effective"`
	PeriodStart *time.Time       `json:"period_start,omitempty"`
	PeriodEnd   *time.Time       `json:"period_end,omitempty"`
	Spent       decimal.Decimal  `json:"spent"`
	OverBudget  bool             `json:"over_budget"`
}

// ExpenseServicer defines the contract for expense CRUD.
type ExpenseServicer interface {
	CreateExpense(userID, categoryID uint, subcategoryID *uint, amount decimal.Decimal, description string, date time.Time, items []ExpenseItemInput) (*models.Expense, error)
	GetExpenseByID(userID, expenseID uint) (*models.Expense, error)
	GetUserExpenses(userID uint, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(userID, expenseID uint, amount *decimal.Decimal, description *string, date *time.Time, subcategoryID *uint, items []ExpenseItemInput) (*models.Expense, error)
	DeleteExpense(userID, expenseID uint) error
	BudgetStatus(userID, expenseID uint) (*ExpenseBudgetStatus, error)
}

// IncomeServicer defines the contract for income CRUD.
type IncomeServicer interface {
	CreateIncome(userID uint, amount decimal.Decimal, description string, date time.Time) (*models.Income, error)
	GetIncomeByID(userID, incomeID uint) (*models.Income, error)
	GetUserIncomes(userID uint, page pagination.PageRequest, from, to *time.Time) (*pagination.PageResponse[models.Income], error)
	UpdateIncome(userID, incomeID uint, amount *decimal.Decimal, description *string, date *time.Time) (*models.Income, error)
	DeleteIncome(userID, incomeID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
