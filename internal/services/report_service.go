package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

var twelve = decimal.NewFromInt(12)
var hundred = decimal.NewFromInt(100)

// reportService aggregates expenses, items and incomes into read-only
// reports. Rows are filtered in SQL; money arithmetic and bucketing happen
// in Go so amounts never pass through float64.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// applyExpenseFilters narrows a query over the expenses table to the user,
// the inclusive date range, and the optional category/subcategory. Filters
// compose as typed Where clauses, one per optional parameter.
func applyExpenseFilters(q *gorm.DB, userID uint, f SpendFilter) *gorm.DB {
	q = q.Where("expenses.user_id = ?", userID).
		Where("expenses.date >= ? AND expenses.date < ?", dateOnly(f.From), nextDay(f.To))
	if f.CategoryID != nil {
		q = q.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.SubcategoryID != nil {
		q = q.Where("expenses.subcategory_id = ?", *f.SubcategoryID)
	}
	return q
}

type dateAmountRow struct {
	Date   time.Time
	Amount decimal.Decimal
}

type scopeAmountRow struct {
	ScopeID uint
	Amount  decimal.Decimal
}

func (s *reportService) expenseRows(userID uint, f SpendFilter) ([]dateAmountRow, error) {
	var rows []dateAmountRow
	q := s.db.Model(&models.Expense{}).Select("expenses.date, expenses.amount")
	q = applyExpenseFilters(q, userID, f)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// SpendingOverTime buckets expense amounts by day, ISO week, or calendar
// month. Only buckets with at least one expense appear, ordered ascending.
func (s *reportService) SpendingOverTime(userID uint, f SpendFilter, interval Interval) ([]TimeBucket, error) {
	if interval != IntervalDay && interval != IntervalWeek && interval != IntervalMonth {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval must be day, week or month")
	}

	rows, err := s.expenseRows(userID, f)
	if err != nil {
		return nil, err
	}

	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range rows {
		var b time.Time
		switch interval {
		case IntervalWeek:
			b = weekStart(r.Date)
		case IntervalMonth:
			b = monthStart(r.Date)
		default:
			b = dateOnly(r.Date)
		}
		sums[b] = sums[b].Add(r.Amount)
	}

	buckets := make([]time.Time, 0, len(sums))
	for b := range sums {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	series := make([]TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, TimeBucket{Bucket: b.Format("2006-01-02"), Amount: sums[b]})
	}
	return series, nil
}

// SpendingByCategory sums matching expenses per category, largest first.
func (s *reportService) SpendingByCategory(userID uint, f SpendFilter) ([]CategorySpend, error) {
	var rows []scopeAmountRow
	q := s.db.Model(&models.Expense{}).Select("expenses.category_id AS scope_id, expenses.amount")
	q = applyExpenseFilters(q, userID, f)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := sumByScope(rows)
	categories, err := s.categoryNames(keysOf(totals))
	if err != nil {
		return nil, err
	}

	result := make([]CategorySpend, 0, len(totals))
	for id, amount := range totals {
		row := CategorySpend{CategoryID: id, Amount: amount}
		if c, ok := categories[id]; ok {
			row.Name = c.Name
			row.Color = c.Color
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].CategoryID < result[j].CategoryID
	})
	return result, nil
}

// SpendingBySubcategory totals subcategory spend recorded at either
// granularity. Two queries feed a union: line items explicitly assigned to
// a subcategory, and expenses directly assigned to one. An expense that
// also carries a live item with the same subcategory is already counted at
// item granularity, so a correlated existence guard drops it from the
// second query. The guard is per subcategory, not per expense: an expense
// whose items cover other subcategories still counts directly.
func (s *reportService) SpendingBySubcategory(userID uint, f SpendFilter) ([]SubcategorySpend, error) {
	shared := f
	shared.SubcategoryID = nil

	var itemRows []scopeAmountRow
	itemQ := s.db.Table("expense_items").
		Select("expense_items.subcategory_id AS scope_id, expense_items.amount").
		Joins("JOIN expenses ON expenses.id = expense_items.expense_id").
		Where("expense_items.deleted_at IS NULL").
		Where("expenses.deleted_at IS NULL").
		Where("expense_items.subcategory_id IS NOT NULL")
	itemQ = applyExpenseFilters(itemQ, userID, shared)
	if f.SubcategoryID != nil {
		itemQ = itemQ.Where("expense_items.subcategory_id = ?", *f.SubcategoryID)
	}
	if err := itemQ.Scan(&itemRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenseRows []scopeAmountRow
	expQ := s.db.Table("expenses").
		Select("expenses.subcategory_id AS scope_id, expenses.amount").
		Where("expenses.deleted_at IS NULL").
		Where("expenses.subcategory_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM expense_items WHERE expense_items.expense_id = expenses.id AND expense_items.subcategory_id = expenses.subcategory_id AND expense_items.deleted_at IS NULL)")
	expQ = applyExpenseFilters(expQ, userID, shared)
	if f.SubcategoryID != nil {
		expQ = expQ.Where("expenses.subcategory_id = ?", *f.SubcategoryID)
	}
	if err := expQ.Scan(&expenseRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := sumByScope(append(itemRows, expenseRows...))
	subcategories, err := s.subcategoryNames(keysOf(totals))
	if err != nil {
		return nil, err
	}

	result := make([]SubcategorySpend, 0, len(totals))
	for id, amount := range totals {
		row := SubcategorySpend{SubcategoryID: id, Amount: amount}
		if sc, ok := subcategories[id]; ok {
			row.Name = sc.Name
			row.Color = sc.Color
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].SubcategoryID < result[j].SubcategoryID
	})
	return result, nil
}

// BudgetVsActual emits one row per calendar month from the range start to
// the range end, zero-filled: months without spending still appear. The
// budget side is a single monthly-equivalent amount resolved once for the
// whole range (subcategory budgets win over category budgets; annual
// amounts are amortized by twelve).
func (s *reportService) BudgetVsActual(userID uint, f SpendFilter) ([]BudgetVsActualRow, error) {
	budgetAmount, err := s.monthlyBudgetAmount(userID, f)
	if err != nil {
		return nil, err
	}

	rows, err := s.expenseRows(userID, f)
	if err != nil {
		return nil, err
	}
	actuals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		k := monthKey(r.Date)
		actuals[k] = actuals[k].Add(r.Amount)
	}

	var result []BudgetVsActualRow
	last := monthStart(f.To)
	for m := monthStart(f.From); !m.After(last); m = m.AddDate(0, 1, 0) {
		result = append(result, BudgetVsActualRow{
			Month:        monthKey(m),
			BudgetAmount: budgetAmount,
			ActualAmount: actuals[monthKey(m)],
		})
	}
	return result, nil
}

// monthlyBudgetAmount resolves the constant budget side of the comparison.
// Precedence: the sum of active subcategory budgets in scope when non-zero,
// else the sum of active category budgets in scope, else zero. "Active" is
// resolved at the range end date, one winner per scope by recency, so
// overlapping rows never amortize twice.
func (s *reportService) monthlyBudgetAmount(userID uint, f SpendFilter) (decimal.Decimal, error) {
	ref := dateOnly(f.To)

	subQ := s.db.Model(&models.Budget{}).
		Where("user_id = ?", userID).
		Where("subcategory_id IS NOT NULL").
		Where("start_date <= ? AND end_date >= ?", ref, ref)
	if f.SubcategoryID != nil {
		subQ = subQ.Where("subcategory_id = ?", *f.SubcategoryID)
	} else if f.CategoryID != nil {
		subQ = subQ.Where("subcategory_id IN (?)",
			s.db.Model(&models.Subcategory{}).Select("id").Where("category_id = ?", *f.CategoryID))
	}
	var subBudgets []models.Budget
	if err := subQ.Find(&subBudgets).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := sumMonthlyEquivalents(subBudgets, func(b models.Budget) uint { return *b.SubcategoryID })
	if total.IsPositive() {
		return total, nil
	}

	catQ := s.db.Model(&models.Budget{}).
		Where("user_id = ?", userID).
		Where("category_id IS NOT NULL").
		Where("start_date <= ? AND end_date >= ?", ref, ref)
	if f.CategoryID != nil {
		catQ = catQ.Where("category_id = ?", *f.CategoryID)
	} else if f.SubcategoryID != nil {
		// No subcategory budget matched; fall back to the budget of the
		// subcategory's parent category.
		catQ = catQ.Where("category_id IN (?)",
			s.db.Model(&models.Subcategory{}).Select("category_id").Where("id = ?", *f.SubcategoryID))
	}
	var catBudgets []models.Budget
	if err := catQ.Find(&catBudgets).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total = sumMonthlyEquivalents(catBudgets, func(b models.Budget) uint { return *b.CategoryID })
	if total.IsPositive() {
		return total, nil
	}
	return decimal.Zero, nil
}

// sumMonthlyEquivalents keeps one winner per scope (recency order) and sums
// their monthly-equivalent amounts.
func sumMonthlyEquivalents(budgets []models.Budget, scopeOf func(models.Budget) uint) decimal.Decimal {
	winners := make(map[uint]models.Budget)
	for _, b := range budgets {
		k := scopeOf(b)
		cur, ok := winners[k]
		if !ok || moreRecent(b, cur) {
			winners[k] = b
		}
	}
	total := decimal.Zero
	for _, b := range winners {
		total = total.Add(monthlyEquivalent(b))
	}
	return total
}

// moreRecent mirrors ActiveBudget's ordering in Go.
func moreRecent(a, b models.Budget) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// monthlyEquivalent amortizes annual budgets over twelve months; monthly
// and recurring budgets already are monthly figures.
func monthlyEquivalent(b models.Budget) decimal.Decimal {
	if DerivePeriod(b.StartDate, b.EndDate) == models.BudgetPeriodAnnual {
		return b.Amount.Div(twelve)
	}
	return b.Amount
}

// IncomeVsExpense summarizes income against expenses. The date range is
// optional on both sides; with neither, the whole history counts. The
// monthly breakdown covers the union of months with any income or expense
// activity, coalescing the absent side to zero.
func (s *reportService) IncomeVsExpense(userID uint, from, to *time.Time) (*IncomeExpenseSummary, error) {
	incomeRows, err := s.dateAmounts(&models.Income{}, "incomes", userID, from, to)
	if err != nil {
		return nil, err
	}
	expenseRows, err := s.dateAmounts(&models.Expense{}, "expenses", userID, from, to)
	if err != nil {
		return nil, err
	}

	totalIncome := decimal.Zero
	incomeByMonth := make(map[string]decimal.Decimal)
	for _, r := range incomeRows {
		totalIncome = totalIncome.Add(r.Amount)
		k := monthKey(r.Date)
		incomeByMonth[k] = incomeByMonth[k].Add(r.Amount)
	}
	totalExpenses := decimal.Zero
	expensesByMonth := make(map[string]decimal.Decimal)
	for _, r := range expenseRows {
		totalExpenses = totalExpenses.Add(r.Amount)
		k := monthKey(r.Date)
		expensesByMonth[k] = expensesByMonth[k].Add(r.Amount)
	}

	months := make(map[string]struct{})
	for k := range incomeByMonth {
		months[k] = struct{}{}
	}
	for k := range expensesByMonth {
		months[k] = struct{}{}
	}
	monthKeys := make([]string, 0, len(months))
	for k := range months {
		monthKeys = append(monthKeys, k)
	}
	sort.Strings(monthKeys)

	monthly := make([]MonthlyCashflow, 0, len(monthKeys))
	for _, k := range monthKeys {
		income := incomeByMonth[k]
		expenses := expensesByMonth[k]
		net := income.Sub(expenses)
		monthly = append(monthly, MonthlyCashflow{
			Month:       k,
			Income:      income,
			Expenses:    expenses,
			NetSavings:  net,
			SavingsRate: savingsRate(net, income),
		})
	}

	drilldown, err := s.subcategoryByMonth(userID, from, to)
	if err != nil {
		return nil, err
	}

	net := totalIncome.Sub(totalExpenses)
	return &IncomeExpenseSummary{
		TotalIncome:                  totalIncome,
		TotalExpenses:                totalExpenses,
		NetSavings:                   net,
		SavingsRate:                  savingsRate(net, totalIncome),
		IncomeByMonth:                monthly,
		ExpensesBySubcategoryByMonth: drilldown,
	}, nil
}

// savingsRate guards the division: a rate of zero, never NaN or infinity,
// when there is no income.
func savingsRate(net, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return net.Div(income).Mul(hundred)
}

// subcategoryByMonth produces the (month, subcategory) drill-down rows. It
// reads item-level assignments falling back to the parent expense's
// subcategory, plus expenses without any live items; no union
// de-duplication applies here.
func (s *reportService) subcategoryByMonth(userID uint, from, to *time.Time) ([]SubcategoryMonthSpend, error) {
	type row struct {
		Date    time.Time
		ScopeID uint
		Amount  decimal.Decimal
	}

	var itemRows []row
	itemQ := s.db.Table("expense_items").
		Select("expenses.date, COALESCE(expense_items.subcategory_id, expenses.subcategory_id) AS scope_id, expense_items.amount").
		Joins("JOIN expenses ON expenses.id = expense_items.expense_id").
		Where("expense_items.deleted_at IS NULL").
		Where("expenses.deleted_at IS NULL").
		Where("expenses.user_id = ?", userID).
		Where("COALESCE(expense_items.subcategory_id, expenses.subcategory_id) IS NOT NULL")
	itemQ = applyDateBounds(itemQ, "expenses.date", from, to)
	if err := itemQ.Scan(&itemRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenseRows []row
	expQ := s.db.Table("expenses").
		Select("expenses.date, expenses.subcategory_id AS scope_id, expenses.amount").
		Where("expenses.deleted_at IS NULL").
		Where("expenses.user_id = ?", userID).
		Where("expenses.subcategory_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM expense_items WHERE expense_items.expense_id = expenses.id AND expense_items.deleted_at IS NULL)")
	expQ = applyDateBounds(expQ, "expenses.date", from, to)
	if err := expQ.Scan(&expenseRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type key struct {
		month   string
		scopeID uint
	}
	totals := make(map[key]decimal.Decimal)
	for _, r := range append(itemRows, expenseRows...) {
		k := key{month: monthKey(r.Date), scopeID: r.ScopeID}
		totals[k] = totals[k].Add(r.Amount)
	}

	ids := make([]uint, 0, len(totals))
	seen := make(map[uint]struct{})
	for k := range totals {
		if _, ok := seen[k.scopeID]; !ok {
			seen[k.scopeID] = struct{}{}
			ids = append(ids, k.scopeID)
		}
	}
	subcategories, err := s.subcategoryNames(ids)
	if err != nil {
		return nil, err
	}

	result := make([]SubcategoryMonthSpend, 0, len(totals))
	for k, amount := range totals {
		row := SubcategoryMonthSpend{Month: k.month, SubcategoryID: k.scopeID, Amount: amount}
		if sc, ok := subcategories[k.scopeID]; ok {
			row.Subcategory = sc.Name
			row.Category = sc.Category.Name
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Month != result[j].Month {
			return result[i].Month > result[j].Month
		}
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].SubcategoryID < result[j].SubcategoryID
	})
	return result, nil
}

// dateAmounts fetches (date, amount) rows for a soft-deletable model with
// optional inclusive date bounds.
func (s *reportService) dateAmounts(model interface{}, table string, userID uint, from, to *time.Time) ([]dateAmountRow, error) {
	var rows []dateAmountRow
	q := s.db.Model(model).
		Select(table+".date, "+table+".amount").
		Where(table+".user_id = ?", userID)
	q = applyDateBounds(q, table+".date", from, to)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

func applyDateBounds(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", dateOnly(*from))
	}
	if to != nil {
		q = q.Where(column+" < ?", nextDay(*to))
	}
	return q
}

func sumByScope(rows []scopeAmountRow) map[uint]decimal.Decimal {
	totals := make(map[uint]decimal.Decimal)
	for _, r := range rows {
		totals[r.ScopeID] = totals[r.ScopeID].Add(r.Amount)
	}
	return totals
}

func keysOf(m map[uint]decimal.Decimal) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func (s *reportService) categoryNames(ids []uint) (map[uint]models.Category, error) {
	result := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var categories []models.Category
	if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range categories {
		result[c.ID] = c
	}
	return result, nil
}

func (s *reportService) subcategoryNames(ids []uint) (map[uint]models.Subcategory, error) {
	result := make(map[uint]models.Subcategory, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var subcategories []models.Subcategory
	if err := s.db.Preload("Category").Where("id IN ?", ids).Find(&subcategories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, sc := range subcategories {
		result[sc.ID] = sc
	}
	return result, nil
}
