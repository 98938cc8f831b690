package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"spendwise/internal/models"
	"spendwise/internal/testutil"
)

// seedBudgetReport inserts a precomputed report row. In production the
// budget_reports relation is a database view; under the test schema it is a
// plain table, so rows can be written directly.
func seedBudgetReport(t *testing.T, db *gorm.DB, report *models.BudgetReport) *models.BudgetReport {
	t.Helper()
	if err := db.Create(report).Error; err != nil {
		t.Fatalf("failed to seed budget report: %v", err)
	}
	return report
}

func TestListBudgetReports(t *testing.T) {
	t.Run("returns_rows_newest_period_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetReportService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		february := seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       user.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "500"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.February, 1),
			PeriodEnd:    testutil.Date(2024, time.February, 29),
			TotalSpent:   testutil.Amount(t, "200"),
		})
		march := seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       user.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "500"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.March, 1),
			PeriodEnd:    testutil.Date(2024, time.March, 31),
			TotalSpent:   testutil.Amount(t, "600"),
			IsOverBudget: true,
		})

		rows, err := svc.ListBudgetReports(user.ID, BudgetReportFilter{})
		testutil.AssertNoError(t, err)

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].ID != march.ID || rows[1].ID != february.ID {
			t.Errorf("order = [%d, %d], want newest period first [%d, %d]",
				rows[0].ID, rows[1].ID, march.ID, february.ID)
		}
		if !rows[0].OverBudget {
			t.Error("expected march row to be flagged over budget")
		}
		if !rows[0].Spent.Equal(testutil.Amount(t, "600")) {
			t.Errorf("spent = %s, want 600", rows[0].Spent)
		}
	})

	t.Run("filters_by_scope_and_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetReportService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		sub := testutil.CreateTestSubcategory(t, db, user.ID, cat.ID)

		seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       user.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "500"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.March, 1),
			PeriodEnd:    testutil.Date(2024, time.March, 31),
		})
		subRow := seedBudgetReport(t, db, &models.BudgetReport{
			UserID:        user.ID,
			SubcategoryID: &sub.ID,
			BudgetAmount:  testutil.Amount(t, "1200"),
			Period:        models.BudgetPeriodAnnual,
			PeriodStart:   testutil.Date(2024, time.January, 1),
			PeriodEnd:     testutil.Date(2024, time.December, 31),
		})

		rows, err := svc.ListBudgetReports(user.ID, BudgetReportFilter{SubcategoryID: &sub.ID})
		testutil.AssertNoError(t, err)
		if len(rows) != 1 || rows[0].ID != subRow.ID {
			t.Fatalf("expected only the subcategory row, got %+v", rows)
		}

		annual := models.BudgetPeriodAnnual
		rows, err = svc.ListBudgetReports(user.ID, BudgetReportFilter{Period: &annual})
		testutil.AssertNoError(t, err)
		if len(rows) != 1 || rows[0].Period != models.BudgetPeriodAnnual {
			t.Fatalf("expected only the annual row, got %+v", rows)
		}
	})

	t.Run("range_filter_selects_overlapping_periods", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetReportService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		january := seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       user.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "100"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.January, 1),
			PeriodEnd:    testutil.Date(2024, time.January, 31),
		})
		seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       user.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "100"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.May, 1),
			PeriodEnd:    testutil.Date(2024, time.May, 31),
		})

		// A range touching only the last day of January still overlaps it.
		from := testutil.Date(2024, time.January, 31)
		to := testutil.Date(2024, time.February, 15)
		rows, err := svc.ListBudgetReports(user.ID, BudgetReportFilter{From: &from, To: &to})
		testutil.AssertNoError(t, err)
		if len(rows) != 1 || rows[0].ID != january.ID {
			t.Fatalf("expected only the january row, got %+v", rows)
		}
	})

	t.Run("excludes_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetReportService(db)
		user := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, stranger.ID, models.CategoryTypeExpense)

		seedBudgetReport(t, db, &models.BudgetReport{
			UserID:       stranger.ID,
			CategoryID:   &cat.ID,
			BudgetAmount: testutil.Amount(t, "500"),
			Period:       models.BudgetPeriodMonthly,
			PeriodStart:  testutil.Date(2024, time.March, 1),
			PeriodEnd:    testutil.Date(2024, time.March, 31),
		})

		rows, err := svc.ListBudgetReports(user.ID, BudgetReportFilter{})
		testutil.AssertNoError(t, err)
		if len(rows) != 0 {
			t.Errorf("expected no rows for another user, got %d", len(rows))
		}
	})
}
