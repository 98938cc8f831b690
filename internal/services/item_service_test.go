package services

import (
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/testutil"
)

func TestTopItems(t *testing.T) {
	t.Run("groups_by_normalized_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e1 := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "20", testutil.Date(2024, time.March, 1))
		e2 := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "20", testutil.Date(2024, time.March, 2))
		testutil.CreateTestExpenseItem(t, db, e1.ID, "Coffee", "4.50", nil)
		testutil.CreateTestExpenseItem(t, db, e1.ID, " coffee ", "4.50", nil)
		testutil.CreateTestExpenseItem(t, db, e2.ID, "COFFEE", "5", nil)
		testutil.CreateTestExpenseItem(t, db, e2.ID, "Milk", "2", nil)

		items, err := svc.TopItems(user.ID, ItemFilter{}, 0)
		testutil.AssertNoError(t, err)

		if len(items) != 2 {
			t.Fatalf("expected 2 groups, got %d: %+v", len(items), items)
		}
		coffee := items[0]
		if coffee.Name != "coffee" {
			t.Errorf("name = %q, want normalized %q", coffee.Name, "coffee")
		}
		if !coffee.TotalAmount.Equal(testutil.Amount(t, "14")) {
			t.Errorf("total = %s, want 14", coffee.TotalAmount)
		}
		if coffee.ItemCount != 3 {
			t.Errorf("item count = %d, want 3", coffee.ItemCount)
		}
		if coffee.ExpenseCount != 2 {
			t.Errorf("expense count = %d, want 2", coffee.ExpenseCount)
		}
	})

	t.Run("attributes_group_to_modal_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		dining := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		g1 := testutil.CreateTestExpense(t, db, user.ID, groceries.ID, "10", testutil.Date(2024, time.March, 1))
		g2 := testutil.CreateTestExpense(t, db, user.ID, groceries.ID, "10", testutil.Date(2024, time.March, 2))
		d1 := testutil.CreateTestExpense(t, db, user.ID, dining.ID, "10", testutil.Date(2024, time.March, 3))
		testutil.CreateTestExpenseItem(t, db, g1.ID, "Bread", "3", nil)
		testutil.CreateTestExpenseItem(t, db, g2.ID, "Bread", "3", nil)
		testutil.CreateTestExpenseItem(t, db, d1.ID, "Bread", "3", nil)

		items, err := svc.TopItems(user.ID, ItemFilter{}, 0)
		testutil.AssertNoError(t, err)

		if len(items) != 1 {
			t.Fatalf("expected 1 group, got %d", len(items))
		}
		if items[0].CategoryID != groceries.ID {
			t.Errorf("category = %d, want majority category %d", items[0].CategoryID, groceries.ID)
		}
		if items[0].CategoryName != groceries.Name {
			t.Errorf("category name = %q, want %q", items[0].CategoryName, groceries.Name)
		}
	})

	t.Run("modal_tie_breaks_to_lowest_category_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		second := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e1 := testutil.CreateTestExpense(t, db, user.ID, first.ID, "10", testutil.Date(2024, time.March, 1))
		e2 := testutil.CreateTestExpense(t, db, user.ID, second.ID, "10", testutil.Date(2024, time.March, 2))
		testutil.CreateTestExpenseItem(t, db, e1.ID, "Socks", "6", nil)
		testutil.CreateTestExpenseItem(t, db, e2.ID, "Socks", "6", nil)

		items, err := svc.TopItems(user.ID, ItemFilter{}, 0)
		testutil.AssertNoError(t, err)

		if len(items) != 1 {
			t.Fatalf("expected 1 group, got %d", len(items))
		}
		if items[0].CategoryID != first.ID {
			t.Errorf("category = %d, want lower id %d on a tie", items[0].CategoryID, first.ID)
		}
	})

	t.Run("orders_by_total_and_applies_limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "100", testutil.Date(2024, time.March, 1))
		testutil.CreateTestExpenseItem(t, db, e.ID, "Cheese", "9", nil)
		testutil.CreateTestExpenseItem(t, db, e.ID, "Wine", "30", nil)
		testutil.CreateTestExpenseItem(t, db, e.ID, "Olives", "4", nil)

		items, err := svc.TopItems(user.ID, ItemFilter{}, 2)
		testutil.AssertNoError(t, err)

		if len(items) != 2 {
			t.Fatalf("expected limit of 2 groups, got %d", len(items))
		}
		if items[0].Name != "wine" || items[1].Name != "cheese" {
			t.Errorf("order = %q, %q; want wine, cheese", items[0].Name, items[1].Name)
		}
	})

	t.Run("skips_blank_names_and_deleted_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "50", testutil.Date(2024, time.March, 1))
		testutil.CreateTestExpenseItem(t, db, e.ID, "   ", "5", nil)
		gone := testutil.CreateTestExpenseItem(t, db, e.ID, "Chips", "3", nil)
		if err := db.Delete(gone).Error; err != nil {
			t.Fatalf("failed to delete item: %v", err)
		}
		testutil.CreateTestExpenseItem(t, db, e.ID, "Salsa", "2", nil)

		items, err := svc.TopItems(user.ID, ItemFilter{}, 0)
		testutil.AssertNoError(t, err)

		if len(items) != 1 || items[0].Name != "salsa" {
			t.Errorf("expected only salsa, got %+v", items)
		}
	})

	t.Run("date_and_category_filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		other := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		in := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "10", testutil.Date(2024, time.March, 10))
		late := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "10", testutil.Date(2024, time.May, 1))
		wrongCat := testutil.CreateTestExpense(t, db, user.ID, other.ID, "10", testutil.Date(2024, time.March, 12))
		testutil.CreateTestExpenseItem(t, db, in.ID, "Apples", "4", nil)
		testutil.CreateTestExpenseItem(t, db, late.ID, "Apples", "4", nil)
		testutil.CreateTestExpenseItem(t, db, wrongCat.ID, "Apples", "4", nil)

		from := testutil.Date(2024, time.March, 1)
		to := testutil.Date(2024, time.March, 31)
		items, err := svc.TopItems(user.ID, ItemFilter{From: &from, To: &to, CategoryID: &cat.ID}, 0)
		testutil.AssertNoError(t, err)

		if len(items) != 1 || !items[0].TotalAmount.Equal(testutil.Amount(t, "4")) {
			t.Errorf("expected single filtered item totaling 4, got %+v", items)
		}
	})
}

func TestSearchItems(t *testing.T) {
	t.Run("substring_match_is_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "30", testutil.Date(2024, time.March, 1))
		testutil.CreateTestExpenseItem(t, db, e.ID, "Oat Milk", "3", nil)
		testutil.CreateTestExpenseItem(t, db, e.ID, "Whole milk", "2", nil)
		testutil.CreateTestExpenseItem(t, db, e.ID, "Butter", "4", nil)

		result, err := svc.SearchItems(user.ID, "MILK", ItemFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("total = %d, want 2", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(result.Data))
		}
		for _, row := range result.Data {
			if row.CategoryName != cat.Name {
				t.Errorf("category name = %q, want %q", row.CategoryName, cat.Name)
			}
		}
	})

	t.Run("newest_expense_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		older := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "10", testutil.Date(2024, time.March, 1))
		newer := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "10", testutil.Date(2024, time.March, 9))
		testutil.CreateTestExpenseItem(t, db, older.ID, "Eggs", "3", nil)
		testutil.CreateTestExpenseItem(t, db, newer.ID, "Eggs", "3.50", nil)

		result, err := svc.SearchItems(user.ID, "eggs", ItemFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(result.Data))
		}
		if result.Data[0].ExpenseID != newer.ID {
			t.Errorf("first row expense = %d, want newest %d", result.Data[0].ExpenseID, newer.ID)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		e := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "20", testutil.Date(2024, time.March, 1))
		for i := 0; i < 5; i++ {
			testutil.CreateTestExpenseItem(t, db, e.ID, "Pasta", "2", nil)
		}

		result, err := svc.SearchItems(user.ID, "pasta", ItemFilter{}, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 5 {
			t.Errorf("total = %d, want 5", result.TotalItems)
		}
		if result.TotalPages != 3 {
			t.Errorf("total pages = %d, want 3", result.TotalPages)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 rows on page 2, got %d", len(result.Data))
		}
	})

	t.Run("rejects_blank_query", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.SearchItems(user.ID, "   ", ItemFilter{}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("excludes_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewItemService(db)
		user := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, stranger.ID, models.CategoryTypeExpense)

		e := testutil.CreateTestExpense(t, db, stranger.ID, cat.ID, "10", testutil.Date(2024, time.March, 1))
		testutil.CreateTestExpenseItem(t, db, e.ID, "Secret", "10", nil)

		result, err := svc.SearchItems(user.ID, "secret", ItemFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected no cross-user hits, got %d", result.TotalItems)
		}
	})
}
