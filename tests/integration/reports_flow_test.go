package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestReportsFlow_SpendingOverTime(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "series@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries")

	app.createExpense(t, token, categoryID, "10", "2024-03-05")
	app.createExpense(t, token, categoryID, "20", "2024-03-05")
	app.createExpense(t, token, categoryID, "5", "2024-03-20")

	rec := app.request("GET",
		"/api/v1/reports/spending-over-time?from=2024-03-01&to=2024-03-31&interval=day", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	series := parseJSON(t, rec)["series"].([]interface{})
	if len(series) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(series))
	}
	first := series[0].(map[string]interface{})
	if first["bucket"].(string) != "2024-03-05" || first["amount"].(string) != "30" {
		t.Errorf("first bucket = %v, want 2024-03-05 / 30", first)
	}

	// Missing range is a validation error.
	rec = app.request("GET", "/api/v1/reports/spending-over-time?interval=day", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without range, got %d", rec.Code)
	}
}

func TestReportsFlow_SubcategoryDedup(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "dedup@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries")
	subcategoryID := app.createSubcategory(t, token, categoryID, "Meat")

	// Expense on the subcategory with a matching item: item granularity wins.
	body := fmt.Sprintf(`{"category_id":%.0f,"subcategory_id":%.0f,"amount":"50","date":"2024-03-05","items":[{"name":"Steak","amount":"30","subcategory_id":%.0f}]}`,
		categoryID, subcategoryID, subcategoryID)
	rec := app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET",
		"/api/v1/reports/spending-by-subcategory?from=2024-03-01&to=2024-03-31", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	subcategories := parseJSON(t, rec)["subcategories"].([]interface{})
	if len(subcategories) != 1 {
		t.Fatalf("expected 1 subcategory row, got %d", len(subcategories))
	}
	row := subcategories[0].(map[string]interface{})
	if row["amount"].(string) != "30" {
		t.Errorf("amount = %v, want item-level 30, not 80", row["amount"])
	}
}

func TestReportsFlow_BudgetVsActual(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "bva@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries")

	// Annual 1200 amortizes to 100 a month.
	rec := app.request("PUT", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"amount":"1200","start_date":"2024-01-01","end_date":"2024-12-31"}`, categoryID), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	app.createExpense(t, token, categoryID, "40", "2024-01-10")
	app.createExpense(t, token, categoryID, "130", "2024-03-10")

	rec = app.request("GET",
		fmt.Sprintf("/api/v1/reports/budget-vs-actual?from=2024-01-01&to=2024-03-31&category_id=%.0f", categoryID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	months := parseJSON(t, rec)["months"].([]interface{})
	if len(months) != 3 {
		t.Fatalf("expected 3 month rows, got %d", len(months))
	}
	feb := months[1].(map[string]interface{})
	if feb["month"].(string) != "2024-02" || feb["actual_amount"].(string) != "0" {
		t.Errorf("february = %v, want zero-filled", feb)
	}
	if feb["budget_amount"].(string) != "100" {
		t.Errorf("budget = %v, want 100 per month", feb["budget_amount"])
	}
}

func TestReportsFlow_IncomeVsExpense(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "cashflow@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries")

	rec := app.request("POST", "/api/v1/incomes",
		`{"amount":"2000","description":"salary","date":"2024-03-01"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	app.createExpense(t, token, categoryID, "500", "2024-03-10")

	rec = app.request("GET", "/api/v1/reports/income-vs-expense", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)
	if summary["total_income"].(string) != "2000" {
		t.Errorf("total income = %v, want 2000", summary["total_income"])
	}
	if summary["net_savings"].(string) != "1500" {
		t.Errorf("net savings = %v, want 1500", summary["net_savings"])
	}
	if summary["savings_rate"].(string) != "75" {
		t.Errorf("savings rate = %v, want 75", summary["savings_rate"])
	}
}

func TestItemsFlow_TopAndSearch(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "items@test.com", "password123")
	categoryID := app.createCategory(t, token, "Groceries")

	body := fmt.Sprintf(`{"category_id":%.0f,"amount":"20","date":"2024-03-05","items":[{"name":"Coffee","amount":"5"},{"name":" coffee ","amount":"4"},{"name":"Milk","amount":"2"}]}`, categoryID)
	rec := app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/items/top", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	items := parseJSON(t, rec)["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(items))
	}
	top := items[0].(map[string]interface{})
	if top["name"].(string) != "coffee" || top["total_amount"].(string) != "9" {
		t.Errorf("top item = %v, want coffee / 9", top)
	}
	if top["item_count"].(float64) != 2 {
		t.Errorf("item count = %v, want 2", top["item_count"])
	}

	rec = app.request("GET", "/api/v1/items/search?q=off", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if total := parseJSON(t, rec)["total_items"].(float64); total != 2 {
		t.Errorf("search total = %.0f, want 2 coffee hits", total)
	}

	// Search without a query is rejected.
	rec = app.request("GET", "/api/v1/items/search", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without query, got %d", rec.Code)
	}
}
