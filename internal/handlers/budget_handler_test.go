package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	activeBudgetFn    func(userID uint, scope services.BudgetScope, target time.Time) (*models.Budget, error)
	effectiveBudgetFn func(userID, categoryID uint, subcategoryID *uint, target time.Time) (*services.EffectiveBudget, error)
	upsertFn          func(userID uint, scope services.BudgetScope, amount decimal.Decimal, start, end *time.Time) (*models.Budget, error)
	removeFn          func(userID uint, scope services.BudgetScope, start, end *time.Time) (int64, error)
	getUserBudgetsFn  func(userID uint, page pagination.PageRequest, filter services.BudgetFilter) (*pagination.PageResponse[models.Budget], error)
}

func (m *mockBudgetService) ActiveBudget(userID uint, scope services.BudgetScope, target time.Time) (*models.Budget, error) {
	if m.activeBudgetFn != nil {
		return m.activeBudgetFn(userID, scope, target)
	}
	return nil, nil
}

func (m *mockBudgetService) EffectiveBudget(userID, categoryID uint, subcategoryID *uint, target time.Time) (*services.EffectiveBudget, error) {
	if m.effectiveBudgetFn != nil {
		return m.effectiveBudgetFn(userID, categoryID, subcategoryID, target)
	}
	return &services.EffectiveBudget{}, nil
}

func (m *mockBudgetService) Upsert(userID uint, scope services.BudgetScope, amount decimal.Decimal, start, end *time.Time) (*models.Budget, error) {
	if m.upsertFn != nil {
		return m.upsertFn(userID, scope, amount, start, end)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) Remove(userID uint, scope services.BudgetScope, start, end *time.Time) (int64, error) {
	if m.removeFn != nil {
		return m.removeFn(userID, scope, start, end)
	}
	return 0, nil
}

func (m *mockBudgetService) GetUserBudgets(userID uint, page pagination.PageRequest, filter services.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.PUT("/budgets", handler.UpsertBudget)
	auth.DELETE("/budgets", handler.RemoveBudgets)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/effective", handler.GetEffectiveBudget)
	return r
}

func TestBudgetHandler_UpsertBudget(t *testing.T) {
	t.Run("returns 200 with the budget", func(t *testing.T) {
		svc := &mockBudgetService{
			upsertFn: func(_ uint, scope services.BudgetScope, amount decimal.Decimal, start, end *time.Time) (*models.Budget, error) {
				return &models.Budget{
					Base:       models.Base{ID: 1},
					CategoryID: scope.CategoryID,
					Amount:     amount,
					StartDate:  models.WideRangeStart,
					EndDate:    models.WideRangeEnd,
				}, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets", `{"category_id":2,"amount":"300"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["amount"] != "300" {
			t.Errorf("amount = %v, want 300", budget["amount"])
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets", `{"category_id":2}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets", `{"category_id":2,"amount":"300","start_date":"03/01/2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 when scope is invalid", func(t *testing.T) {
		svc := &mockBudgetService{
			upsertFn: func(_ uint, _ services.BudgetScope, _ decimal.Decimal, _, _ *time.Time) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetScope
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "PUT", "/budgets", `{"category_id":2,"subcategory_id":3,"amount":"300"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_BUDGET_SCOPE")
	})
}

func TestBudgetHandler_RemoveBudgets(t *testing.T) {
	t.Run("returns the removed count", func(t *testing.T) {
		svc := &mockBudgetService{
			removeFn: func(_ uint, scope services.BudgetScope, _, _ *time.Time) (int64, error) {
				if scope.CategoryID == nil || *scope.CategoryID != 2 {
					t.Errorf("scope category = %v, want 2", scope.CategoryID)
				}
				return 3, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets?category_id=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if removed := parseJSON(t, rec)["removed"].(float64); removed != 3 {
			t.Errorf("removed = %.0f, want 3", removed)
		}
	})

	t.Run("returns 400 on bad query id", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "DELETE", "/budgets?category_id=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetEffectiveBudget(t *testing.T) {
	t.Run("returns the resolved budget", func(t *testing.T) {
		amount := decimal.RequireFromString("80")
		svc := &mockBudgetService{
			effectiveBudgetFn: func(_ uint, categoryID uint, subcategoryID *uint, _ time.Time) (*services.EffectiveBudget, error) {
				return &services.EffectiveBudget{
					Amount: &amount,
					Period: models.BudgetPeriodMonthly,
					Source: "subcategory",
					Budget: &models.Budget{Base: models.Base{ID: 4}},
				}, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/effective?category_id=2&subcategory_id=5&date=2024-03-15", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		effective := parseJSON(t, rec)["effective_budget"].(map[string]interface{})
		if effective["source"] != "subcategory" {
			t.Errorf("source = %v, want subcategory", effective["source"])
		}
		if effective["amount"] != "80" {
			t.Errorf("amount = %v, want 80", effective["amount"])
		}
	})

	t.Run("returns 400 without category_id", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/effective", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
