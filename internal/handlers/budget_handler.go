package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// UpsertBudgetRequest represents the request payload for creating or
// updating a budget. Exactly one of category_id or subcategory_id must be
// set. Dates are calendar dates; omitting both makes the budget open-ended.
type UpsertBudgetRequest struct {
	CategoryID    *uint           `json:"category_id"`
	SubcategoryID *uint           `json:"subcategory_id"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	StartDate     *string         `json:"start_date"`
	EndDate       *string         `json:"end_date"`
}

func parseDateField(value *string, name string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, *value, time.UTC)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// UpsertBudget creates a budget or updates the amount of the one matching
// the same scope and date range.
// @Summary     Upsert a budget
// @Description Create a budget, or update the amount when one with the same scope and date range exists
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpsertBudgetRequest true "Budget details"
// @Success     200 {object} models.Budget "Budget created or updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [put]
func (h *BudgetHandler) UpsertBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDateField(req.EndDate, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope := services.BudgetScope{CategoryID: req.CategoryID, SubcategoryID: req.SubcategoryID}
	budget, err := h.budgetService.Upsert(userID, scope, req.Amount, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPSERT_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// RemoveBudgets deletes the budgets for a scope.
// @Summary     Remove budgets
// @Description Delete the budgets for a category or subcategory scope, optionally narrowed to an exact date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category_id    query int    false "Category scope"
// @Param       subcategory_id query int    false "Subcategory scope"
// @Param       start_date     query string false "Exact start date (YYYY-MM-DD)"
// @Param       end_date       query string false "Exact end date (YYYY-MM-DD)"
// @Success     200 {object} map[string]int64 "Number of budgets removed"
// @Failure     400 {object} ErrorResponse "Invalid scope"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [delete]
func (h *BudgetHandler) RemoveBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	subcategoryID, err := parseUintQuery(c, "subcategory_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope := services.BudgetScope{CategoryID: categoryID, SubcategoryID: subcategoryID}
	removed, err := h.budgetService.Remove(userID, scope, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_BUDGETS", "budget", 0, c.ClientIP(),
		map[string]interface{}{"removed": removed})

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// GetEffectiveBudget resolves the budget governing a scope on a date.
// @Summary     Get effective budget
// @Description Resolve the budget governing a category (and optional subcategory) on a date, with subcategory precedence
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category_id    query int    true  "Category"
// @Param       subcategory_id query int    false "Subcategory"
// @Param       date           query string false "Target date (YYYY-MM-DD), default today"
// @Success     200 {object} services.EffectiveBudget "Effective budget, empty when none governs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/effective [get]
func (h *BudgetHandler) GetEffectiveBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categoryID == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required"))
		return
	}
	subcategoryID, err := parseUintQuery(c, "subcategory_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	target := time.Now()
	if date != nil {
		target = *date
	}

	effective, err := h.budgetService.EffectiveBudget(userID, *categoryID, subcategoryID, target)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"effective_budget": effective})
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets for the authenticated user
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category_id    query int false "Filter by category"
// @Param       subcategory_id query int false "Filter by subcategory"
// @Param       page           query int false "Page number (default 1)"
// @Param       page_size      query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	subcategoryID, err := parseUintQuery(c, "subcategory_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.BudgetFilter{CategoryID: categoryID, SubcategoryID: subcategoryID}
	result, err := h.budgetService.GetUserBudgets(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
