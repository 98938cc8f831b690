package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/services"
)

// ReportHandler handles spend aggregation and budget report requests.
type ReportHandler struct {
	reportService       services.ReportServicer
	budgetReportService services.BudgetReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, budgetReportService services.BudgetReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, budgetReportService: budgetReportService}
}

// parseSpendFilter reads the shared report query parameters. from and to
// are required inclusive calendar dates.
func parseSpendFilter(c *gin.Context) (services.SpendFilter, error) {
	var f services.SpendFilter

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return f, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return f, err
	}
	if from == nil || to == nil {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to are required")
	}
	if from.After(*to) {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	f.From, f.To = *from, *to

	if f.CategoryID, err = parseUintQuery(c, "category_id"); err != nil {
		return f, err
	}
	if f.SubcategoryID, err = parseUintQuery(c, "subcategory_id"); err != nil {
		return f, err
	}
	return f, nil
}

// SpendingOverTime returns a time-bucketed spending series.
// @Summary     Spending over time
// @Description Get expense totals bucketed by day, ISO week, or month. Buckets without spending are omitted.
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from           query string true  "Range start (YYYY-MM-DD)"
// @Param       to             query string true  "Range end (YYYY-MM-DD)"
// @Param       interval       query string false "Bucket size: day, week, or month (default day)"
// @Param       category_id    query int    false "Filter by category"
// @Param       subcategory_id query int    false "Filter by subcategory"
// @Success     200 {array} services.TimeBucket "Spending series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/spending-over-time [get]
func (h *ReportHandler) SpendingOverTime(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := parseSpendFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	interval := services.Interval(c.DefaultQuery("interval", string(services.IntervalDay)))

	series, err := h.reportService.SpendingOverTime(userID, f, interval)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"series": series})
}

// SpendingByCategory returns per-category spend totals.
// @Summary     Spending by category
// @Description Get expense totals grouped by category, largest first
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from           query string true  "Range start (YYYY-MM-DD)"
// @Param       to             query string true  "Range end (YYYY-MM-DD)"
// @Param       category_id    query int    false "Filter by category"
// @Param       subcategory_id query int    false "Filter by subcategory"
// @Success     200 {array} services.CategorySpend "Category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/spending-by-category [get]
func (h *ReportHandler) SpendingByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := parseSpendFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.SpendingByCategory(userID, f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// SpendingBySubcategory returns de-duplicated per-subcategory spend totals.
// @Summary     Spending by subcategory
// @Description Get spend totals per subcategory across both item-level and expense-level assignments, without double counting
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from           query string true  "Range start (YYYY-MM-DD)"
// @Param       to             query string true  "Range end (YYYY-MM-DD)"
// @Param       category_id    query int    false "Filter by category"
// @Param       subcategory_id query int    false "Filter by subcategory"
// @Success     200 {array} services.SubcategorySpend "Subcategory totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/spending-by-subcategory [get]
func (h *ReportHandler) SpendingBySubcategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := parseSpendFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.SpendingBySubcategory(userID, f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategories": totals})
}

// BudgetVsActual compares the monthly-equivalent budget against actual spend.
// @Summary     Budget vs actual
// @Description Get one row per month in the range comparing the resolved monthly-equivalent budget against actual spend. Months without spending appear with a zero actual.
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from           query string true  "Range start (YYYY-MM-DD)"
// @Param       to             query string true  "Range end (YYYY-MM-DD)"
// @Param       category_id    query int    false "Filter by category"
// @Param       subcategory_id query int    false "Filter by subcategory"
// @Success     200 {array} services.BudgetVsActualRow "Monthly comparison rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/budget-vs-actual [get]
func (h *ReportHandler) BudgetVsActual(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := parseSpendFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.reportService.BudgetVsActual(userID, f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": rows})
}

// IncomeVsExpense summarizes income against expenses.
// @Summary     Income vs expense
// @Description Get income/expense totals, savings rate, monthly cashflow, and the per-subcategory monthly drill-down
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Range start (YYYY-MM-DD)"
// @Param       to   query string false "Range end (YYYY-MM-DD)"
// @Success     200 {object} services.IncomeExpenseSummary "Income vs expense summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/income-vs-expense [get]
func (h *ReportHandler) IncomeVsExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.IncomeVsExpense(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetBudgetReports lists pre-aggregated budget report rows.
// @Summary     Get budget reports
// @Description Get pre-aggregated budget-vs-spend rows from the reporting view
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category_id    query int    false "Filter by category"
// @Param       subcategory_id query int    false "Filter by subcategory"
// @Param       period         query string false "Filter by period (monthly/annual)"
// @Param       from           query string false "Keep rows whose period overlaps from this date"
// @Param       to             query string false "Keep rows whose period overlaps up to this date"
// @Success     200 {array} services.BudgetReportRow "Budget report rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/budgets [get]
func (h *ReportHandler) GetBudgetReports(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var f services.BudgetReportFilter
	if f.CategoryID, err = parseUintQuery(c, "category_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if f.SubcategoryID, err = parseUintQuery(c, "subcategory_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if p != models.BudgetPeriodMonthly && p != models.BudgetPeriodAnnual {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly' or 'annual'"))
			return
		}
		f.Period = &p
	}
	if f.From, err = parseDateQuery(c, "from"); err != nil {
		respondWithError(c, err)
		return
	}
	if f.To, err = parseDateQuery(c, "to"); err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.budgetReportService.ListBudgetReports(userID, f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_reports": rows})
}
