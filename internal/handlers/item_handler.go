package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// ItemHandler handles expense line-item aggregation requests.
type ItemHandler struct {
	itemService services.ItemServicer
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(itemService services.ItemServicer) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

func parseItemFilter(c *gin.Context) (services.ItemFilter, error) {
	var f services.ItemFilter
	var err error
	if f.From, err = parseDateQuery(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDateQuery(c, "to"); err != nil {
		return f, err
	}
	if f.CategoryID, err = parseUintQuery(c, "category_id"); err != nil {
		return f, err
	}
	return f, nil
}

// TopItems returns the biggest item groups by total spend.
// @Summary     Top items
// @Description Get line items grouped by normalized name, ranked by total spend, with modal category attribution
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from        query string false "Range start (YYYY-MM-DD)"
// @Param       to          query string false "Range end (YYYY-MM-DD)"
// @Param       category_id query int    false "Filter by category"
// @Param       limit       query int    false "Maximum groups to return (default 10)"
// @Success     200 {array} services.ItemGroup "Top item groups"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/top [get]
func (h *ItemHandler) TopItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := parseItemFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
	}

	items, err := h.itemService.TopItems(userID, f, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SearchItems searches line items by name.
// @Summary     Search items
// @Description Search line items by case-insensitive substring match on the name, newest first
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       q           query string true  "Search query"
// @Param       from        query string false "Range start (YYYY-MM-DD)"
// @Param       to          query string false "Range end (YYYY-MM-DD)"
// @Param       category_id query int    false "Filter by category"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.ItemSearchRow] "Matching items"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /items/search [get]
func (h *ItemHandler) SearchItems(c *gin.Context) {
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

	f, err := parseItemFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.itemService.SearchItems(userID, c.Query("q"), f, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
