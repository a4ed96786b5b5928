package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/aggregate"
	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	streamer      services.BudgetStreamer
	clock         calendar.Clock
}

// NewBudgetHandler creates a new BudgetHandler. streamer may be nil, in which
// case the stream endpoint is not served.
func NewBudgetHandler(budgetService services.BudgetServicer, streamer services.BudgetStreamer, clock calendar.Clock) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, streamer: streamer, clock: clock}
}

// SetBudgetRequest represents the request payload for setting a budget.
type SetBudgetRequest struct {
	CategoryID uint            `json:"category_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" binding:"gte=0"`
	Period     string          `json:"period" binding:"required,period_key"`
}

// BudgetResponse wraps a single budget.
type BudgetResponse struct {
	Budget models.Budget `json:"budget"`
}

// BudgetRowsResponse wraps the per-category rows for a period.
type BudgetRowsResponse struct {
	Period  string                `json:"period"`
	Budgets []aggregate.BudgetRow `json:"budgets"`
}

// BreakdownResponse wraps the spending breakdown for a period.
type BreakdownResponse struct {
	Period string            `json:"period"`
	Slices []aggregate.Slice `json:"slices"`
}

// periodQuery returns the period query parameter, defaulting to the current
// month.
func (h *BudgetHandler) periodQuery(c *gin.Context) (string, error) {
	raw := c.Query("period")
	if raw == "" {
		return h.clock.Today().Period().String(), nil
	}
	p, err := calendar.ParsePeriod(raw)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be YYYY-MM")
	}
	return p.String(), nil
}

// SetBudget creates or replaces the budget of a category for a period.
// @Summary     Set budget
// @Description Create the budget for a category and period, or replace its amount.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body SetBudgetRequest true "Budget details"
// @Success     200 {object} BudgetResponse "Budget stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [put]
func (h *BudgetHandler) SetBudget(c *gin.Context) {
	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.SetBudget(c.Request.Context(), req.CategoryID, req.Amount, req.Period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BudgetResponse{Budget: *budget})
}

// GetBudgets returns one row per category for a period.
// @Summary     Budget progress
// @Description Spent, remaining and status per category. Defaults to the current month.
// @Tags        budgets
// @Produce     json
// @Param       period query string false "Month as YYYY-MM"
// @Success     200 {object} BudgetRowsResponse "Budget rows ordered by category name"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	period, err := h.periodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.budgetService.GetBudgetsForPeriod(c.Request.Context(), period)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if rows == nil {
		rows = []aggregate.BudgetRow{}
	}

	c.JSON(http.StatusOK, BudgetRowsResponse{Period: period, Budgets: rows})
}

// StreamBudgets pushes budget rows as Server-Sent Events.
// @Summary     Stream budget progress
// @Description Sends a "budgets" event with the current rows, then another after every change to categories, budgets or transactions.
// @Tags        budgets
// @Produce     text/event-stream
// @Param       period query string false "Month as YYYY-MM"
// @Success     200 {object} BudgetRowsResponse "Event payload"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Router      /budgets/stream [get]
func (h *BudgetHandler) StreamBudgets(c *gin.Context) {
	if h.streamer == nil {
		respondWithError(c, apperrors.ErrNotFound)
		return
	}
	period, err := h.periodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	periods := make(chan string, 1)
	periods <- period
	snapshots := h.streamer.Watch(ctx, periods)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// The watcher closes snapshots once the client goes away.
	for snap := range snapshots {
		if snap.Err != nil {
			c.SSEvent("error", ErrorDetail{Code: apperrors.ErrStore.Code, Message: apperrors.ErrStore.Message})
			c.Writer.Flush()
			return
		}
		rows := snap.Rows
		if rows == nil {
			rows = []aggregate.BudgetRow{}
		}
		c.SSEvent("budgets", BudgetRowsResponse{Period: snap.Period, Budgets: rows})
		c.Writer.Flush()
	}
}

// GetBreakdown returns expenses grouped by category for a period.
// @Summary     Spending breakdown
// @Description Expense totals per category, largest first. Uncategorized spending is its own slice.
// @Tags        budgets
// @Produce     json
// @Param       period query string false "Month as YYYY-MM"
// @Success     200 {object} BreakdownResponse "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/breakdown [get]
func (h *BudgetHandler) GetBreakdown(c *gin.Context) {
	period, err := h.periodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slices, err := h.budgetService.GetSpendingBreakdown(c.Request.Context(), period)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if slices == nil {
		slices = []aggregate.Slice{}
	}

	c.JSON(http.StatusOK, BreakdownResponse{Period: period, Slices: slices})
}

// GetBudget returns the budget of one category for one period.
// The first path segment is named id to share the route tree with DELETE.
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Param       id     path int    true "Category ID"
// @Param       period path string true "Month as YYYY-MM"
// @Success     200 {object} BudgetResponse "Budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/{period} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudget(c.Request.Context(), categoryID, c.Param("period"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BudgetResponse{Budget: *budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Param       id path int true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}
