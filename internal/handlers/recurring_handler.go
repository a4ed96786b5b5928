package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/services"
)

// RecurringHandler handles recurring definition requests and on-demand
// processing of due definitions.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	scheduler        services.SchedulerServicer
	clock            calendar.Clock
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, scheduler services.SchedulerServicer, clock calendar.Clock) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, scheduler: scheduler, clock: clock}
}

// RecurringRequest represents the payload for creating or replacing a
// recurring definition. Amount is the positive expense size.
type RecurringRequest struct {
	Title          string          `json:"title" binding:"required,max=200"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" binding:"decimal_positive"`
	CategoryID     *uint           `json:"category_id"`
	RecurrenceKind string          `json:"recurrence_kind" binding:"omitempty,recurrence_kind"`
	DayOfMonth     int             `json:"day_of_month" binding:"required,min=1,max=31"`
	StartDate      string          `json:"start_date" binding:"required,iso_date"`
	EndDate        *string         `json:"end_date" binding:"omitempty,iso_date"`
	IsActive       *bool           `json:"is_active"`
}

func (r RecurringRequest) input() services.RecurringInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return services.RecurringInput{
		Title:      r.Title,
		Amount:     r.Amount,
		CategoryID: r.CategoryID,
		Kind:       models.RecurrenceKind(r.RecurrenceKind),
		DayOfMonth: r.DayOfMonth,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		IsActive:   active,
	}
}

// RecurringResponse wraps a single definition.
type RecurringResponse struct {
	Recurring models.RecurringDefinition `json:"recurring"`
}

// RecurringListResponse wraps the definition list.
type RecurringListResponse struct {
	Recurring []services.RecurringView `json:"recurring"`
}

// CreateRecurring handles creating a recurring definition.
// @Summary     Create recurring definition
// @Description The first due date is the first occurrence on or after both the start date and today.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Param       request body RecurringRequest true "Definition"
// @Success     201 {object} RecurringResponse "Definition created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     422 {object} ErrorResponse "Start date too far in the past"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	def, err := h.recurringService.CreateRecurring(c.Request.Context(), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RecurringResponse{Recurring: *def})
}

// GetRecurring lists every definition with its category name.
// @Summary     List recurring definitions
// @Tags        recurring
// @Produce     json
// @Success     200 {object} RecurringListResponse "Definitions ordered by next due date"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetRecurring(c *gin.Context) {
	defs, err := h.recurringService.GetRecurring(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if defs == nil {
		defs = []services.RecurringView{}
	}
	c.JSON(http.StatusOK, RecurringListResponse{Recurring: defs})
}

// GetRecurringByID handles getting a definition by ID.
// @Summary     Get recurring definition
// @Tags        recurring
// @Produce     json
// @Param       id path int true "Definition ID"
// @Success     200 {object} RecurringResponse "Definition"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Definition not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurringByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	def, err := h.recurringService.GetRecurringByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecurringResponse{Recurring: *def})
}

// UpdateRecurring handles replacing a definition.
// @Summary     Update recurring definition
// @Description Replaces every field and recomputes the next due date.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Param       id      path int              true "Definition ID"
// @Param       request body RecurringRequest true "Definition"
// @Success     200 {object} RecurringResponse "Definition updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Definition or category not found"
// @Failure     422 {object} ErrorResponse "Start date too far in the past"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	def, err := h.recurringService.UpdateRecurring(c.Request.Context(), id, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecurringResponse{Recurring: *def})
}

// DeleteRecurring handles deleting a definition. Transactions it produced
// are kept.
// @Summary     Delete recurring definition
// @Tags        recurring
// @Produce     json
// @Param       id path int true "Definition ID"
// @Success     200 {object} MessageResponse "Definition deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Definition not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurring(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Recurring definition deleted successfully"})
}

// ProcessDue materializes every definition due on or before today.
// @Summary     Process due definitions
// @Description Creates the transactions of due definitions and advances them. Safe to call repeatedly.
// @Tags        recurring
// @Produce     json
// @Param       today query string false "Override today as YYYY-MM-DD"
// @Success     200 {object} services.ProcessResult "Run summary"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/process [post]
func (h *RecurringHandler) ProcessDue(c *gin.Context) {
	today := h.clock.Today()
	if raw := c.Query("today"); raw != "" {
		d, err := calendar.Parse(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "today must be YYYY-MM-DD"))
			return
		}
		today = d
	}

	result, err := h.scheduler.ProcessDue(c.Request.Context(), today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
