package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/calendar"
	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Negative amounts are expenses.
type CreateTransactionRequest struct {
	Title      string          `json:"title" binding:"required,max=200"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" binding:"required"`
	Date       string          `json:"date" binding:"required,iso_date"`
	CategoryID *uint           `json:"category_id"`
}

// TransactionResponse wraps a single transaction.
type TransactionResponse struct {
	Transaction models.Transaction `json:"transaction"`
}

// CreateTransaction handles the creation of a new transaction.
// @Summary     Create transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tx, err := h.transactionService.CreateTransaction(c.Request.Context(), req.Title, req.Amount, req.Date, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TransactionResponse{Transaction: *tx})
}

// GetTransactions lists transactions, newest first.
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Param       period      query string false "Month as YYYY-MM"
// @Param       category_id query int    false "Category ID"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var filter services.TransactionFilter
	if raw := c.Query("period"); raw != "" {
		period, err := calendar.ParsePeriod(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be YYYY-MM"))
			return
		}
		filter.Period = &period
	}
	categoryID, err := parseOptionalUintQuery(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.CategoryID = categoryID

	resp, err := h.transactionService.GetTransactions(c.Request.Context(), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTransactionByID handles getting a transaction by ID.
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Transaction: *tx})
}

// DeleteTransaction handles deleting a transaction.
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}
