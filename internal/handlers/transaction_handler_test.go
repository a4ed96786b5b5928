package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transactions", handler.CreateTransaction)
	r.GET("/transactions", handler.GetTransactions)
	r.GET("/transactions/:id", handler.GetTransactionByID)
	r.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(title string, amount decimal.Decimal, date string, categoryID *uint) (*models.Transaction, error) {
				if categoryID == nil || *categoryID != 2 {
					t.Errorf("expected category 2, got %v", categoryID)
				}
				return &models.Transaction{Base: models.Base{ID: 1}, Title: title, Amount: amount, Date: date, CategoryID: categoryID}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "POST", "/transactions",
			`{"title":"Lunch","amount":"-12.50","date":"2025-02-03","category_id":2}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"] != "-12.5" {
			t.Errorf("expected amount -12.5, got %v", tx["amount"])
		}
	})

	tests := map[string]string{
		"missing title": `{"amount":"-1","date":"2025-02-03"}`,
		"zero amount":   `{"title":"x","amount":"0","date":"2025-02-03"}`,
		"bad date":      `{"title":"x","amount":"-1","date":"2025-02-30"}`,
	}
	for name, body := range tests {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

			rec := doRequest(r, "POST", "/transactions", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("passes filters and paging", func(t *testing.T) {
		svc := &mockTransactionService{
			getTransactionsFn: func(page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				if page.Page != 2 || page.PageSize != 5 {
					t.Errorf("unexpected page %+v", page)
				}
				if filter.Period == nil || filter.Period.String() != "2025-02" {
					t.Errorf("expected period 2025-02, got %v", filter.Period)
				}
				if filter.CategoryID == nil || *filter.CategoryID != 4 {
					t.Errorf("expected category 4, got %v", filter.CategoryID)
				}
				resp := pagination.NewPageResponse([]models.Transaction{{Title: "a"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions?period=2025-02&category_id=4&page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_pages"] != float64(2) {
			t.Errorf("expected 2 pages, got %v", result["total_pages"])
		}
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		for _, q := range []string{"?period=2025-2", "?category_id=x", "?page_size=1000"} {
			rec := doRequest(r, "GET", "/transactions"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("hides internal errors", func(t *testing.T) {
		svc := &mockTransactionService{
			deleteTransactionFn: func(uint) error { return errors.New("disk on fire") },
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "DELETE", "/transactions/1", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INTERNAL_ERROR")
	})
}
