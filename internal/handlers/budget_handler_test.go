package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/aggregate"
	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/services"
)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	r.PUT("/budgets", handler.SetBudget)
	r.GET("/budgets", handler.GetBudgets)
	r.GET("/budgets/stream", handler.StreamBudgets)
	r.GET("/budgets/breakdown", handler.GetBreakdown)
	r.GET("/budgets/:id/:period", handler.GetBudget)
	r.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_SetBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockBudgetService{
			setBudgetFn: func(categoryID uint, amount decimal.Decimal, period string) (*models.Budget, error) {
				return &models.Budget{Base: models.Base{ID: 7}, CategoryID: categoryID, Amount: amount, MonthYear: period}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

		rec := doRequest(r, "PUT", "/budgets", `{"category_id":1,"amount":"2000","period":"2025-02"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["month_year"] != "2025-02" {
			t.Errorf("expected 2025-02, got %v", budget["month_year"])
		}
	})

	tests := map[string]string{
		"negative amount":  `{"category_id":1,"amount":"-5","period":"2025-02"}`,
		"bad period":       `{"category_id":1,"amount":"5","period":"Feb 2025"}`,
		"missing category": `{"amount":"5","period":"2025-02"}`,
	}
	for name, body := range tests {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, nil, testClock))

			rec := doRequest(r, "PUT", "/budgets", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("defaults to the current month", func(t *testing.T) {
		var asked string
		svc := &mockBudgetService{
			getBudgetsForPeriodFn: func(period string) ([]aggregate.BudgetRow, error) {
				asked = period
				return []aggregate.BudgetRow{{CategoryName: "Food", Period: period, Status: aggregate.StatusNormal}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

		rec := doRequest(r, "GET", "/budgets", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if asked != "2025-02" {
			t.Errorf("expected 2025-02, got %q", asked)
		}
		rows := parseJSON(t, rec)["budgets"].([]interface{})
		if len(rows) != 1 {
			t.Errorf("expected 1 row, got %d", len(rows))
		}
	})

	t.Run("returns 400 on bad period", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, nil, testClock))

		rec := doRequest(r, "GET", "/budgets?period=2025-13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("surfaces store faults", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetsForPeriodFn: func(string) ([]aggregate.BudgetRow, error) {
				return nil, apperrors.Wrap(apperrors.ErrStore, errors.New("locked"))
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

		rec := doRequest(r, "GET", "/budgets?period=2025-01", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STORE_FAULT")
	})
}

func TestBudgetHandler_GetBreakdown(t *testing.T) {
	svc := &mockBudgetService{
		getSpendingBreakdownFn: func(period string) ([]aggregate.Slice, error) {
			return []aggregate.Slice{{CategoryName: "Rent", Total: decimal.NewFromInt(900)}}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

	rec := doRequest(r, "GET", "/budgets/breakdown?period=2025-01", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["period"] != "2025-01" {
		t.Errorf("expected 2025-01, got %v", result["period"])
	}
	if len(result["slices"].([]interface{})) != 1 {
		t.Errorf("expected 1 slice, got %v", result["slices"])
	}
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("looks up by category and period", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetFn: func(categoryID uint, period string) (*models.Budget, error) {
				if categoryID != 3 || period != "2025-02" {
					t.Errorf("unexpected lookup %d %s", categoryID, period)
				}
				return &models.Budget{CategoryID: categoryID, MonthYear: period}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

		rec := doRequest(r, "GET", "/budgets/3/2025-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetFn: func(uint, string) (*models.Budget, error) { return nil, apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

		rec := doRequest(r, "GET", "/budgets/3/2025-02", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	svc := &mockBudgetService{
		deleteBudgetFn: func(id uint) error {
			if id != 5 {
				t.Errorf("expected budget 5, got %d", id)
			}
			return nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, nil, testClock))

	rec := doRequest(r, "DELETE", "/budgets/5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBudgetHandler_StreamBudgets(t *testing.T) {
	t.Run("writes one event per snapshot", func(t *testing.T) {
		streamer := &mockStreamer{snapshots: []services.BudgetSnapshot{
			{Rows: []aggregate.BudgetRow{{CategoryName: "Food"}}},
			{Rows: []aggregate.BudgetRow{{CategoryName: "Food"}, {CategoryName: "Rent"}}},
		}}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, streamer, testClock))

		rec := doRequest(r, "GET", "/budgets/stream?period=2025-03", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if n := strings.Count(body, "event:budgets"); n != 2 {
			t.Errorf("expected 2 events, got %d: %s", n, body)
		}
		if !strings.Contains(body, `"period":"2025-03"`) {
			t.Errorf("expected period in payload: %s", body)
		}
	})

	t.Run("ends with an error event on failure", func(t *testing.T) {
		streamer := &mockStreamer{snapshots: []services.BudgetSnapshot{{Err: errors.New("boom")}}}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, streamer, testClock))

		rec := doRequest(r, "GET", "/budgets/stream", "")

		if !strings.Contains(rec.Body.String(), "event:error") {
			t.Errorf("expected error event: %s", rec.Body.String())
		}
	})

	t.Run("returns 404 without a streamer", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, nil, testClock))

		rec := doRequest(r, "GET", "/budgets/stream", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
