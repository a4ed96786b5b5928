package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gastos/internal/aggregate"
	"gastos/internal/calendar"
	"gastos/internal/logger"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/services"
	"gastos/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

var testClock = calendar.FixedClock(calendar.MustParse("2025-02-10"))

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn  func(name string) (*models.Category, error)
	getCategoriesFn   func() ([]models.Category, error)
	getCategoryByIDFn func(id uint) (*models.Category, error)
	deleteCategoryFn  func(id uint) error
}

func (m *mockCategoryService) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(name)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategories(context.Context) ([]models.Category, error) {
	if m.getCategoriesFn != nil {
		return m.getCategoriesFn()
	}
	return nil, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, id uint) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(id)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(_ context.Context, id uint) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(id)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn  func(title string, amount decimal.Decimal, date string, categoryID *uint) (*models.Transaction, error)
	getTransactionsFn    func(page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn func(id uint) (*models.Transaction, error)
	deleteTransactionFn  func(id uint) error
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, title string, amount decimal.Decimal, date string, categoryID *uint) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(title, amount, date, categoryID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransactions(_ context.Context, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getTransactionsFn != nil {
		return m.getTransactionsFn(page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, id uint) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(id)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, id uint) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(id)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- mock budget service ---

type mockBudgetService struct {
	setBudgetFn            func(categoryID uint, amount decimal.Decimal, period string) (*models.Budget, error)
	getBudgetsForPeriodFn  func(period string) ([]aggregate.BudgetRow, error)
	getBudgetFn            func(categoryID uint, period string) (*models.Budget, error)
	deleteBudgetFn         func(id uint) error
	getSpendingBreakdownFn func(period string) ([]aggregate.Slice, error)
}

func (m *mockBudgetService) SetBudget(_ context.Context, categoryID uint, amount decimal.Decimal, period string) (*models.Budget, error) {
	if m.setBudgetFn != nil {
		return m.setBudgetFn(categoryID, amount, period)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetsForPeriod(_ context.Context, period string) ([]aggregate.BudgetRow, error) {
	if m.getBudgetsForPeriodFn != nil {
		return m.getBudgetsForPeriodFn(period)
	}
	return nil, nil
}

func (m *mockBudgetService) GetBudget(_ context.Context, categoryID uint, period string) (*models.Budget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(categoryID, period)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, id uint) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(id)
	}
	return nil
}

func (m *mockBudgetService) GetSpendingBreakdown(_ context.Context, period string) ([]aggregate.Slice, error) {
	if m.getSpendingBreakdownFn != nil {
		return m.getSpendingBreakdownFn(period)
	}
	return nil, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

// --- mock budget streamer ---

type mockStreamer struct {
	snapshots []services.BudgetSnapshot
}

func (m *mockStreamer) Watch(ctx context.Context, periods <-chan string) <-chan services.BudgetSnapshot {
	out := make(chan services.BudgetSnapshot)
	go func() {
		defer close(out)
		period := <-periods
		for _, s := range m.snapshots {
			if s.Period == "" {
				s.Period = period
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

var _ services.BudgetStreamer = (*mockStreamer)(nil)

// --- mock recurring service ---

type mockRecurringService struct {
	createRecurringFn  func(in services.RecurringInput) (*models.RecurringDefinition, error)
	updateRecurringFn  func(id uint, in services.RecurringInput) (*models.RecurringDefinition, error)
	getRecurringByIDFn func(id uint) (*models.RecurringDefinition, error)
	getRecurringFn     func() ([]services.RecurringView, error)
	deleteRecurringFn  func(id uint) error
}

func (m *mockRecurringService) CreateRecurring(_ context.Context, in services.RecurringInput) (*models.RecurringDefinition, error) {
	if m.createRecurringFn != nil {
		return m.createRecurringFn(in)
	}
	return &models.RecurringDefinition{}, nil
}

func (m *mockRecurringService) UpdateRecurring(_ context.Context, id uint, in services.RecurringInput) (*models.RecurringDefinition, error) {
	if m.updateRecurringFn != nil {
		return m.updateRecurringFn(id, in)
	}
	return &models.RecurringDefinition{}, nil
}

func (m *mockRecurringService) GetRecurringByID(_ context.Context, id uint) (*models.RecurringDefinition, error) {
	if m.getRecurringByIDFn != nil {
		return m.getRecurringByIDFn(id)
	}
	return &models.RecurringDefinition{}, nil
}

func (m *mockRecurringService) GetRecurring(context.Context) ([]services.RecurringView, error) {
	if m.getRecurringFn != nil {
		return m.getRecurringFn()
	}
	return nil, nil
}

func (m *mockRecurringService) DeleteRecurring(_ context.Context, id uint) error {
	if m.deleteRecurringFn != nil {
		return m.deleteRecurringFn(id)
	}
	return nil
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

// --- mock scheduler ---

type mockScheduler struct {
	processDueFn func(today calendar.Date) (*services.ProcessResult, error)
}

func (m *mockScheduler) ProcessDue(_ context.Context, today calendar.Date) (*services.ProcessResult, error) {
	if m.processDueFn != nil {
		return m.processDueFn(today)
	}
	return &services.ProcessResult{Today: today.String()}, nil
}

func (m *mockScheduler) Close() {}

var _ services.SchedulerServicer = (*mockScheduler)(nil)
