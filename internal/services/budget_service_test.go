package services

import (
	"testing"

	"gastos/internal/aggregate"
	"gastos/internal/models"
	"gastos/internal/testutil"
)

func TestSetBudget(t *testing.T) {
	t.Run("creates_then_replaces", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)
		cat := testutil.CreateTestCategory(t, db, "Food")

		first, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("2000"), "2025-05")
		testutil.AssertNoError(t, err)

		second, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("2500"), "2025-05")
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected the same budget row, got %d and %d", first.ID, second.ID)
		}
		if !second.Amount.Equal(testutil.Dec("2500")) {
			t.Errorf("expected amount 2500, got %s", second.Amount)
		}
		if n := testutil.CountRows(t, db, &models.Budget{}, ""); n != 1 {
			t.Errorf("expected exactly one budget row, got %d", n)
		}
	})

	t.Run("zero_is_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)
		cat := testutil.CreateTestCategory(t, db, "Food")

		_, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("0"), "2025-05")
		testutil.AssertNoError(t, err)
	})

	t.Run("rejects_negative", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)
		cat := testutil.CreateTestCategory(t, db, "Food")

		_, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("-1"), "2025-05")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
		if n := testutil.CountRows(t, db, &models.Budget{}, ""); n != 0 {
			t.Errorf("expected nothing stored, got %d", n)
		}
	})

	t.Run("rejects_sub_cent_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)
		cat := testutil.CreateTestCategory(t, db, "Food")

		_, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("19.999"), "2025-05")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
		if n := testutil.CountRows(t, db, &models.Budget{}, ""); n != 0 {
			t.Errorf("expected nothing stored, got %d", n)
		}
	})

	t.Run("rejects_bad_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)
		cat := testutil.CreateTestCategory(t, db, "Food")

		_, err := svc.SetBudget(ctx, cat.ID, testutil.Dec("10"), "May 2025")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, nil, nil)

		_, err := svc.SetBudget(ctx, 99, testutil.Dec("10"), "2025-05")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetBudgetsForPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, nil, nil)

	food := testutil.CreateTestCategory(t, db, "Food")
	rent := testutil.CreateTestCategory(t, db, "Rent")
	testutil.CreateTestBudget(t, db, food.ID, "2025-05", "2000")
	testutil.CreateTestBudget(t, db, rent.ID, "2025-05", "1000")
	testutil.CreateTestTransaction(t, db, &food.ID, "2025-05-03", "-500")
	testutil.CreateTestTransaction(t, db, &food.ID, "2025-05-20", "-1000")
	testutil.CreateTestTransaction(t, db, &food.ID, "2025-06-01", "-900")
	testutil.CreateTestTransaction(t, db, &rent.ID, "2025-05-01", "-950")

	rows, err := svc.GetBudgetsForPeriod(ctx, "2025-05")
	testutil.AssertNoError(t, err)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CategoryName != "Food" || rows[1].CategoryName != "Rent" {
		t.Fatalf("expected Food then Rent, got %s then %s", rows[0].CategoryName, rows[1].CategoryName)
	}
	if !rows[0].Spent.Equal(testutil.Dec("1500")) {
		t.Errorf("expected Food spent 1500, got %s", rows[0].Spent)
	}
	if rows[0].Progress != 0.75 {
		t.Errorf("expected Food progress 0.75, got %v", rows[0].Progress)
	}
	if rows[0].Status != aggregate.StatusNormal {
		t.Errorf("expected Food normal, got %s", rows[0].Status)
	}
	if rows[1].Status != aggregate.StatusNearLimit {
		t.Errorf("expected Rent near_limit, got %s", rows[1].Status)
	}

	_, err = svc.GetBudgetsForPeriod(ctx, "2025-5")
	testutil.AssertAppError(t, err, "VALIDATION_ERROR")
}

func TestGetSpendingBreakdown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, nil, nil)

	food := testutil.CreateTestCategory(t, db, "Food")
	testutil.CreateTestTransaction(t, db, &food.ID, "2025-05-03", "-100")
	testutil.CreateTestTransaction(t, db, nil, "2025-05-04", "-300")

	slices, err := svc.GetSpendingBreakdown(ctx, "2025-05")
	testutil.AssertNoError(t, err)

	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].CategoryName != models.UncategorizedName {
		t.Errorf("expected uncategorized first, got %s", slices[0].CategoryName)
	}
}

func TestGetAndDeleteBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, nil, nil)

	cat := testutil.CreateTestCategory(t, db, "Food")
	created := testutil.CreateTestBudget(t, db, cat.ID, "2025-05", "2000")

	b, err := svc.GetBudget(ctx, cat.ID, "2025-05")
	testutil.AssertNoError(t, err)
	if b.ID != created.ID {
		t.Errorf("expected budget %d, got %d", created.ID, b.ID)
	}

	_, err = svc.GetBudget(ctx, cat.ID, "2025-06")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

	testutil.AssertNoError(t, svc.DeleteBudget(ctx, created.ID))
	err = svc.DeleteBudget(ctx, created.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}
