package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"gastos/internal/calendar"
	"gastos/internal/models"
)

// Slice is one category's share of a period's spending.
type Slice struct {
	CategoryID   *uint           `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Share        float64         `json:"share"`
}

// Breakdown groups a period's expenses by category, largest first.
// Spending on unknown or missing categories is reported as Uncategorized.
func Breakdown(period calendar.Period, categories []models.Category, txs []models.Transaction) []Slice {
	names := make(map[uint]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	totals := spendingByCategory(period, txs)
	grand := decimal.Zero
	slices := make([]Slice, 0, len(totals))
	var uncategorized decimal.Decimal
	for id, total := range totals {
		grand = grand.Add(total)
		name, known := names[id]
		if id == 0 || !known {
			uncategorized = uncategorized.Add(total)
			continue
		}
		cid := id
		slices = append(slices, Slice{CategoryID: &cid, CategoryName: name, Total: total})
	}
	if uncategorized.IsPositive() {
		slices = append(slices, Slice{CategoryName: models.UncategorizedName, Total: uncategorized})
	}

	for i := range slices {
		slices[i].Share = Progress(slices[i].Total, grand)
	}

	sort.SliceStable(slices, func(i, j int) bool {
		if c := slices[i].Total.Cmp(slices[j].Total); c != 0 {
			return c > 0
		}
		return slices[i].CategoryName < slices[j].CategoryName
	})
	return slices
}
