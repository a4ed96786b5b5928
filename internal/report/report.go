// Package report renders budget rows and spending breakdowns for the
// command line, as CSV or as an aligned text table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"

	"gastos/internal/aggregate"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown format %q (want table or csv)", s)
}

type budgetRecord struct {
	Category  string `csv:"category"`
	Period    string `csv:"period"`
	Budget    string `csv:"budget"`
	Spent     string `csv:"spent"`
	Remaining string `csv:"remaining"`
	Progress  string `csv:"progress"`
	Status    string `csv:"status"`
}

type sliceRecord struct {
	Category string `csv:"category"`
	Total    string `csv:"total"`
	Share    string `csv:"share"`
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func budgetRecords(rows []aggregate.BudgetRow) []*budgetRecord {
	out := make([]*budgetRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &budgetRecord{
			Category:  r.CategoryName,
			Period:    r.Period,
			Budget:    r.Amount.StringFixed(2),
			Spent:     r.Spent.StringFixed(2),
			Remaining: r.Remaining.StringFixed(2),
			Progress:  percent(r.Progress),
			Status:    string(r.Status),
		})
	}
	return out
}

func sliceRecords(slices []aggregate.Slice) []*sliceRecord {
	out := make([]*sliceRecord, 0, len(slices))
	for _, s := range slices {
		out = append(out, &sliceRecord{
			Category: s.CategoryName,
			Total:    s.Total.StringFixed(2),
			Share:    percent(s.Share),
		})
	}
	return out
}

func writeCSV(w io.Writer, records interface{}) error {
	cw := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(records, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// Budgets writes budget rows in the given format.
func Budgets(w io.Writer, format Format, rows []aggregate.BudgetRow) error {
	records := budgetRecords(rows)
	if format == FormatCSV {
		return writeCSV(w, records)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tPROGRESS\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Category, r.Budget, r.Spent, r.Remaining, r.Progress, r.Status)
	}
	return tw.Flush()
}

// Breakdown writes spending slices in the given format.
func Breakdown(w io.Writer, format Format, slices []aggregate.Slice) error {
	records := sliceRecords(slices)
	if format == FormatCSV {
		return writeCSV(w, records)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL\tSHARE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Category, r.Total, r.Share)
	}
	return tw.Flush()
}
