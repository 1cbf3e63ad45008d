package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pivotExpense(id int64, date Day, sub string, groupID int64, amount string) Expense {
	return Expense{
		ID:           id,
		Date:         date,
		Description:  "test",
		Subcategory:  sub,
		Account:      AccountCurrent,
		CurrencyCode: "GBP",
		GroupID:      groupID,
		Owed:         decimal.RequireFromString(amount),
		Paid:         decimal.Zero,
		Amount:       decimal.RequireFromString(amount),
	}
}

func TestBuildPivotMonthlyByCategory(t *testing.T) {
	expenses := []Expense{
		pivotExpense(1, NewDay(2023, 1, 5), "Groceries", 0, "10.50"),
		pivotExpense(2, NewDay(2023, 1, 20), "Dining out", 0, "20"),
		pivotExpense(3, NewDay(2023, 2, 3), "Groceries", 0, "5.25"),
		pivotExpense(4, NewDay(2023, 2, 10), "Taxi", 0, "8"),
	}
	table, err := BuildPivot(expenses, PivotParams{Period: PeriodMonth, Level: LevelCategory})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	wantCols := []string{"Food & drink", "Transportation"}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("expected columns %v, got %v", wantCols, table.Columns)
	}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Fatalf("expected columns %v, got %v", wantCols, table.Columns)
		}
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	jan, feb := table.Rows[0], table.Rows[1]
	if jan.Period != "2023-01" || feb.Period != "2023-02" {
		t.Fatalf("unexpected period labels: %s, %s", jan.Period, feb.Period)
	}
	if !jan.Cells[0].Equal(decimal.RequireFromString("30.5")) {
		t.Fatalf("Jan food expected 30.5, got %s", jan.Cells[0])
	}
	if !jan.Cells[1].IsZero() {
		t.Fatalf("Jan transport expected 0, got %s", jan.Cells[1])
	}
	if !jan.Total.Equal(decimal.RequireFromString("30.5")) {
		t.Fatalf("Jan total expected 30.5, got %s", jan.Total)
	}
	if !feb.Total.Equal(decimal.RequireFromString("13.25")) {
		t.Fatalf("Feb total expected 13.25, got %s", feb.Total)
	}
}

func TestBuildPivotSubcategoryColumns(t *testing.T) {
	expenses := []Expense{
		pivotExpense(1, NewDay(2023, 1, 5), "Groceries", 0, "10"),
		pivotExpense(2, NewDay(2023, 1, 6), "Dining out", 0, "20"),
	}
	table, err := BuildPivot(expenses, PivotParams{Period: PeriodYear, Level: LevelSubcategory})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	wantCols := []string{"Food & drink/Dining out", "Food & drink/Groceries"}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Fatalf("expected columns %v, got %v", wantCols, table.Columns)
		}
	}
	if table.Rows[0].Period != "2023" {
		t.Fatalf("expected year label 2023, got %s", table.Rows[0].Period)
	}
}

func TestBuildPivotPeriodLabels(t *testing.T) {
	d := NewDay(2023, 5, 14)
	cases := []struct {
		period PivotPeriod
		want   string
	}{
		{PeriodWeek, "2023-W19"},
		{PeriodMonth, "2023-05"},
		{PeriodQuarter, "2023Q2"},
		{PeriodYear, "2023"},
	}
	for _, tc := range cases {
		table, err := BuildPivot(
			[]Expense{pivotExpense(1, d, "Groceries", 0, "1")},
			PivotParams{Period: tc.period, Level: LevelCategory},
		)
		if err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.period, err)
		}
		if table.Rows[0].Period != tc.want {
			t.Fatalf("%s expected label %s, got %s", tc.period, tc.want, table.Rows[0].Period)
		}
	}
}

func TestBuildPivotWeekZero(t *testing.T) {
	// 2023-01-01 is a Sunday: it lands before the first Monday, week 00.
	table, err := BuildPivot(
		[]Expense{pivotExpense(1, NewDay(2023, 1, 1), "Groceries", 0, "1")},
		PivotParams{Period: PeriodWeek, Level: LevelCategory},
	)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if table.Rows[0].Period != "2023-W00" {
		t.Fatalf("expected 2023-W00, got %s", table.Rows[0].Period)
	}
}

func TestBuildPivotSharingGroupFilter(t *testing.T) {
	expenses := []Expense{
		pivotExpense(1, NewDay(2023, 1, 5), "Groceries", 0, "10"),
		pivotExpense(2, NewDay(2023, 1, 6), "Groceries", 771, "99"),
	}

	all, err := BuildPivot(expenses, PivotParams{Period: PeriodMonth, Level: LevelCategory, SharingGroup: AllSharingGroups})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !all.Rows[0].Total.Equal(decimal.RequireFromString("109")) {
		t.Fatalf("unfiltered total expected 109, got %s", all.Rows[0].Total)
	}

	shared, err := BuildPivot(expenses, PivotParams{Period: PeriodMonth, Level: LevelCategory, SharingGroup: "771"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !shared.Rows[0].Total.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("filtered total expected 99, got %s", shared.Rows[0].Total)
	}
}

func TestBuildPivotRejectsUnknownParams(t *testing.T) {
	if _, err := BuildPivot(nil, PivotParams{Period: "fortnight", Level: LevelCategory}); err == nil {
		t.Fatalf("expected error for unknown period")
	}
	if _, err := BuildPivot(nil, PivotParams{Period: PeriodMonth, Level: "meta"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
