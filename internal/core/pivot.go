package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	PeriodWeek    PivotPeriod = "week"
	PeriodMonth   PivotPeriod = "month"
	PeriodQuarter PivotPeriod = "quarter"
	PeriodYear    PivotPeriod = "year"

	LevelCategory    PivotLevel = "category"
	LevelSubcategory PivotLevel = "subcategory"

	// AllSharingGroups disables the sharing-group filter.
	AllSharingGroups = "-"

	// pivotJoiner separates group and subcategory in compound column names.
	pivotJoiner = "/"
)

type (
	PivotPeriod string
	PivotLevel  string

	PivotParams struct {
		Period PivotPeriod
		Level  PivotLevel
		// SharingGroup filters to one Splitwise sharing group id
		// (decimal string). Empty or "-" keeps everything.
		SharingGroup string
	}

	PivotRow struct {
		Period string
		Cells  []decimal.Decimal // aligned with PivotTable.Columns
		Total  decimal.Decimal
	}

	PivotTable struct {
		Period  PivotPeriod
		Level   PivotLevel
		Columns []string
		Rows    []PivotRow
	}
)

var (
	ErrUnknownPeriod = errors.New("unknown pivot period")
	ErrUnknownLevel  = errors.New("unknown pivot level")
)

func (p PivotPeriod) Validate() error {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return nil
	}
	return ErrUnknownPeriod
}

func (l PivotLevel) Validate() error {
	switch l {
	case LevelCategory, LevelSubcategory:
		return nil
	}
	return ErrUnknownLevel
}

// BuildPivot aggregates expenses into a period-by-category table. Rows are
// sorted by period ascending, columns lexically, and every row carries a
// trailing total over its cells. Missing period/column combinations render
// as zero.
func BuildPivot(expenses []Expense, params PivotParams) (PivotTable, error) {
	if err := params.Period.Validate(); err != nil {
		return PivotTable{}, err
	}
	if err := params.Level.Validate(); err != nil {
		return PivotTable{}, err
	}

	type rowAgg struct {
		label string
		cells map[string]decimal.Decimal
	}
	rows := map[string]*rowAgg{}
	columns := map[string]bool{}

	for _, e := range expenses {
		if !matchesSharingGroup(e, params.SharingGroup) {
			continue
		}
		sortKey, label := periodKey(params.Period, e.Date)
		col := columnKey(params.Level, e)

		agg, ok := rows[sortKey]
		if !ok {
			agg = &rowAgg{label: label, cells: map[string]decimal.Decimal{}}
			rows[sortKey] = agg
		}
		agg.cells[col] = agg.cells[col].Add(e.Amount)
		columns[col] = true
	}

	colNames := make([]string, 0, len(columns))
	for name := range columns {
		colNames = append(colNames, name)
	}
	sort.Strings(colNames)

	rowKeys := make([]string, 0, len(rows))
	for key := range rows {
		rowKeys = append(rowKeys, key)
	}
	sort.Strings(rowKeys)

	table := PivotTable{
		Period:  params.Period,
		Level:   params.Level,
		Columns: colNames,
		Rows:    make([]PivotRow, 0, len(rowKeys)),
	}
	for _, key := range rowKeys {
		agg := rows[key]
		row := PivotRow{
			Period: agg.label,
			Cells:  make([]decimal.Decimal, len(colNames)),
		}
		for i, col := range colNames {
			row.Cells[i] = agg.cells[col]
			row.Total = row.Total.Add(agg.cells[col])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func matchesSharingGroup(e Expense, filter string) bool {
	if filter == "" || filter == AllSharingGroups {
		return true
	}
	return strconv.FormatInt(e.GroupID, 10) == filter
}

func columnKey(level PivotLevel, e Expense) string {
	group := GroupForSubcategory(e.Subcategory)
	if level == LevelSubcategory {
		return group + pivotJoiner + e.Subcategory
	}
	return group
}

// periodKey returns a sortable key and a display label for the expense's
// period bucket. Labels are their own sort keys.
func periodKey(period PivotPeriod, d Day) (string, string) {
	switch period {
	case PeriodWeek:
		label := fmt.Sprintf("%04d-W%02d", d.Year(), mondayWeek(d))
		return label, label
	case PeriodMonth:
		label := d.Format("2006-01")
		return label, label
	case PeriodQuarter:
		label := fmt.Sprintf("%04dQ%d", d.Year(), (int(d.Month())+2)/3)
		return label, label
	default:
		label := d.Format("2006")
		return label, label
	}
}

// mondayWeek is the Monday-first week number of the year, with days before
// the first Monday in week zero.
func mondayWeek(d Day) int {
	monday := (int(d.Weekday()) + 6) % 7
	return (d.YearDay() - 1 - monday + 7) / 7
}
