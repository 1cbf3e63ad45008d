package google

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

// ukDayFormat covers sheets whose date column renders in UK locale
// instead of ISO.
const ukDayFormat = "02/01/2006"

// ParseTransactions converts a values matrix (as returned by the Sheets
// API) into platform transactions, oldest first. The header row must name
// Date, Category, Fund and Price; Corrected shares is optional. Rows with
// a blank date or an empty or zero price cell are skipped, anything else
// malformed is an error carrying the row number.
func ParseTransactions(values [][]any) ([]core.PlatformTransaction, error) {
	if len(values) == 0 {
		return nil, errors.New("platform sheet is empty")
	}

	headers := toStrings(values[0])
	colDate := indexOf(headers, "Date")
	colCategory := indexOf(headers, "Category")
	colFund := indexOf(headers, "Fund")
	colPrice := indexOf(headers, "Price")
	colShares := indexOf(headers, "Corrected shares")
	if colDate == -1 || colCategory == -1 || colFund == -1 || colPrice == -1 {
		missing := make([]string, 0, 4)
		for _, col := range []struct {
			idx  int
			name string
		}{
			{colDate, "Date"},
			{colCategory, "Category"},
			{colFund, "Fund"},
			{colPrice, "Price"},
		} {
			if col.idx == -1 {
				missing = append(missing, col.name)
			}
		}
		return nil, fmt.Errorf("unexpected platform header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.PlatformTransaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])

		// Formatted-but-empty trailing rows come through with a blank
		// date cell.
		dateStr := safeGet(row, colDate)
		if dateStr == "" {
			continue
		}
		date, err := parseSheetDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %q", i+1, err, dateStr)
		}

		price, ok := parseMoney(safeGet(row, colPrice))
		if !ok || price.IsZero() {
			continue
		}

		tx := core.PlatformTransaction{
			Date:     date,
			Category: core.TransactionCategory(safeGet(row, colCategory)),
			Fund:     safeGet(row, colFund),
			Price:    price,
		}
		if colShares != -1 {
			if shares, ok := parseMoney(safeGet(row, colShares)); ok {
				tx.CorrectedShares = shares
			}
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// parseSheetDay accepts ISO dates plus the UK rendering.
func parseSheetDay(s string) (core.Day, error) {
	if day, err := core.ParseDay(s); err == nil {
		return day, nil
	}
	t, err := time.Parse(ukDayFormat, s)
	if err != nil {
		return core.Day{}, core.ErrInvalidDate
	}
	return core.DayOf(t), nil
}

// parseMoney strips the currency formatting sheets apply to price cells.
func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
