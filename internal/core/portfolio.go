package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// CashFund and TotalFund name the synthetic series stored alongside real
// funds in a platform's value history.
const (
	CashFund  = "Cash"
	TotalFund = "Total"
)

type (
	// SeriesPoint is one date/value sample of a cash or total series.
	SeriesPoint struct {
		Date  Day
		Value decimal.Decimal
	}

	// FundPoint is one day of a fund's position history. UnitPrice and
	// Value are in pounds; Return is fractional, e.g. 0.05 for +5%.
	FundPoint struct {
		Date      Day
		UnitPrice decimal.Decimal
		Shares    decimal.Decimal
		Invested  decimal.Decimal
		Value     decimal.Decimal
		Return    decimal.Decimal
	}

	// PlatformHistory is the replay output for one platform account.
	PlatformHistory struct {
		Account string
		Cash    []SeriesPoint
		Funds   map[string][]FundPoint
		Total   []SeriesPoint
	}

	// fundEvent is the position after a transaction settles.
	fundEvent struct {
		date     Day
		shares   decimal.Decimal
		invested decimal.Decimal
	}
)

// ClosestPriceOnOrBefore returns the latest price dated on or before d.
// Points must be sorted by date ascending.
func ClosestPriceOnOrBefore(points []PricePoint, d Day) (PricePoint, error) {
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(d)
	})
	if idx == 0 {
		return PricePoint{}, ErrNoPriceHistory
	}
	return points[idx-1], nil
}

// ReplayPlatform replays a platform's transaction log against unit-price
// history and rebuilds the account's value series from scratch:
//
//   - Transfer in credits cash, Transfer out and both fee kinds debit it.
//   - Buy debits cash and opens or grows a position; the share delta is the
//     broker-corrected count when present, else price over unit price.
//   - Sell credits cash, shrinks the position by the same share rule, and
//     releases invested capital in proportion to the shares sold.
//   - Dividend credits cash; a reinvestment appears as its own Buy row.
//
// Unit prices are the closest stored price on or before the transaction
// date, converted from pence. Replay is deterministic: the same inputs
// always produce the same series.
func ReplayPlatform(account string, txs []PlatformTransaction, prices map[string][]PricePoint) (PlatformHistory, error) {
	history := PlatformHistory{Account: account, Funds: map[string][]FundPoint{}}
	if len(txs) == 0 {
		return history, nil
	}

	ordered := make([]PlatformTransaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	start := ordered[0].Date
	cash := decimal.Zero
	cashPoints := []SeriesPoint{{Date: start.AddDays(-1), Value: decimal.Zero}}
	events := map[string][]fundEvent{}

	for _, tx := range ordered {
		if err := tx.Validate(); err != nil {
			return PlatformHistory{}, fmt.Errorf("transaction on %s: %w", tx.Date, err)
		}

		switch tx.Category {
		case TransferIn, Dividend, Sell:
			cash = cash.Add(tx.Price)
		case TransferOut, FeeService, FeeAdvisor, Buy:
			cash = cash.Sub(tx.Price)
		}

		if tx.Category.MovesFund() {
			unit, err := unitPriceOn(prices[tx.Fund], tx.Fund, tx.Date)
			if err != nil {
				return PlatformHistory{}, err
			}
			shares, invested := lastPosition(events[tx.Fund])

			delta := tx.CorrectedShares
			if !delta.IsPositive() {
				delta = tx.Price.Div(unit)
			}

			switch tx.Category {
			case Buy:
				shares = shares.Add(delta)
				invested = invested.Add(tx.Price)
			case Sell:
				if delta.GreaterThan(shares) {
					return PlatformHistory{}, fmt.Errorf("%s on %s: %w", tx.Fund, tx.Date, ErrOversoldFund)
				}
				invested = invested.Sub(invested.Mul(delta).Div(shares))
				shares = shares.Sub(delta)
				if shares.IsZero() {
					invested = decimal.Zero
				}
			}
			events[tx.Fund] = upsertEvent(events[tx.Fund], fundEvent{
				date: tx.Date, shares: shares, invested: invested,
			})
		}

		cashPoints = upsertPoint(cashPoints, SeriesPoint{Date: tx.Date, Value: cash})
	}

	for fund, evs := range events {
		series, err := buildFundSeries(prices[fund], fund, evs, start)
		if err != nil {
			return PlatformHistory{}, err
		}
		history.Funds[fund] = series
	}
	history.Cash = cashPoints
	history.Total = buildTotalSeries(cashPoints, history.Funds)
	return history, nil
}

func unitPriceOn(points []PricePoint, fund string, d Day) (decimal.Decimal, error) {
	pp, err := ClosestPriceOnOrBefore(points, d)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s on %s: %w", fund, d, err)
	}
	return PenceToPounds(pp.AdjClose), nil
}

func lastPosition(evs []fundEvent) (shares, invested decimal.Decimal) {
	if len(evs) == 0 {
		return decimal.Zero, decimal.Zero
	}
	last := evs[len(evs)-1]
	return last.shares, last.invested
}

// upsertEvent keeps one event per date; several same-day transactions
// collapse to the end-of-day position.
func upsertEvent(evs []fundEvent, ev fundEvent) []fundEvent {
	if n := len(evs); n > 0 && evs[n-1].date.Equal(ev.date) {
		evs[n-1] = ev
		return evs
	}
	return append(evs, ev)
}

func upsertPoint(points []SeriesPoint, p SeriesPoint) []SeriesPoint {
	if n := len(points); n > 0 && points[n-1].Date.Equal(p.Date) {
		points[n-1] = p
		return points
	}
	return append(points, p)
}

// buildFundSeries samples the position at every price date from the
// platform start onward, plus the transaction dates themselves.
func buildFundSeries(points []PricePoint, fund string, evs []fundEvent, start Day) ([]FundPoint, error) {
	dateSet := map[string]Day{}
	for _, pp := range points {
		if pp.Date.Before(start) {
			continue
		}
		dateSet[pp.Date.String()] = pp.Date
	}
	for _, ev := range evs {
		dateSet[ev.date.String()] = ev.date
	}
	keys := make([]string, 0, len(dateSet))
	for k := range dateSet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]FundPoint, 0, len(keys))
	for _, k := range keys {
		d := dateSet[k]
		unit, err := unitPriceOn(points, fund, d)
		if err != nil {
			return nil, err
		}
		shares, invested := positionAt(evs, d)
		value := shares.Mul(unit)
		ret := decimal.Zero
		if invested.IsPositive() {
			ret = value.Sub(invested).Div(invested)
		}
		series = append(series, FundPoint{
			Date:      d,
			UnitPrice: unit,
			Shares:    shares,
			Invested:  invested,
			Value:     value,
			Return:    ret,
		})
	}
	return series, nil
}

func positionAt(evs []fundEvent, d Day) (shares, invested decimal.Decimal) {
	idx := sort.Search(len(evs), func(i int) bool {
		return evs[i].date.After(d)
	})
	if idx == 0 {
		return decimal.Zero, decimal.Zero
	}
	return evs[idx-1].shares, evs[idx-1].invested
}

// buildTotalSeries sums cash and every fund's value over the union of
// their sample dates.
func buildTotalSeries(cash []SeriesPoint, funds map[string][]FundPoint) []SeriesPoint {
	dateSet := map[string]Day{}
	for _, p := range cash {
		dateSet[p.Date.String()] = p.Date
	}
	for _, series := range funds {
		for _, fp := range series {
			dateSet[fp.Date.String()] = fp.Date
		}
	}
	keys := make([]string, 0, len(dateSet))
	for k := range dateSet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := make([]SeriesPoint, 0, len(keys))
	for _, k := range keys {
		d := dateSet[k]
		sum := cashValueAt(cash, d)
		for _, series := range funds {
			sum = sum.Add(fundValueAt(series, d))
		}
		total = append(total, SeriesPoint{Date: d, Value: sum})
	}
	return total
}

func cashValueAt(points []SeriesPoint, d Day) decimal.Decimal {
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(d)
	})
	if idx == 0 {
		return decimal.Zero
	}
	return points[idx-1].Value
}

func fundValueAt(series []FundPoint, d Day) decimal.Decimal {
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(d)
	})
	if idx == 0 {
		return decimal.Zero
	}
	return series[idx-1].Value
}
