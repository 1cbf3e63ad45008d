package backend

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	feedsmemory "smartfinances/internal/feeds/memory"
	"smartfinances/internal/services"
	sheetsmemory "smartfinances/internal/sheets/memory"
)

// Demo identifiers used when the memory backend runs without a
// parameters file.
const (
	demoUserID        = 1001
	demoAccount       = "Demo ISA"
	demoFund          = "Global Equity"
	demoTicker        = "GLBX.L"
	demoSpreadsheetID = "demo-isa"
	demoReadRange     = "Transactions!A2:F"
)

// withDemoDefaults fills the gaps a credential-free run leaves so the
// fixture pipeline still has a user, a fund and a platform to work with.
func withDemoDefaults(config Config) Config {
	if config.SplitwiseUserID == 0 {
		config.SplitwiseUserID = demoUserID
	}
	if len(config.Investments) == 0 {
		config.Investments = []core.Investment{{
			Ticker:    demoTicker,
			Name:      demoFund,
			Source:    core.SourceYahoo,
			StartDate: monthsAgo(5).FirstOfMonth(),
			Account:   demoAccount,
		}}
	}
	if len(config.PlatformSheets) == 0 {
		config.PlatformSheets = []services.PlatformSheet{{
			Account:       demoAccount,
			SpreadsheetID: demoSpreadsheetID,
			ReadRange:     demoReadRange,
		}}
	}
	return config
}

// seedDemoData loads the fixture stores with a few months of plausible
// data: recurring expenses, one foreign-currency row, weekly fund prices,
// a platform log and a CPIH series. Dates track today so the dashboard's
// current-month views are never empty.
func seedDemoData(store *feedsmemory.Store, reader *sheetsmemory.Store, config Config) {
	seedDemoExpenses(store, config.SplitwiseUserID)
	seedDemoPrices(store, config.Investments)
	seedDemoInflation(store)
	seedDemoPlatformLog(reader, config)
}

func seedDemoExpenses(store *feedsmemory.Store, userID int64) {
	type row struct {
		dayOfMonth  int
		description string
		category    string
		owed        string
		currency    string
		details     string
		groupID     int64
	}
	basket := []row{
		{1, "Rent", "Rent", "950.00", "GBP", "", 0},
		{3, "Weekly shop", "Groceries", "52.40", "GBP", "", 0},
		{6, "Coffee and cake", "Dining out", "11.80", "GBP", "", 0},
		{9, "Monthly travelcard", "Bus/train", "156.30", "GBP", "", 0},
		{12, "Weekly shop", "Groceries", "47.15", "GBP", "", 0},
		{14, "Cinema tickets", "Movies", "21.00", "GBP", "paid with PayPal", 0},
		{16, "Electricity bill", "Electricity", "68.90", "GBP", "", 3},
		{19, "Weekly shop", "Groceries", "55.60", "GBP", "", 0},
		{21, "Pizza night", "Dining out", "34.50", "GBP", "", 3},
		{26, "Weekly shop", "Groceries", "49.95", "GBP", "", 0},
	}

	var (
		expenses []feeds.SplitwiseExpense
		id       int64 = 9000
	)
	today := core.Today()
	for back := 4; back >= 0; back-- {
		month := monthsAgo(back).FirstOfMonth()
		for _, r := range basket {
			date := month.AddDays(r.dayOfMonth - 1)
			if date.After(today) {
				continue
			}
			id++
			expense := feeds.SplitwiseExpense{
				ID:           id,
				Date:         date.String(),
				Description:  r.description,
				Category:     r.category,
				CurrencyCode: r.currency,
				Users: []feeds.SplitwiseShare{{
					UserID:    userID,
					OwedShare: r.owed,
					PaidShare: r.owed,
				}},
			}
			if r.details != "" {
				details := r.details
				expense.Details = &details
			}
			if r.groupID != 0 {
				groupID := r.groupID
				expense.GroupID = &groupID
			}
			expenses = append(expenses, expense)
		}
	}

	// One foreign-currency row to exercise the rate cache.
	holiday := monthsAgo(2).FirstOfMonth().AddDays(7)
	id++
	expenses = append(expenses, feeds.SplitwiseExpense{
		ID:           id,
		Date:         holiday.String(),
		Description:  "Dinner in Lisbon",
		Category:     "Dining out",
		CurrencyCode: "EUR",
		Users: []feeds.SplitwiseShare{{
			UserID:    userID,
			OwedShare: "36.40",
			PaidShare: "36.40",
		}},
	})
	store.SetRates(holiday, map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("1.17"),
	})

	store.SetExpenses(expenses)
}

// seedDemoPrices writes a weekly pence series per investment with a mild
// upward drift, starting exactly at the investment start date so replay
// always finds a price.
func seedDemoPrices(store *feedsmemory.Store, investments []core.Investment) {
	today := core.Today()
	for i, inv := range investments {
		base := decimal.NewFromInt(int64(24000 + 500*i))
		step := decimal.NewFromInt(int64(40 + 10*i))

		var points []core.PricePoint
		for week, date := 0, inv.StartDate; !date.After(today); week, date = week+1, date.AddDays(7) {
			points = append(points, core.PricePoint{
				Date:     date,
				AdjClose: base.Add(step.Mul(decimal.NewFromInt(int64(week)))),
			})
		}
		store.SetPrices(inv.Ticker, points)
	}
}

func seedDemoInflation(store *feedsmemory.Store) {
	rates := []string{"4.2", "4.0", "3.8", "3.9", "3.6", "3.4", "3.2", "3.3", "3.1", "2.9", "2.8", "2.8"}
	points := make([]core.InflationPoint, 0, len(rates))
	for i, rate := range rates {
		points = append(points, core.InflationPoint{
			Month: monthsAgo(len(rates) - 1 - i).FirstOfMonth(),
			Rate:  decimal.RequireFromString(rate),
		})
	}
	store.SetInflation(points)
}

// seedDemoPlatformLog stages a small transfer-buy-fee-dividend log for
// every configured sheet. Buy rows reference the sheet account's first
// investment and start no earlier than its price history.
func seedDemoPlatformLog(reader *sheetsmemory.Store, config Config) {
	for _, sheet := range config.PlatformSheets {
		start := monthsAgo(5).FirstOfMonth()
		fund := ""
		for _, inv := range config.Investments {
			if inv.Account == sheet.Account {
				fund = inv.Name
				if start.Before(inv.StartDate) {
					start = inv.StartDate
				}
				break
			}
		}

		log := []core.PlatformTransaction{
			{Date: start, Category: core.TransferIn, Price: decimal.NewFromInt(2000)},
			{Date: start.AddDays(32), Category: core.TransferIn, Price: decimal.NewFromInt(250)},
			{Date: start.AddDays(58), Category: core.FeeService, Price: decimal.RequireFromString("2.50")},
			{Date: start.AddDays(121), Category: core.FeeService, Price: decimal.RequireFromString("2.50")},
		}
		if fund != "" {
			log = append(log,
				core.PlatformTransaction{Date: start.AddDays(3), Category: core.Buy, Fund: fund, Price: decimal.NewFromInt(1500)},
				core.PlatformTransaction{Date: start.AddDays(35), Category: core.Buy, Fund: fund, Price: decimal.NewFromInt(200)},
				core.PlatformTransaction{Date: start.AddDays(90), Category: core.Dividend, Fund: fund, Price: decimal.RequireFromString("12.30")},
			)
		}

		today := core.Today()
		txs := make([]core.PlatformTransaction, 0, len(log))
		for _, tx := range log {
			if !tx.Date.After(today) {
				txs = append(txs, tx)
			}
		}
		sort.Slice(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })
		reader.SetTransactions(sheet.SpreadsheetID, txs)
	}
}

// monthsAgo returns today shifted back whole calendar months.
func monthsAgo(n int) core.Day {
	return core.DayOf(time.Now().UTC().AddDate(0, -n, 0))
}
