// Package services holds the ingest pipelines that pull provider data
// into storage and the refresh orchestrator that runs them.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/storage"
)

// RateService converts expense amounts into the base currency. Rates are
// cached in storage keyed by date+currency, so each pair costs at most
// one provider call ever.
type RateService struct {
	storage *storage.SQLiteRepository
	source  feeds.RateSource
	base    string

	mu     sync.Mutex
	loaded bool
	rates  map[string]decimal.Decimal
}

func NewRateService(repo *storage.SQLiteRepository, source feeds.RateSource, base string) *RateService {
	return &RateService{
		storage: repo,
		source:  source,
		base:    base,
		rates:   map[string]decimal.Decimal{},
	}
}

// Convert returns the expenses with Amount filled in: Owed for rows
// already in the base currency, Owed divided by the day's rate otherwise.
// Unseen date+currency pairs are grouped by date, fetched one call per
// date, and persisted before converting. A rate still missing after the
// fetch is an error rather than a silent 1.0.
func (s *RateService) Convert(ctx context.Context, expenses []core.Expense) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	missing := map[string][]string{}
	for _, e := range expenses {
		if e.CurrencyCode == s.base {
			continue
		}
		key := core.RateKey{Date: e.Date, Currency: e.CurrencyCode}
		if _, ok := s.rates[key.String()]; ok {
			continue
		}
		date := e.Date.String()
		if !contains(missing[date], e.CurrencyCode) {
			missing[date] = append(missing[date], e.CurrencyCode)
		}
	}

	if len(missing) > 0 {
		if err := s.fetchMissing(ctx, missing); err != nil {
			return nil, err
		}
	}

	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	for i := range out {
		if out[i].CurrencyCode == s.base {
			out[i].Amount = out[i].Owed
			continue
		}
		key := core.RateKey{Date: out[i].Date, Currency: out[i].CurrencyCode}
		rate, ok := s.rates[key.String()]
		if !ok || !rate.IsPositive() {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingRate, key)
		}
		out[i].Amount = out[i].Owed.Div(rate)
	}
	return out, nil
}

func (s *RateService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	stored, err := s.storage.LoadRates(ctx)
	if err != nil {
		return fmt.Errorf("load stored rates: %w", err)
	}
	for k, v := range stored {
		s.rates[k] = v
	}
	s.loaded = true
	slog.DebugContext(ctx, "Exchange rate cache warmed", "entries", len(stored))
	return nil
}

func (s *RateService) fetchMissing(ctx context.Context, missing map[string][]string) error {
	dates := make([]string, 0, len(missing))
	for date := range missing {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day, err := core.ParseDay(date)
		if err != nil {
			return err
		}
		symbols := missing[date]
		sort.Strings(symbols)

		rates, err := s.source.FetchRates(ctx, day, symbols)
		if err != nil {
			return fmt.Errorf("fetch rates for %s: %w", date, err)
		}
		for currency, rate := range rates {
			key := core.RateKey{Date: day, Currency: currency}
			if err := s.storage.SaveRate(ctx, key, rate); err != nil {
				return err
			}
			s.rates[key.String()] = rate
		}
		slog.InfoContext(ctx, "Exchange rates fetched",
			"date", date, "requested", len(symbols), "returned", len(rates))
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
