// Package memory holds in-memory provider fakes used by the service tests
// and the memory backend.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

// Store serves fixture data through the provider ports. All methods honor
// the same window and date filters the live clients delegate upstream.
type Store struct {
	mu        sync.Mutex
	expenses  []feeds.SplitwiseExpense
	rates     map[string]map[string]decimal.Decimal
	prices    map[string][]core.PricePoint
	inflation []core.InflationPoint
	err       error

	rateCalls int
}

var (
	_ feeds.ExpenseSource   = (*Store)(nil)
	_ feeds.RateSource      = (*Store)(nil)
	_ feeds.PriceSource     = (*Store)(nil)
	_ feeds.InflationSource = (*Store)(nil)
)

func New() *Store {
	return &Store{rates: map[string]map[string]decimal.Decimal{}, prices: map[string][]core.PricePoint{}}
}

func (s *Store) SetExpenses(expenses []feeds.SplitwiseExpense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append([]feeds.SplitwiseExpense(nil), expenses...)
}

func (s *Store) SetRates(day core.Day, rates map[string]decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]decimal.Decimal, len(rates))
	for symbol, rate := range rates {
		copied[symbol] = rate
	}
	s.rates[day.String()] = copied
}

func (s *Store) SetPrices(ticker string, points []core.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[ticker] = append([]core.PricePoint(nil), points...)
}

func (s *Store) SetInflation(points []core.InflationPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflation = append([]core.InflationPoint(nil), points...)
}

// Fail makes every fetch return err until reset with Fail(nil).
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// RateCalls reports how many times FetchRates ran, so tests can assert
// that cached dates are not refetched.
func (s *Store) RateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateCalls
}

func (s *Store) FetchExpenses(_ context.Context, window core.Window) ([]feeds.SplitwiseExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []feeds.SplitwiseExpense
	for _, e := range s.expenses {
		if len(e.Date) < len(core.DayFormat) {
			continue
		}
		day, err := core.ParseDay(e.Date[:len(core.DayFormat)])
		if err != nil {
			continue
		}
		if day.Before(window.From) || day.After(window.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) FetchRates(_ context.Context, day core.Day, symbols []string) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateCalls++
	if s.err != nil {
		return nil, s.err
	}
	known := s.rates[day.String()]
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		if rate, ok := known[symbol]; ok {
			out[symbol] = rate
		}
	}
	return out, nil
}

func (s *Store) FetchPrices(_ context.Context, ticker string, window core.Window) ([]core.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []core.PricePoint
	for _, p := range s.prices[ticker] {
		if p.Date.Before(window.From) || p.Date.After(window.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) FetchInflation(_ context.Context, from core.Day) ([]core.InflationPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	min := from.FirstOfMonth()
	var out []core.InflationPoint
	for _, p := range s.inflation {
		if p.Month.Before(min) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
