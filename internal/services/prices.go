package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/storage"
)

// PriceService keeps daily price history current for every configured
// investment, routing each ticker to its provider through the source
// registry.
type PriceService struct {
	storage     *storage.SQLiteRepository
	sources     feeds.PriceSources
	investments []core.Investment
}

func NewPriceService(repo *storage.SQLiteRepository, sources feeds.PriceSources, investments []core.Investment) *PriceService {
	return &PriceService{
		storage:     repo,
		sources:     sources,
		investments: investments,
	}
}

// Refresh syncs the investment catalog and extends each ticker's stored
// history up to today, or up to its end date for closed positions.
// Returns new-point counts per ticker.
func (s *PriceService) Refresh(ctx context.Context) (map[string]int, error) {
	if err := s.storage.UpsertInvestments(ctx, s.investments); err != nil {
		return nil, fmt.Errorf("store investments: %w", err)
	}

	counts := make(map[string]int, len(s.investments))
	today := core.Today()
	for _, inv := range s.investments {
		inserted, err := s.refreshTicker(ctx, inv, today)
		if err != nil {
			return counts, fmt.Errorf("%s: %w", inv.Ticker, err)
		}
		counts[inv.Ticker] = inserted
	}
	return counts, nil
}

func (s *PriceService) refreshTicker(ctx context.Context, inv core.Investment, today core.Day) (int, error) {
	source, err := s.sources.For(inv.Source)
	if err != nil {
		return 0, err
	}

	latest, err := s.storage.LatestPriceDate(ctx, inv.Ticker)
	if err != nil {
		return 0, err
	}
	from := inv.StartDate
	if !latest.IsZero() {
		from = latest.AddDays(1)
	}
	to := today
	if !inv.EndDate.IsZero() && inv.EndDate.Before(to) {
		to = inv.EndDate
	}
	// Already stored through the window end: closed positions never hit
	// the provider again.
	if to.Before(from) {
		slog.DebugContext(ctx, "Price history already current", "ticker", inv.Ticker, "through", latest)
		return 0, nil
	}

	points, err := source.FetchPrices(ctx, inv.Ticker, core.Window{From: from, To: to})
	if err != nil {
		return 0, fmt.Errorf("fetch prices: %w", err)
	}
	inserted, err := s.storage.InsertPrices(ctx, inv.Ticker, points)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Prices refreshed",
		"ticker", inv.Ticker, "from", from, "to", to, "new_points", inserted)
	return inserted, nil
}
