package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/storage"
)

// InflationService mirrors the published CPIH series into local storage so
// dashboard charts never block on the statistics office.
type InflationService struct {
	storage *storage.SQLiteRepository
	source  feeds.InflationSource
	start   core.Day
}

func NewInflationService(repo *storage.SQLiteRepository, source feeds.InflationSource, start core.Day) *InflationService {
	return &InflationService{
		storage: repo,
		source:  source,
		start:   start,
	}
}

// Refresh re-fetches the series from the tracking start and upserts every
// month. Revised figures for past months overwrite the stored values.
func (s *InflationService) Refresh(ctx context.Context) (int, error) {
	points, err := s.source.FetchInflation(ctx, s.start)
	if err != nil {
		return 0, fmt.Errorf("fetch inflation: %w", err)
	}
	upserted, err := s.storage.UpsertInflation(ctx, points)
	if err != nil {
		return 0, fmt.Errorf("store inflation: %w", err)
	}

	slog.InfoContext(ctx, "Inflation refreshed", "points", len(points), "upserted", upserted)
	return upserted, nil
}
