package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds/memory"
)

func TestInflationRefreshUpserts(t *testing.T) {
	repo := newTestRepository(t)
	provider := memory.New()
	provider.SetInflation([]core.InflationPoint{
		{Month: core.NewDay(2023, 2, 1), Rate: dec(t, "9.2")},
		{Month: core.NewDay(2023, 3, 1), Rate: dec(t, "8.9")},
	})

	svc := NewInflationService(repo, provider, core.NewDay(2023, 1, 1))
	n, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Refresh() = %d points, want 2", n)
	}

	// The statistics office revises past months; the revision wins.
	provider.SetInflation([]core.InflationPoint{
		{Month: core.NewDay(2023, 2, 1), Rate: dec(t, "9.3")},
		{Month: core.NewDay(2023, 3, 1), Rate: dec(t, "8.9")},
	})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}

	stored, err := repo.ListInflation(context.Background())
	if err != nil {
		t.Fatalf("ListInflation() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d points, want 2", len(stored))
	}
	if !stored[0].Month.Equal(core.NewDay(2023, 2, 1)) || !stored[0].Rate.Equal(dec(t, "9.3")) {
		t.Errorf("first point = %s %s, want 2023-02-01 9.3", stored[0].Month, stored[0].Rate)
	}
}

func TestInflationRefreshProviderError(t *testing.T) {
	repo := newTestRepository(t)
	provider := memory.New()
	provider.Fail(errors.New("ons down"))

	svc := NewInflationService(repo, provider, core.NewDay(2023, 1, 1))
	_, err := svc.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch inflation") {
		t.Fatalf("Refresh() error = %v, want fetch wrap", err)
	}
}
