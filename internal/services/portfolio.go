package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartfinances/internal/core"
	"smartfinances/internal/sheets"
	"smartfinances/internal/storage"
)

// PlatformSheet binds a platform account to the spreadsheet range holding
// its hand-kept transaction log.
type PlatformSheet struct {
	Account       string
	SpreadsheetID string
	ReadRange     string
}

// PortfolioService rebuilds platform value history by replaying each
// account's transaction log against the stored unit prices.
type PortfolioService struct {
	storage     *storage.SQLiteRepository
	reader      sheets.TransactionReader
	sheets      []PlatformSheet
	investments []core.Investment
}

func NewPortfolioService(repo *storage.SQLiteRepository, reader sheets.TransactionReader, platformSheets []PlatformSheet, investments []core.Investment) *PortfolioService {
	return &PortfolioService{
		storage:     repo,
		reader:      reader,
		sheets:      platformSheets,
		investments: investments,
	}
}

// Refresh re-reads every platform log and replaces the account's staged
// transactions and value series with the replay result.
func (s *PortfolioService) Refresh(ctx context.Context) error {
	for _, sheet := range s.sheets {
		if err := s.refreshAccount(ctx, sheet); err != nil {
			return fmt.Errorf("%s: %w", sheet.Account, err)
		}
	}
	return nil
}

func (s *PortfolioService) refreshAccount(ctx context.Context, sheet PlatformSheet) error {
	txs, err := s.reader.ReadTransactions(ctx, sheet.SpreadsheetID, sheet.ReadRange)
	if err != nil {
		return fmt.Errorf("read platform log: %w", err)
	}
	for i := range txs {
		txs[i].Account = sheet.Account
	}

	prices := make(map[string][]core.PricePoint)
	for _, inv := range s.investments {
		if inv.Account != sheet.Account {
			continue
		}
		points, err := s.storage.ListPrices(ctx, inv.Ticker)
		if err != nil {
			return fmt.Errorf("load prices for %s: %w", inv.Ticker, err)
		}
		prices[inv.Name] = points
	}

	// Replay runs before any write: a log that fails to replay must leave
	// the stored history untouched.
	history, err := core.ReplayPlatform(sheet.Account, txs, prices)
	if err != nil {
		return fmt.Errorf("replay transactions: %w", err)
	}

	start := core.Today()
	if len(txs) > 0 {
		start = txs[0].Date
	}
	if err := s.storage.EnsureAccount(ctx, sheet.Account, storage.AccountTypePlatform, start); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	if err := s.storage.ReplacePlatformTransactions(ctx, sheet.Account, txs); err != nil {
		return fmt.Errorf("stage transactions: %w", err)
	}
	if err := s.storage.ReplacePortfolioValues(ctx, history); err != nil {
		return fmt.Errorf("store value history: %w", err)
	}

	slog.InfoContext(ctx, "Portfolio refreshed",
		"account", sheet.Account, "transactions", len(txs), "funds", len(history.Funds))
	return nil
}
