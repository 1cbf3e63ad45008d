package sheets

import (
	"context"

	"smartfinances/internal/core"
)

// TransactionReader reads the hand-kept platform transaction log from one
// spreadsheet range. Rows come back oldest first with the Account field
// blank; the caller owns the mapping from spreadsheet to platform account.
type TransactionReader interface {
	ReadTransactions(ctx context.Context, spreadsheetID, readRange string) ([]core.PlatformTransaction, error)
}
