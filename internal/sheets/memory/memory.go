// Package memory holds an in-memory platform log used by tests and the
// memory backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"smartfinances/internal/core"
	ports "smartfinances/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	logs map[string][]core.PlatformTransaction
	err  error
}

var _ ports.TransactionReader = (*Store)(nil)

func New() *Store {
	return &Store{logs: map[string][]core.PlatformTransaction{}}
}

// SetTransactions registers the fixture log for one spreadsheet id.
func (s *Store) SetTransactions(spreadsheetID string, txs []core.PlatformTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[spreadsheetID] = append([]core.PlatformTransaction(nil), txs...)
}

// Fail makes every read return err until reset with Fail(nil).
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ReadTransactions returns the fixture log oldest first. An unregistered
// spreadsheet is an error, matching a live read against a bad id.
func (s *Store) ReadTransactions(_ context.Context, spreadsheetID, _ string) ([]core.PlatformTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	txs, ok := s.logs[spreadsheetID]
	if !ok {
		return nil, fmt.Errorf("unknown spreadsheet %q", spreadsheetID)
	}
	out := append([]core.PlatformTransaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
