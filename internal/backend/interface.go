package backend

import (
	"context"

	"smartfinances/internal/adapters"
	"smartfinances/internal/amqp"
	"smartfinances/internal/core"
	"smartfinances/internal/services"
	"smartfinances/internal/storage"
)

// BackendType selects where refresh data comes from. Storage is SQLite
// either way; the type picks live upstream feeds or seeded fixtures.
type BackendType string

const (
	// SQLiteBackend pulls from the live providers and needs their
	// credentials in the environment.
	SQLiteBackend BackendType = "sqlite"

	// MemoryBackend serves seeded demo fixtures instead of calling any
	// provider. Useful for local development without credentials.
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

// CleanupFunc releases the backend's resources, broker first.
type CleanupFunc func() error

// BackendResult bundles everything the entry points need: raw storage for
// the worker, the read-model adapter for the web server, the assembled
// refresh pipeline, and the broker client when one connected.
type BackendResult struct {
	Storage   *storage.SQLiteRepository
	Data      *adapters.SQLiteAdapter
	Refresher *services.RefreshService
	Publisher *amqp.Client // nil when no broker is configured or reachable
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything backend creation needs, merged from the
// environment and the parameters file.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Broker, optional. The web server degrades to read-only refresh
	// status and the worker refuses to start without it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Provider credentials, required for the sqlite backend.
	SplitwiseToken  string
	SplitwiseUserID int64
	FXAPIKey        string
	EODHDToken      string

	// Google Sheets OAuth material for the platform transaction logs.
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string

	// Reporting parameters.
	StartDate      core.Day
	BaseCurrency   string
	PlatformSheets []services.PlatformSheet
	Investments    []core.Investment
}
