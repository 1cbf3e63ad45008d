package backend

import (
	"context"
	"fmt"

	"smartfinances/internal/adapters"
	"smartfinances/internal/amqp"
	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/feeds/apilayer"
	"smartfinances/internal/feeds/eodhd"
	feedsmemory "smartfinances/internal/feeds/memory"
	"smartfinances/internal/feeds/ons"
	"smartfinances/internal/feeds/splitwise"
	"smartfinances/internal/feeds/yahoo"
	"smartfinances/internal/log"
	"smartfinances/internal/services"
	"smartfinances/internal/sheets"
	gsheet "smartfinances/internal/sheets/google"
	sheetsmemory "smartfinances/internal/sheets/memory"
	"smartfinances/internal/storage"
)

// sources groups one backend flavour's upstream clients.
type sources struct {
	expenses  feeds.ExpenseSource
	rates     feeds.RateSource
	prices    feeds.PriceSources
	inflation feeds.InflationSource
	reader    sheets.TransactionReader
}

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentBackend})
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens storage, connects the broker when configured and
// assembles the refresh pipeline against live or fixture feeds.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// A missing broker only disables queued refreshes, so log and move on.
	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Broker unavailable, continuing without queued refreshes",
				log.FieldError, err)
			publisher = nil
		} else {
			f.logger.Info("Connected to broker",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	var src sources
	switch config.Type {
	case MemoryBackend:
		config = withDemoDefaults(config)
		src = f.fixtureSources(config)
	default:
		src, err = f.liveSources(ctx, config)
		if err != nil {
			if publisher != nil {
				publisher.Close()
			}
			repo.Close()
			return nil, err
		}
	}

	rates := services.NewRateService(repo, src.rates, config.BaseCurrency)
	expenses := services.NewExpenseIngestService(repo, src.expenses, rates, config.SplitwiseUserID, config.StartDate)
	prices := services.NewPriceService(repo, src.prices, config.Investments)
	inflation := services.NewInflationService(repo, src.inflation, config.StartDate)
	portfolio := services.NewPortfolioService(repo, src.reader, config.PlatformSheets, config.Investments)
	refresher := services.NewRefreshService(repo, expenses, prices, inflation, portfolio)

	data := adapters.NewSQLiteAdapter(repo, config.StartDate)

	f.logger.Info("Backend ready",
		"type", config.Type.String(),
		"db_path", config.SQLiteDBPath,
		"broker", publisher != nil,
		"platform_sheets", len(config.PlatformSheets),
		"investments", len(config.Investments))

	cleanup := func() error {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				f.logger.Warn("Closing broker client", log.FieldError, err)
			}
		}
		return repo.Close()
	}

	return &BackendResult{
		Storage:   repo,
		Data:      data,
		Refresher: refresher,
		Publisher: publisher,
		Cleanup:   cleanup,
	}, nil
}

// liveSources builds the real provider clients. The Google Sheets client
// is only dialed when a platform sheet actually needs it.
func (f *DefaultFactory) liveSources(ctx context.Context, config Config) (sources, error) {
	src := sources{
		expenses: splitwise.New(splitwise.Config{Token: config.SplitwiseToken}),
		rates: apilayer.New(apilayer.Config{
			APIKey:       config.FXAPIKey,
			BaseCurrency: config.BaseCurrency,
		}),
		prices: feeds.PriceSources{
			core.SourceYahoo: yahoo.New(yahoo.Config{}),
			core.SourceEODHD: eodhd.New(eodhd.Config{Token: config.EODHDToken}),
		},
		inflation: ons.New(ons.Config{}),
	}

	if len(config.PlatformSheets) > 0 {
		reader, err := gsheet.New(ctx, gsheet.Config{
			ClientJSON: config.GoogleOAuthClientJSON,
			ClientFile: config.GoogleOAuthClientFile,
			TokenJSON:  config.GoogleOAuthTokenJSON,
			TokenFile:  config.GoogleOAuthTokenFile,
		})
		if err != nil {
			return sources{}, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		src.reader = reader
	}

	return src, nil
}

// fixtureSources wires the seeded in-memory feeds so the dashboard works
// end to end without credentials.
func (f *DefaultFactory) fixtureSources(config Config) sources {
	store := feedsmemory.New()
	reader := sheetsmemory.New()
	seedDemoData(store, reader, config)

	return sources{
		expenses: store,
		rates:    store,
		prices: feeds.PriceSources{
			core.SourceYahoo: store,
			core.SourceEODHD: store,
		},
		inflation: store,
		reader:    reader,
	}
}
