package backend

import (
	"fmt"

	"smartfinances/internal/config"
	"smartfinances/internal/core"
	"smartfinances/internal/services"
)

// FromAppConfig merges the environment config and the parameters file
// into a backend config. The Splitwise user id may live in either; the
// environment wins.
func FromAppConfig(appConfig *config.Config, params *config.Parameters) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	if params == nil {
		return Config{}, fmt.Errorf("parameters are nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	userID := appConfig.SplitwiseUserID
	if userID == 0 {
		userID = params.UserID
	}

	platformSheets := make([]services.PlatformSheet, 0, len(params.PlatformAccounts))
	for _, account := range params.PlatformAccounts {
		platformSheets = append(platformSheets, services.PlatformSheet{
			Account:       account.Name,
			SpreadsheetID: account.SpreadsheetID,
			ReadRange:     account.ReadRange,
		})
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		SplitwiseToken:  appConfig.SplitwiseToken,
		SplitwiseUserID: userID,
		FXAPIKey:        appConfig.FXAPIKey,
		EODHDToken:      appConfig.EODHDToken,

		GoogleOAuthClientFile: appConfig.GoogleOAuthClientFile,
		GoogleOAuthTokenFile:  appConfig.GoogleOAuthTokenFile,
		GoogleOAuthClientJSON: appConfig.GoogleOAuthClientJSON,
		GoogleOAuthTokenJSON:  appConfig.GoogleOAuthTokenJSON,

		StartDate:      params.Start(),
		BaseCurrency:   params.BaseCurrency,
		PlatformSheets: platformSheets,
		Investments:    params.InvestmentList(),
	}, nil
}

// Validate checks that the selected backend has what it needs to run.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}

	if c.Type == MemoryBackend {
		// Fixtures need no credentials.
		return nil
	}

	if c.SplitwiseToken == "" {
		return fmt.Errorf("Splitwise token is required for the sqlite backend")
	}
	if c.SplitwiseUserID == 0 {
		return fmt.Errorf("Splitwise user id is required for the sqlite backend")
	}
	if c.FXAPIKey == "" {
		return fmt.Errorf("exchange rate API key is required for the sqlite backend")
	}

	for _, inv := range c.Investments {
		if inv.Source == core.SourceEODHD && c.EODHDToken == "" {
			return fmt.Errorf("investment %s uses EODHD but no EODHD token is configured", inv.Ticker)
		}
	}

	if len(c.PlatformSheets) > 0 {
		hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
		hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
		if !hasClient {
			return fmt.Errorf("platform sheets are configured but no Google OAuth client is set")
		}
		if !hasToken {
			return fmt.Errorf("platform sheets are configured but no Google OAuth token is set; run the oauth-init command")
		}
	}

	return nil
}
