// Package apilayer fetches historical exchange rates from the apilayer
// exchangerates_data API.
package apilayer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const defaultBaseURL = "https://api.apilayer.com"

type Config struct {
	BaseURL      string // override for tests
	APIKey       string
	BaseCurrency string
	Timeout      time.Duration
}

type Client struct {
	client *resty.Client
	base   string
}

var _ feeds.RateSource = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "GBP"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", feeds.DefaultUserAgent).
		SetHeader("apikey", cfg.APIKey)

	return &Client{client: cli, base: cfg.BaseCurrency}
}

type ratesResponse struct {
	Success bool                       `json:"success"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Error   struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// FetchRates returns the rates of every requested symbol against the base
// currency on one historical date. Batching symbols keeps the provider
// cost at one call per date regardless of how many currencies appear.
func (c *Client) FetchRates(ctx context.Context, day core.Day, symbols []string) (map[string]decimal.Decimal, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbols": strings.Join(symbols, ","),
			"base":    c.base,
		}).
		Get("/exchangerates_data/" + day.String())
	if err != nil {
		return nil, fmt.Errorf("get rates request: %w", err)
	}
	if err := feeds.MapStatusError(resp); err != nil {
		return nil, err
	}

	var parsed ratesResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("%w: %s %s", feeds.ErrUpstream, parsed.Error.Code, parsed.Error.Info)
	}
	return parsed.Rates, nil
}
