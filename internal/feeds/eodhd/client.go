// Package eodhd fetches daily price history from the EOD Historical Data
// API, the price source for tickers Yahoo stopped serving.
package eodhd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const defaultBaseURL = "https://eodhistoricaldata.com"

type Config struct {
	BaseURL string // override for tests
	Token   string
	Timeout time.Duration
}

type Client struct {
	client *resty.Client
	token  string
}

var _ feeds.PriceSource = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", feeds.DefaultUserAgent)

	return &Client{client: cli, token: cfg.Token}
}

// FetchPrices downloads the daily history CSV for a ticker. An empty body
// means no trading days in the window and yields an empty series.
func (c *Client) FetchPrices(ctx context.Context, ticker string, window core.Window) ([]core.PricePoint, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_token": c.token,
			"fmt":       "csv",
			"period":    "d",
			"from":      window.From.String(),
			"to":        window.To.String(),
		}).
		Get("/api/eod/" + ticker)
	if err != nil {
		return nil, fmt.Errorf("get prices request: %w", err)
	}
	if err := feeds.MapStatusError(resp); err != nil {
		return nil, err
	}

	points, err := feeds.ParsePriceCSV(resp.Body(), "Adjusted_close")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return points, nil
}
