// Package yahoo fetches daily price history from the Yahoo Finance v7
// download endpoint.
package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

type Config struct {
	BaseURL string // override for tests
	Timeout time.Duration
}

type Client struct {
	client *resty.Client
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

	return &Client{client: cli}
}

// FetchPrices downloads the daily history CSV for a ticker. The window
// bounds are sent as unix timestamps of UTC midnight; the provider treats
// period2 as exclusive, which suits a latest-stored-date+1 fetch window.
func (c *Client) FetchPrices(ctx context.Context, ticker string, window core.Window) ([]core.PricePoint, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(window.From.Unix(), 10),
			"period2":  strconv.FormatInt(window.To.Unix(), 10),
			"interval": "1d",
			"events":   "history",
		}).
		Get("/v7/finance/download/" + ticker)
	if err != nil {
		return nil, fmt.Errorf("download prices request: %w", err)
	}
	if err := feeds.MapStatusError(resp); err != nil {
		return nil, err
	}

	points, err := feeds.ParsePriceCSV(resp.Body(), "Adj Close")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return points, nil
}
