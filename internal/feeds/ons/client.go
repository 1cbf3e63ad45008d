// Package ons fetches the monthly CPIH series from the UK Office for
// National Statistics CSV generator.
package ons

import (
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const (
	defaultBaseURL = "https://www.ons.gov.uk"

	// CPIH annual rate, all items, series l55o in dataset mm23.
	defaultSeriesURI = "/economy/inflationandpriceindices/timeseries/l55o/mm23"
)

// monthRow matches the monthly rows of the generator output ("2023 APR");
// the same file carries annual ("2023") and quarterly ("2023 Q2") rows.
var monthRow = regexp.MustCompile(`^2\d{3} [A-Z]{3}$`)

type Config struct {
	BaseURL   string // override for tests
	SeriesURI string
	Timeout   time.Duration
}

type Client struct {
	client *resty.Client
	series string
}

var _ feeds.InflationSource = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.SeriesURI == "" {
		cfg.SeriesURI = defaultSeriesURI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", feeds.DefaultUserAgent)

	return &Client{client: cli, series: cfg.SeriesURI}
}

// FetchInflation returns the monthly rates from the given month onward.
// Non-monthly rows and malformed tokens are skipped rather than fatal;
// the generator occasionally reshuffles its preamble.
func (c *Client) FetchInflation(ctx context.Context, from core.Day) ([]core.InflationPoint, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "csv",
			"uri":    c.series,
		}).
		Get("/generator")
	if err != nil {
		return nil, fmt.Errorf("get inflation request: %w", err)
	}
	if err := feeds.MapStatusError(resp); err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(resp.Body())))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse inflation csv: %w", err)
	}

	minMonth := from.FirstOfMonth()
	var points []core.InflationPoint
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		token := strings.TrimSpace(record[0])
		if !monthRow.MatchString(token) {
			continue
		}
		parsed, err := time.Parse("2006 Jan", token)
		if err != nil {
			continue
		}
		month := core.DayOf(parsed)
		if month.Before(minMonth) {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		points = append(points, core.InflationPoint{Month: month, Rate: rate})
	}
	return points, nil
}
