// Package splitwise fetches expense rows from the Splitwise REST API.
package splitwise

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const defaultBaseURL = "https://www.splitwise.com"

type Config struct {
	BaseURL string // override for tests
	Token   string // personal API token, sent as Bearer auth
	Timeout time.Duration
}

type Client struct {
	client *resty.Client
}

var _ feeds.ExpenseSource = (*Client)(nil)

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
		SetHeader("User-Agent", feeds.DefaultUserAgent).
		SetAuthToken(cfg.Token)

	return &Client{client: cli}
}

type expensesResponse struct {
	Expenses []expenseRow `json:"expenses"`
}

type expenseRow struct {
	ID           int64       `json:"id"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	Payment      bool        `json:"payment"`
	DeletedAt    *string     `json:"deleted_at"`
	Category     categoryRow `json:"category"`
	CurrencyCode string      `json:"currency_code"`
	GroupID      *int64      `json:"group_id"`
	Details      *string     `json:"details"`
	Users        []shareRow  `json:"users"`
}

type categoryRow struct {
	Name string `json:"name"`
}

type shareRow struct {
	User      userRef `json:"user"`
	OwedShare string  `json:"owed_share"`
	PaidShare string  `json:"paid_share"`
}

type userRef struct {
	ID int64 `json:"id"`
}

// FetchExpenses pulls every expense dated inside the window. limit=0
// disables the provider's default page size so one call covers a whole
// calendar-year window.
func (c *Client) FetchExpenses(ctx context.Context, window core.Window) ([]feeds.SplitwiseExpense, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"dated_after":  window.From.String(),
			"dated_before": window.To.String(),
			"limit":        "0",
		}).
		Get("/api/v3.0/get_expenses")
	if err != nil {
		return nil, fmt.Errorf("get expenses request: %w", err)
	}
	if err := feeds.MapStatusError(resp); err != nil {
		return nil, err
	}

	var parsed expensesResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode expenses response: %w", err)
	}

	expenses := make([]feeds.SplitwiseExpense, len(parsed.Expenses))
	for i, row := range parsed.Expenses {
		shares := make([]feeds.SplitwiseShare, len(row.Users))
		for j, share := range row.Users {
			shares[j] = feeds.SplitwiseShare{
				UserID:    share.User.ID,
				OwedShare: share.OwedShare,
				PaidShare: share.PaidShare,
			}
		}
		expenses[i] = feeds.SplitwiseExpense{
			ID:           row.ID,
			Date:         row.Date,
			Description:  row.Description,
			Payment:      row.Payment,
			DeletedAt:    row.DeletedAt,
			Category:     row.Category.Name,
			CurrencyCode: row.CurrencyCode,
			GroupID:      row.GroupID,
			Details:      row.Details,
			Users:        shares,
		}
	}
	return expenses, nil
}
