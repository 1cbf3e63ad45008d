package feeds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

// DefaultUserAgent is sent on every provider request; some providers
// reject clients that do not present a browser user agent.
const DefaultUserAgent = "Mozilla/5.0"

// Sentinel errors shared by every provider client so callers can react to
// class of failure rather than provider specifics.
var (
	ErrUnauthorized = errors.New("provider rejected credentials")
	ErrRateLimited  = errors.New("provider rate limit exceeded")
	ErrUpstream     = errors.New("provider request failed")
)

// MapStatusError translates a non-2xx provider response into one of the
// sentinel errors, keeping a trimmed body excerpt for the log line.
func MapStatusError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		body = http.StatusText(code)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: http %d: %s", ErrUnauthorized, code, body)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d: %s", ErrRateLimited, code, body)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrUpstream, code, body)
	}
}

// ParsePriceCSV extracts Date plus the named close column from a price
// history CSV. Rows with missing or unparseable values are skipped; an
// empty body yields an empty series, which is how some providers report
// no trading days in range.
func ParsePriceCSV(data []byte, closeColumn string) ([]core.PricePoint, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse price csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	dateIdx, closeIdx := -1, -1
	for i, column := range records[0] {
		switch strings.TrimSpace(column) {
		case "Date":
			dateIdx = i
		case closeColumn:
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("price csv missing Date or %s column", closeColumn)
	}

	points := make([]core.PricePoint, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) <= dateIdx || len(record) <= closeIdx {
			continue
		}
		date, err := core.ParseDay(strings.TrimSpace(record[dateIdx]))
		if err != nil {
			continue
		}
		raw := strings.TrimSpace(record[closeIdx])
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		adjClose, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		points = append(points, core.PricePoint{Date: date, AdjClose: adjClose})
	}
	return points, nil
}
