package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

func TestFetchPrices(t *testing.T) {
	from := core.NewDay(2023, 5, 1)
	to := core.NewDay(2023, 5, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/download/VWRL.L" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("period1") != strconv.FormatInt(from.Unix(), 10) {
			t.Errorf("unexpected period1 %q", q.Get("period1"))
		}
		if q.Get("period2") != strconv.FormatInt(to.Unix(), 10) {
			t.Errorf("unexpected period2 %q", q.Get("period2"))
		}
		if q.Get("interval") != "1d" || q.Get("events") != "history" {
			t.Errorf("unexpected query: %v", q)
		}
		_, _ = w.Write([]byte(
			"Date,Open,High,Low,Close,Adj Close,Volume\n" +
				"2023-05-01,104.20,105.00,103.80,104.80,104.52,1200\n" +
				"2023-05-02,104.80,106.10,104.10,105.90,null,900\n" +
				"2023-05-03,105.90,108.00,105.20,107.50,107.31,2100\n"))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})

	points, err := client.FetchPrices(context.Background(), "VWRL.L", core.Window{From: from, To: to})
	if err != nil {
		t.Fatalf("FetchPrices failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points after skipping the null row, got %d", len(points))
	}
	if points[0].Date.String() != "2023-05-01" || points[0].AdjClose.String() != "104.52" {
		t.Errorf("unexpected first point: %s %s", points[0].Date, points[0].AdjClose)
	}
	if points[1].Date.String() != "2023-05-03" || points[1].AdjClose.String() != "107.31" {
		t.Errorf("unexpected second point: %s %s", points[1].Date, points[1].AdjClose)
	}
}

func TestFetchPricesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 Not Found: No data found, symbol may be delisted"))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	window := core.Window{From: core.NewDay(2023, 5, 1), To: core.NewDay(2023, 5, 4)}

	if _, err := client.FetchPrices(context.Background(), "GONE.L", window); !errors.Is(err, feeds.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
