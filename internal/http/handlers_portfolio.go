package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"smartfinances/internal/log"
)

// handlePortfolioSummary renders the latest position per fund plus cash
// and total rows.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	body, err := s.cachedRender(s.portfolioCache, "summary", func() ([]byte, error) {
		summary, err := s.data.PortfolioSummaryData(r.Context())
		if err != nil {
			return nil, err
		}

		type fundView struct {
			Account     string
			Fund        string
			Value       string
			Invested    string
			Return      string
			ReturnClass string
		}
		data := struct {
			Funds   []fundView
			Cash    string
			Total   string
			AsOf    string
			HasData bool
		}{
			Cash:    formatPounds(summary.Cash),
			Total:   formatPounds(summary.Total),
			HasData: len(summary.Funds) > 0 || summary.Total.IsPositive(),
		}
		if !summary.AsOf.IsZero() {
			data.AsOf = summary.AsOf.String()
		}

		for _, fund := range summary.Funds {
			returnClass := ""
			if fund.Return.IsPositive() {
				returnClass = "return--positive"
			} else if fund.Return.IsNegative() {
				returnClass = "return--negative"
			}
			data.Funds = append(data.Funds, fundView{
				Account:     fund.Account,
				Fund:        fund.Fund,
				Value:       formatPounds(fund.Value),
				Invested:    formatPounds(fund.Invested),
				Return:      formatPercent(fund.Return),
				ReturnClass: returnClass,
			})
		}
		return s.render("portfolio_summary", data)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Portfolio summary failed", log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Error loading portfolio</div>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handlePortfolioSeries feeds the per-account value chart. Every fund in
// the account becomes one dataset, Cash and Total included.
func (s *Server) handlePortfolioSeries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	account := strings.TrimSpace(r.URL.Query().Get("account"))
	if account == "" {
		BadRequestError("missing account parameter").Write(w)
		return
	}

	body, err := s.cachedRender(s.portfolioCache, "series|"+account, func() ([]byte, error) {
		series, err := s.data.PortfolioSeriesData(r.Context(), account)
		if err != nil {
			return nil, err
		}

		type point struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		}
		out := struct {
			Account string             `json:"account"`
			Funds   map[string][]point `json:"funds"`
		}{Account: series.Account, Funds: make(map[string][]point, len(series.Funds))}

		for fund, points := range series.Funds {
			converted := make([]point, len(points))
			for i, p := range points {
				converted[i] = point{Date: p.Date.String(), Value: p.Value.StringFixed(2)}
			}
			out.Funds[fund] = converted
		}
		return json.Marshal(out)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Portfolio series failed",
			log.FieldError, err,
			log.FieldAccount, account)
		http.Error(w, "failed to load series", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// handlePortfolioAccounts returns the account selector options.
func (s *Server) handlePortfolioAccounts(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	accounts, err := s.data.PortfolioAccounts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Portfolio accounts failed", log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<option value="">No accounts</option>`))
		return
	}

	var b strings.Builder
	if len(accounts) == 0 {
		b.WriteString(`<option value="">No accounts</option>`)
	}
	for _, account := range accounts {
		escaped := template.HTMLEscapeString(account)
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, escaped, escaped)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// handleInflationSeries feeds the CPIH overlay chart.
func (s *Server) handleInflationSeries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	body, err := s.cachedRender(s.portfolioCache, "inflation", func() ([]byte, error) {
		points, err := s.data.InflationSeries(r.Context())
		if err != nil {
			return nil, err
		}

		type point struct {
			Month string `json:"month"`
			Rate  string `json:"rate"`
		}
		out := make([]point, len(points))
		for i, p := range points {
			out[i] = point{Month: p.Month.String(), Rate: p.Rate.String()}
		}
		return json.Marshal(out)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Inflation series failed", log.FieldError, err)
		http.Error(w, "failed to load inflation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
