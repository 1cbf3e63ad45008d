package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"smartfinances/internal/core"
	"smartfinances/internal/log"
)

// handlePivotTable renders the period-by-category pivot partial. Results
// are cached per parameter combination.
func (s *Server) handlePivotTable(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	q, err := ParsePivotQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	key := fmt.Sprintf("pivot|%s|%s|%s", q.Period, q.Level, q.Group)
	body, err := s.cachedRender(s.pivotCache, key, func() ([]byte, error) {
		table, err := s.data.PivotData(r.Context(), core.PivotParams{
			Period:       q.Period,
			Level:        q.Level,
			SharingGroup: q.Group,
		})
		if err != nil {
			return nil, err
		}
		return s.render("pivot_table", buildPivotView(q, table))
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Pivot render failed",
			log.FieldError, err,
			"period", string(q.Period),
			"level", string(q.Level),
			"group", q.Group)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Error loading pivot table</div>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

type pivotRowView struct {
	Label string
	Cells []string
	Total string
}

type pivotView struct {
	Period  string
	Level   string
	Group   string
	Columns []string
	Rows    []pivotRowView
	HasData bool
}

// buildPivotView formats the decimal table for the template, newest
// period first so the current row is on top.
func buildPivotView(q PivotQuery, table core.PivotTable) pivotView {
	view := pivotView{
		Period:  string(q.Period),
		Level:   string(q.Level),
		Group:   q.Group,
		Columns: table.Columns,
		HasData: len(table.Rows) > 0,
	}
	for i := len(table.Rows) - 1; i >= 0; i-- {
		row := table.Rows[i]
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell.IsZero() {
				cells[j] = ""
				continue
			}
			cells[j] = formatPounds(cell)
		}
		view.Rows = append(view.Rows, pivotRowView{
			Label: row.Period,
			Cells: cells,
			Total: formatPounds(row.Total),
		})
	}
	return view
}

// handleExpenseTrend feeds the spending trend chart. Amounts go out as
// decimal strings; the client converts them for plotting.
func (s *Server) handleExpenseTrend(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	period, err := ParseTrendPeriod(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	key := "trend|" + string(period)
	body, err := s.cachedRender(s.pivotCache, key, func() ([]byte, error) {
		points, err := s.data.ExpenseTrend(r.Context(), period)
		if err != nil {
			return nil, err
		}
		type point struct {
			Period string `json:"period"`
			Total  string `json:"total"`
		}
		out := make([]point, len(points))
		for i, p := range points {
			out[i] = point{Period: p.Period, Total: p.Total.StringFixed(2)}
		}
		return json.Marshal(out)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Trend data failed", log.FieldError, err, "period", string(period))
		http.Error(w, "failed to load trend", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// handleCategoryBreakdown renders the latest period's spending split as a
// bar list partial.
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	period, err := ParseTrendPeriod(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	key := "categories|" + string(period)
	body, err := s.cachedRender(s.pivotCache, key, func() ([]byte, error) {
		shares, err := s.data.CategoryBreakdown(r.Context(), period)
		if err != nil {
			return nil, err
		}

		type catView struct {
			Name    string
			Amount  string
			Percent int
		}
		data := struct {
			Period     string
			Categories []catView
		}{Period: string(period)}

		if len(shares) > 0 {
			max := shares[0].Total
			for _, share := range shares {
				data.Categories = append(data.Categories, catView{
					Name:    share.Category,
					Amount:  formatPounds(share.Total),
					Percent: barWidth(share.Total, max),
				})
			}
		}
		return s.render("category_breakdown", data)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category breakdown failed", log.FieldError, err, "period", string(period))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Error loading categories</div>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleSharingGroups returns the sharing-group filter options.
func (s *Server) handleSharingGroups(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	groups, err := s.data.SharingGroups(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Sharing groups failed", log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<option value="-">All groups</option>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<option value="-">All groups</option>`)
	for _, id := range groups {
		label := fmt.Sprintf("Group %d", id)
		if id == 0 {
			label = "Personal"
		}
		fmt.Fprintf(&b, `<option value="%d">%s</option>`, id, template.HTMLEscapeString(label))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// handleStatPills renders the current month's spend, income, and balance.
func (s *Server) handleStatPills(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	spend, err := s.data.MonthlyExpenseTotal(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Monthly expense total failed", log.FieldError, err)
	}
	income, err := s.data.MonthlyIncomeTotal(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Monthly income total failed", log.FieldError, err)
	}

	balance := income.Sub(spend)
	balanceClass := ""
	if balance.IsPositive() {
		balanceClass = "stat-pill__value--positive"
	} else if balance.IsNegative() {
		balanceClass = "stat-pill__value--negative"
	}

	data := struct {
		Spend        string
		Income       string
		Balance      string
		BalanceClass string
	}{
		Spend:        formatPounds(spend),
		Income:       formatPounds(income),
		Balance:      formatPounds(balance),
		BalanceClass: balanceClass,
	}

	body, err := s.render("stat_pills", data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Stat pills render failed", log.FieldError, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
