package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"smartfinances/internal/core"
	"smartfinances/internal/log"
	"smartfinances/internal/storage"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	})
}

// handleReady verifies the dependencies a request actually needs: parsed
// templates and a database that answers. The broker is reported but never
// fails readiness, because the dashboard reads fine without it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: " + errTemplatesNotLoaded.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.data.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.publisher != nil {
		checks["broker"] = "ok"
	} else {
		checks["broker"] = "not_configured"
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes counters in the text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", atomic.LoadInt64(&s.metrics.totalRequests))

	fmt.Fprintf(w, "# HELP incomes_created_total Total number of income rows created\n")
	fmt.Fprintf(w, "# TYPE incomes_created_total counter\n")
	fmt.Fprintf(w, "incomes_created_total %d\n\n", atomic.LoadInt64(&s.metrics.incomesCreated))

	fmt.Fprintf(w, "# HELP refreshes_queued_total Total refresh requests queued\n")
	fmt.Fprintf(w, "# TYPE refreshes_queued_total counter\n")
	fmt.Fprintf(w, "refreshes_queued_total %d\n\n", atomic.LoadInt64(&s.metrics.refreshesQueued))

	fmt.Fprintf(w, "# HELP auth_failures_total Total failed basic auth attempts\n")
	fmt.Fprintf(w, "# TYPE auth_failures_total counter\n")
	fmt.Fprintf(w, "auth_failures_total %d\n\n", atomic.LoadInt64(&s.metrics.authFailures))

	fmt.Fprintf(w, "# HELP cache_hits_total Total render cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheHits))

	fmt.Fprintf(w, "# HELP cache_misses_total Total render cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheMisses))

	fmt.Fprintf(w, "# HELP cache_entries Current render cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"pivot\"} %d\n", s.pivotCache.Len())
	fmt.Fprintf(w, "cache_entries{type=\"portfolio\"} %d\n\n", s.portfolioCache.Len())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limited requests\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", atomic.LoadInt64(&s.security.rateLimitHits))

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", atomic.LoadInt64(&s.security.suspiciousRequests))

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.activeClients())

	if run, err := s.data.LastRefresh(r.Context()); err == nil && run != nil {
		ok := int64(0)
		if run.Status == storage.RunStatusOK {
			ok = 1
		}
		fmt.Fprintf(w, "# HELP last_refresh_success Whether the most recent refresh run succeeded\n")
		fmt.Fprintf(w, "# TYPE last_refresh_success gauge\n")
		fmt.Fprintf(w, "last_refresh_success %d\n\n", ok)

		fmt.Fprintf(w, "# HELP last_refresh_age_seconds Seconds since the most recent refresh run started\n")
		fmt.Fprintf(w, "# TYPE last_refresh_age_seconds gauge\n")
		fmt.Fprintf(w, "last_refresh_age_seconds %.0f\n\n", time.Since(run.StartedAt).Seconds())
	}

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", time.Since(s.metrics.startedAt).Seconds())
}

// handleDashboard renders the expense dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Periods          []core.PivotPeriod
		Levels           []core.PivotLevel
		Scopes           []core.RefreshScope
		IncomeCategories []string
		Accounts         []string
	}{
		Periods:          []core.PivotPeriod{core.PeriodWeek, core.PeriodMonth, core.PeriodQuarter, core.PeriodYear},
		Levels:           []core.PivotLevel{core.LevelCategory, core.LevelSubcategory},
		Scopes:           []core.RefreshScope{core.RefreshAll, core.RefreshExpenses, core.RefreshPrices, core.RefreshInflation, core.RefreshPortfolio},
		IncomeCategories: core.IncomeCategories,
		Accounts:         []string{core.AccountCurrent, core.AccountPayPal},
	}

	body, err := s.render("dashboard_page", data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard render failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handlePortfolioPage renders the investments page.
func (s *Server) handlePortfolioPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.data.PortfolioAccounts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Portfolio accounts load failed", log.FieldError, err)
	}

	data := struct {
		Accounts []string
	}{Accounts: accounts}

	body, err := s.render("portfolio_page", data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Portfolio render failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
