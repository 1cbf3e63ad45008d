// Package http serves the dashboard: two HTML pages, the HTMX partials
// and chart feeds behind them, and the operational endpoints. Handlers
// read through the adapter only; writes are limited to manual income rows
// and queued refresh requests.
package http

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"smartfinances/internal/adapters"
	"smartfinances/internal/cache"
	"smartfinances/internal/core"
	"smartfinances/internal/log"
	appweb "smartfinances/web"
)

// RefreshPublisher queues a refresh request for the worker. The AMQP
// client satisfies it; a nil publisher turns POST /api/refresh into 503.
type RefreshPublisher interface {
	PublishRefreshRequest(ctx context.Context, scope core.RefreshScope, requestedBy string) error
}

// Options carries the optional server knobs. Leaving BasicAuthUser empty
// disables authentication, which only makes sense behind a trusted proxy.
type Options struct {
	BasicAuthUser     string
	BasicAuthPassword string
	Logger            *log.Logger
}

// appMetrics aggregates the counters exposed on /metrics.
type appMetrics struct {
	startedAt       time.Time
	totalRequests   int64
	incomesCreated  int64
	refreshesQueued int64
	authFailures    int64
	cacheHits       int64
	cacheMisses     int64
}

type Server struct {
	http.Server
	logger    *log.Logger
	templates *template.Template
	data      *adapters.SQLiteAdapter
	publisher RefreshPublisher

	authUser string
	authPass string

	rateLimiter *rateLimiter
	security    securityMetrics
	metrics     appMetrics

	// Rendered partials and chart payloads are cached briefly so HTMX
	// polling does not re-pivot the whole expense table on every tick.
	pivotCache     *cache.LRU[[]byte]
	portfolioCache *cache.LRU[[]byte]
	caches         *cache.Manager

	shutdownOnce sync.Once
}

var errTemplatesNotLoaded = errors.New("templates not loaded")

// NewServer configures routes, templates, and caches, returning a
// ready-to-run server.
func NewServer(addr string, data *adapters.SQLiteAdapter, publisher RefreshPublisher, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger:         logger.WithComponent(log.ComponentHTTP),
		data:           data,
		publisher:      publisher,
		authUser:       opts.BasicAuthUser,
		authPass:       opts.BasicAuthPassword,
		rateLimiter:    newRateLimiter(),
		metrics:        appMetrics{startedAt: time.Now()},
		pivotCache:     cache.NewLRU[[]byte](100, 30*time.Second),
		portfolioCache: cache.NewLRU[[]byte](50, 30*time.Second),
		caches:         cache.NewManager(),
	}
	s.caches.Register(s.pivotCache)
	s.caches.Register(s.portfolioCache)
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.ErrorContext(context.Background(), "Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.ErrorContext(context.Background(), "Failed to mount embedded static FS", log.FieldError, err)
	}

	// Operational endpoints stay outside the guarded chain so probes and
	// scrapers work without credentials.
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/", s.withSecurity(s.handleDashboard))
	mux.HandleFunc("/portfolio", s.withSecurity(s.handlePortfolioPage))

	mux.HandleFunc("/api/dashboard/pivot", s.withSecurity(s.handlePivotTable))
	mux.HandleFunc("/api/dashboard/trend", s.withSecurity(s.handleExpenseTrend))
	mux.HandleFunc("/api/dashboard/categories", s.withSecurity(s.handleCategoryBreakdown))
	mux.HandleFunc("/api/dashboard/groups", s.withSecurity(s.handleSharingGroups))
	mux.HandleFunc("/api/dashboard/stats", s.withSecurity(s.handleStatPills))

	mux.HandleFunc("/api/portfolio/summary", s.withSecurity(s.handlePortfolioSummary))
	mux.HandleFunc("/api/portfolio/series", s.withSecurity(s.handlePortfolioSeries))
	mux.HandleFunc("/api/portfolio/accounts", s.withSecurity(s.handlePortfolioAccounts))
	mux.HandleFunc("/api/inflation/series", s.withSecurity(s.handleInflationSeries))

	mux.HandleFunc("/api/refresh", s.withSecurity(s.handleTriggerRefresh))
	mux.HandleFunc("/api/refresh/status", s.withSecurity(s.handleRefreshStatus))
	mux.HandleFunc("/api/income", s.withSecurity(s.handleCreateIncome))

	return s
}

// withSecurity adds request logging, suspicion tracking, security headers,
// POST rate limiting, and basic auth to a handler.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		clientIP := extractClientIP(r)
		requestID := newRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if reason := suspicionReason(r); reason != "" {
			atomic.AddInt64(&s.security.suspiciousRequests, 1)
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"reason", reason)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.security) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' https://unpkg.com https://cdn.jsdelivr.net; "+
				"style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if !s.authorized(r) {
			atomic.AddInt64(&s.metrics.authFailures, 1)
			w.Header().Set("WWW-Authenticate", `Basic realm="smart-finances"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// authorized checks basic auth in constant time. Both comparisons always
// run so a known username leaks nothing through timing.
func (s *Server) authorized(r *http.Request) bool {
	if s.authUser == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.authUser))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.authPass))
	return userOK&passOK == 1
}

// render executes a named template into a byte slice so the result can be
// cached or discarded on error before any bytes reach the client.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cachedRender serves a rendered body from lru, invoking render only on a
// miss.
func (s *Server) cachedRender(lru *cache.LRU[[]byte], key string, render func() ([]byte, error)) ([]byte, error) {
	if body, ok := lru.Get(key); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return body, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)
	body, err := render()
	if err != nil {
		return nil, err
	}
	lru.Set(key, body)
	return body, nil
}

// Shutdown stops the cache sweep and rate limiter before draining the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
