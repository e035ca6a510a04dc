package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bjt/internal/ledger"
	applog "bjt/internal/log"
	"bjt/internal/middleware/ratelimit"
	"bjt/internal/middleware/security"
	"bjt/internal/middleware/trace"
	"bjt/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services the API is served from.
type Services struct {
	Transactions    *services.TransactionService
	MonthlyExpenses *services.MonthlyExpenseService
	Reports         *services.ReportService
	Assets          ledger.AssetCatalog
	Health          Pinger
}

// Options tune the server. Zero values use defaults.
type Options struct {
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Logger             *applog.Logger
	Now                func() time.Time
}

const defaultRequestTimeout = 10 * time.Second

// Server wraps http.Server with the API routes and its middleware.
type Server struct {
	http.Server

	svc     Services
	logger  *applog.Logger
	timeout time.Duration
	now     func() time.Time
	started time.Time

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Default(applog.ComponentHTTP)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		svc:             svc,
		logger:          opts.Logger,
		timeout:         opts.RequestTimeout,
		now:             opts.Now,
		started:         opts.Now(),
		rateLimiter:     ratelimit.NewLimiter(rlConfig),
		traceMiddleware: trace.NewMiddleware(extractClientIP, opts.Logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	reportsLog := applog.ComponentMiddleware(applog.ComponentReport)
	txLog := applog.ComponentMiddleware(applog.ComponentTransaction)
	expenseLog := applog.ComponentMiddleware(applog.ComponentExpense)

	mux.Handle("/api/reports", reportsLog(http.HandlerFunc(s.handleReport)))
	mux.Handle("/api/reports/daily", reportsLog(http.HandlerFunc(s.handleDailyReport)))
	mux.Handle("/api/transactions", txLog(http.HandlerFunc(s.handleTransactions)))
	mux.Handle("/api/transactions/{id}", txLog(http.HandlerFunc(s.handleTransaction)))
	mux.Handle("/api/monthly-expenses", expenseLog(http.HandlerFunc(s.handleMonthlyExpense)))
	mux.HandleFunc("/api/assets", s.handleAssets)
	mux.HandleFunc("/api/periods", s.handlePeriods)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(extractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldComponent, applog.ComponentRateLimit)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").
		Header("Retry-After", "60").
		Write(w)
}

// requestContext bounds a handler's calls into the services.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// Shutdown gracefully shuts down the server and its background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
