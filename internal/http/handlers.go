package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.svc.Health == nil:
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		if err := s.svc.Health.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	if c := s.reportCache(); c != nil {
		checks["cache"] = c
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// reportCache returns the report cache statistics, or nil when reports
// are not cached.
func (s *Server) reportCache() any {
	if s.svc.Reports == nil || s.svc.Reports.Cache() == nil {
		return nil
	}
	return s.svc.Reports.Cache().Stats()
}

// handleMetrics provides request and cache metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_failed_total Requests answered with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_requests_failed_total counter\n")
	fmt.Fprintf(w, "http_requests_failed_total %d\n\n", traceMetrics.FailedRequests)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	if s.svc.Reports != nil && s.svc.Reports.Cache() != nil {
		stats := s.svc.Reports.Cache().Stats()
		fmt.Fprintf(w, "# HELP report_cache_hits_total Total report cache hits\n")
		fmt.Fprintf(w, "# TYPE report_cache_hits_total counter\n")
		fmt.Fprintf(w, "report_cache_hits_total %d\n\n", stats.Hits)

		fmt.Fprintf(w, "# HELP report_cache_misses_total Total report cache misses\n")
		fmt.Fprintf(w, "# TYPE report_cache_misses_total counter\n")
		fmt.Fprintf(w, "report_cache_misses_total %d\n\n", stats.Misses)

		fmt.Fprintf(w, "# HELP report_cache_entries Current report cache entries\n")
		fmt.Fprintf(w, "# TYPE report_cache_entries gauge\n")
		fmt.Fprintf(w, "report_cache_entries %d\n\n", stats.Size)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", s.now().Sub(s.started).Seconds())
}
