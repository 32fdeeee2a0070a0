// Package metrics provides Prometheus instrumentation for the quote engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	// QuotesTotal counts calculations served, partitioned by kind
	// (flat, booklet, multipart) and outcome.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pressquote_quotes_total",
		Help: "Total number of quote calculations",
	}, []string{"kind", "outcome"})

	// QuoteLatency is the engine time per calculation.
	QuoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pressquote_quote_latency_seconds",
		Help:    "Quote calculation latency in seconds",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}, []string{"kind"})

	// InfeasibleCombinations counts machine/paper combinations excluded
	// because the job could not be packed.
	InfeasibleCombinations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pressquote_infeasible_combinations_total",
		Help: "Combinations excluded from ranking as infeasible",
	})

	// ExchangeRate is the current EUR value of one unit of each currency.
	ExchangeRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pressquote_exchange_rate",
		Help: "EUR per unit of currency",
	}, []string{"currency"})

	// RateRefreshFailures counts exchange rate refreshes that gave up.
	RateRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pressquote_rate_refresh_failures_total",
		Help: "Exchange rate refreshes that failed after retries",
	})

	// SavedQuotes counts quotes persisted.
	SavedQuotes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pressquote_saved_quotes_total",
		Help: "Quotes saved",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pressquote_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pressquote_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pressquote_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveRates publishes a rate table to the ExchangeRate gauge.
func ObserveRates(rates map[string]decimal.Decimal) {
	for code, r := range rates {
		ExchangeRate.WithLabelValues(code).Set(r.InexactFloat64())
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
