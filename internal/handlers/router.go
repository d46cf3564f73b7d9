package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensor-monitor/internal/metrics"
)

// NewRouter собирает маршруты сервиса
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/", h.Index)

	r.Post("/api/send", h.SubmitReading("Data received"))
	r.Post("/sensor", h.SubmitReading("Data stored"))

	r.Get("/api/data", h.GetData)
	r.Get("/api/alerts", h.GetAlerts)
	r.Get("/api/csv", h.DownloadLog)

	r.Get("/health", h.HealthCheck)
	r.Get("/stats", h.GetStats)
	r.Get("/ws", h.LiveFeed)

	// Prometheus metrics endpoint
	r.Handle("/prometheus", promhttp.Handler())

	return r
}

// instrument пишет метрики запросов по шаблону маршрута
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	})
}
