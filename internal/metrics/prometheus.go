package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsIngested принятые показания
	ReadingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_ingested_total",
			Help: "Total number of accepted sensor readings",
		},
	)

	// IngestErrors отклоненные запросы приема
	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of rejected ingestion requests",
		},
		[]string{"reason"},
	)

	// LogWriteFailures ошибки записи в журнал
	LogWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "log_write_failures_total",
			Help: "Total number of failed append log writes",
		},
	)

	// ThreatsDetected угрозы, сработавшие на принятых показаниях
	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threats_detected_total",
			Help: "Total number of threats raised by accepted readings",
		},
		[]string{"threat"},
	)

	// ForecastFailures сбои расчета прогноза
	ForecastFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_failures_total",
			Help: "Total number of failed forecast computations",
		},
		[]string{"metric"},
	)

	// HistorySize текущий размер истории
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_size",
			Help: "Number of readings held in the history buffer",
		},
	)

	// LatestValue последнее значение датчика
	LatestValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensor_latest_value",
			Help: "Most recent accepted value per metric",
		},
		[]string{"metric"},
	)

	// RedisOperations операции с Redis
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// WebsocketClients подключенные клиенты живой ленты
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected live feed clients",
		},
	)
)
