package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"sensor-monitor/internal/analytics"
	"sensor-monitor/internal/metrics"
	"sensor-monitor/internal/models"
	"sensor-monitor/internal/monitor"
	"sensor-monitor/internal/storage"
	"sensor-monitor/internal/stream"
)

const maxBodyBytes = 1 << 20

// CacheStatus состояние зеркала для /health и /stats
type CacheStatus interface {
	Ping(ctx context.Context) error
	GetStats() map[string]interface{}
	ThreatCount(ctx context.Context, threat string) (int64, error)
}

// Handler обработчик HTTP запросов
type Handler struct {
	service *monitor.Service
	cache   CacheStatus
	hub     *stream.Hub
}

// NewHandler создает новый обработчик. cache и hub могут быть nil.
func NewHandler(service *monitor.Service, cache CacheStatus, hub *stream.Hub) *Handler {
	return &Handler{
		service: service,
		cache:   cache,
		hub:     hub,
	}
}

// writeJSON пишет JSON ответ с кодом статуса. Тело кодируется до
// WriteHeader: если payload не кодируется, клиент получает 500.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"error","message":"failed to encode response"}`+"\n")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": msg,
	})
}

// SubmitReading обрабатывает POST /api/send и /sensor
func (h *Handler) SubmitReading(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			metrics.IngestErrors.WithLabelValues("read_body").Inc()
			writeError(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
			return
		}

		data, err := models.DecodeSensorData(body)
		if err != nil {
			metrics.IngestErrors.WithLabelValues("malformed_body").Inc()
			log.Printf("Rejected reading: %v", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := h.service.Ingest(r.Context(), data)
		if err != nil {
			metrics.IngestErrors.WithLabelValues("internal").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "success",
			"message": message,
			"record":  res.Record,
		})
	}
}

// GetData обрабатывает GET /api/data
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	view := h.service.Recent(monitor.RecentLimit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"data":     view.Data,
		"forecast": view.Forecast,
		"protocol": models.ProtocolHTTP,
	})
}

// GetAlerts обрабатывает GET /api/alerts
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"alerts": h.service.Alerts(),
	})
}

// DownloadLog обрабатывает GET /api/csv. Файл отдается потоком из снимка,
// прием показаний в это время не блокируется.
func (h *Handler) DownloadLog(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.ExportLog()
	if errors.Is(err, storage.ErrLogNotFound) {
		writeError(w, http.StatusNotFound, "CSV not found")
		return
	}
	if err != nil {
		log.Printf("Append log read failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read CSV")
		return
	}
	defer snap.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sensor_data.csv"`)
	http.ServeContent(w, r, "sensor_data.csv", snap.ModTime, snap)
}

// Index заглушка вместо дашборда
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, `<!doctype html><html><head><title>Sensor Monitor</title></head>`+
		`<body><h1>Sensor Monitor</h1><p>Dashboard data: <a href="/api/data">/api/data</a>, `+
		`<a href="/api/alerts">/api/alerts</a>, <a href="/api/csv">/api/csv</a></p></body></html>`)
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK

	var redisOK interface{} = "disabled"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		ok := h.cache.Ping(ctx) == nil
		redisOK = ok
		if !ok {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"redis":     redisOK,
		"readings":  h.service.Len(),
		"timestamp": time.Now(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"monitor":   h.service.GetStats(),
		"timestamp": time.Now(),
	}
	if h.cache != nil {
		stats["redis"] = h.cache.GetStats()
		stats["threat_counts"] = h.threatCounts(r.Context())
	}
	if h.hub != nil {
		stats["websocket_clients"] = h.hub.Count()
	}

	writeJSON(w, http.StatusOK, stats)
}

// Счетчики угроз из зеркала. Недоступный счетчик пропускается.
func (h *Handler) threatCounts(ctx context.Context) map[string]int64 {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	counts := make(map[string]int64, len(analytics.ThreatNames))
	for _, name := range analytics.ThreatNames {
		n, err := h.cache.ThreatCount(ctx, name)
		if err != nil {
			log.Printf("Threat counter %q unavailable: %v", name, err)
			continue
		}
		counts[name] = n
	}
	return counts
}

// LiveFeed обрабатывает GET /ws
func (h *Handler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusNotFound, "live feed disabled")
		return
	}

	client, err := stream.Upgrade(w, r)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.hub.Register(client)
	client.ReadUntilClosed()
	h.hub.Unregister(client)
}
