package models

import "time"

// TimestampLayout формат временной метки показания (точность до секунды)
const TimestampLayout = "2006-01-02 15:04:05"

// ProtocolHTTP тег транспорта, которым пришло показание
const ProtocolHTTP = "HTTP"

// Названия метрик
const (
	MetricGas         = "gas"
	MetricTemperature = "temperature"
	MetricHumidity    = "humidity"
	MetricMagnitude   = "magnitude"
)

// Metrics порядок метрик в прогнозе и журнале
var Metrics = []string{MetricGas, MetricTemperature, MetricHumidity, MetricMagnitude}

// SensorData значения четырех датчиков. Все поля всегда заполнены
// (отсутствующие при приеме заменяются на 0).
type SensorData struct {
	Gas         float64 `json:"gas"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Magnitude   float64 `json:"magnitude"`
}

// Value возвращает значение метрики по имени
func (d SensorData) Value(metric string) (float64, bool) {
	switch metric {
	case MetricGas:
		return d.Gas, true
	case MetricTemperature:
		return d.Temperature, true
	case MetricHumidity:
		return d.Humidity, true
	case MetricMagnitude:
		return d.Magnitude, true
	}
	return 0, false
}

// Reading принятое показание с серверной временной меткой
type Reading struct {
	Timestamp  string     `json:"timestamp"`
	SensorData SensorData `json:"sensor_data"`
}

// NewReading создает показание с меткой времени t
func NewReading(t time.Time, data SensorData) Reading {
	return Reading{
		Timestamp:  t.Format(TimestampLayout),
		SensorData: data,
	}
}

// LogRecord строка журнала: показание и тег протокола
type LogRecord struct {
	Reading
	Protocol string `json:"protocol"`
}

// ThreatLevel уровень угрозы
type ThreatLevel string

// LevelDanger единственный существующий уровень
const LevelDanger ThreatLevel = "danger"

// Threat угроза, вычисленная по последнему показанию
type Threat struct {
	Level ThreatLevel `json:"level"`
	Text  string      `json:"text"`
}

// Alert угроза в ответе /api/alerts
type Alert struct {
	Timestamp string      `json:"timestamp"`
	Level     ThreatLevel `json:"level"`
	Text      string      `json:"text"`
	Data      SensorData  `json:"data"`
}

// NewAlerts привязывает угрозы к показанию
func NewAlerts(r Reading, threats []Threat) []Alert {
	alerts := make([]Alert, 0, len(threats))
	for _, t := range threats {
		alerts = append(alerts, Alert{
			Timestamp: r.Timestamp,
			Level:     t.Level,
			Text:      t.Text,
			Data:      r.SensorData,
		})
	}
	return alerts
}

// ForecastSet прогноз по каждой метрике
type ForecastSet map[string][]float64
