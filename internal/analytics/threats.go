package analytics

import (
	"math"

	"sensor-monitor/internal/models"
)

// Пороги срабатывания
const (
	GasLeakThreshold     = 850.0
	FireTemperatureMin   = 35.0
	FireHumidityMax      = 25.0
	RockFallMagnitudeMin = 5.5
)

// Названия угроз
const (
	ThreatGasLeakage = "Gas Leakage"
	ThreatFireRisk   = "Fire Risk"
	ThreatRockFall   = "Rock Fall"
)

// ThreatNames все угрозы в порядке проверки правил
var ThreatNames = []string{ThreatGasLeakage, ThreatFireRisk, ThreatRockFall}

type rule struct {
	text  string
	fires func(d models.SensorData) bool
}

// Правила проверяются независимо, может сработать несколько сразу.
// Нечисловое значение поля просто не дает сработать своему правилу.
var rules = []rule{
	{ThreatGasLeakage, func(d models.SensorData) bool {
		return above(d.Gas, GasLeakThreshold)
	}},
	{ThreatFireRisk, func(d models.SensorData) bool {
		return above(d.Temperature, FireTemperatureMin) && below(d.Humidity, FireHumidityMax)
	}},
	{ThreatRockFall, func(d models.SensorData) bool {
		return above(d.Magnitude, RockFallMagnitudeMin)
	}},
}

// Classify возвращает угрозы для одного показания. Чистая функция.
func Classify(d models.SensorData) []models.Threat {
	threats := make([]models.Threat, 0, len(rules))
	for _, r := range rules {
		if r.fires(d) {
			threats = append(threats, models.Threat{Level: models.LevelDanger, Text: r.text})
		}
	}
	return threats
}

func above(v, threshold float64) bool {
	return isFinite(v) && v > threshold
}

func below(v, threshold float64) bool {
	return isFinite(v) && v < threshold
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
