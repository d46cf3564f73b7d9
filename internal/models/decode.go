package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedBody тело запроса не является JSON объектом
var ErrMalformedBody = errors.New("malformed request body")

// DecodeSensorData разбирает тело запроса от моста.
//
// Тело обязано быть JSON объектом. Поля gas, temperature, humidity и magnitude
// приводятся к float64: числа берутся как есть, строки с числом парсятся,
// отсутствующие, нечисловые и бесконечные значения заменяются на 0.
// Лишние поля игнорируются.
func DecodeSensorData(body []byte) (SensorData, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return SensorData{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedBody)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return SensorData{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	return SensorData{
		Gas:         coerceFloat(fields[MetricGas]),
		Temperature: coerceFloat(fields[MetricTemperature]),
		Humidity:    coerceFloat(fields[MetricHumidity]),
		Magnitude:   coerceFloat(fields[MetricMagnitude]),
	}, nil
}

func coerceFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var value float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		value = parsed
	default:
		// null, bool, массивы и объекты не являются числом
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0
		}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
