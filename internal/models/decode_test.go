package models

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeSensorDataFullPayload(t *testing.T) {
	data, err := DecodeSensorData([]byte(`{"gas": 420.5, "temperature": 21, "humidity": 55.2, "magnitude": 0.3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := SensorData{Gas: 420.5, Temperature: 21, Humidity: 55.2, Magnitude: 0.3}
	if data != want {
		t.Fatalf("expected %+v, got %+v", want, data)
	}
}

func TestDecodeSensorDataDefaultsMissingAndNonNumeric(t *testing.T) {
	data, err := DecodeSensorData([]byte(`{"gas": "910", "temperature": "hot", "magnitude": null, "extra": [1,2]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Gas != 910 {
		t.Fatalf("expected numeric string to be parsed, got %v", data.Gas)
	}
	if data.Temperature != 0 {
		t.Fatalf("expected non-numeric temperature to default to 0, got %v", data.Temperature)
	}
	if data.Humidity != 0 {
		t.Fatalf("expected missing humidity to default to 0, got %v", data.Humidity)
	}
	if data.Magnitude != 0 {
		t.Fatalf("expected null magnitude to default to 0, got %v", data.Magnitude)
	}
}

func TestDecodeSensorDataRejectsNonFinite(t *testing.T) {
	data, err := DecodeSensorData([]byte(`{"gas": "NaN", "temperature": "Inf", "humidity": true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data != (SensorData{}) {
		t.Fatalf("expected all fields zeroed, got %+v", data)
	}
}

func TestDecodeSensorDataEmptyObject(t *testing.T) {
	data, err := DecodeSensorData([]byte(` {} `))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data != (SensorData{}) {
		t.Fatalf("expected zero reading, got %+v", data)
	}
}

func TestDecodeSensorDataMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":     ``,
		"garbage":   `gas=1`,
		"array":     `[{"gas": 1}]`,
		"number":    `42`,
		"truncated": `{"gas": 1`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSensorData([]byte(body))
			if !errors.Is(err, ErrMalformedBody) {
				t.Fatalf("expected ErrMalformedBody, got %v", err)
			}
		})
	}
}

func TestNewReadingFormatsTimestamp(t *testing.T) {
	at := time.Date(2026, time.March, 4, 7, 8, 9, 500, time.UTC)
	r := NewReading(at, SensorData{Gas: 1})
	if r.Timestamp != "2026-03-04 07:08:09" {
		t.Fatalf("unexpected timestamp %q", r.Timestamp)
	}
}

func TestNewAlertsCarriesReadingData(t *testing.T) {
	r := Reading{Timestamp: "2026-03-04 07:08:09", SensorData: SensorData{Gas: 900}}
	alerts := NewAlerts(r, []Threat{{Level: LevelDanger, Text: "Gas Leakage"}})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Timestamp != r.Timestamp || alerts[0].Data != r.SensorData || alerts[0].Text != "Gas Leakage" {
		t.Fatalf("unexpected alert %+v", alerts[0])
	}
}
