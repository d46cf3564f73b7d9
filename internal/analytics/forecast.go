package analytics

import (
	"errors"
	"fmt"
	"math"

	"sensor-monitor/internal/models"
)

const (
	// SmoothingLevel фиксированный коэффициент сглаживания, не подбирается по данным
	SmoothingLevel = 0.6
	// MinObservations минимальная длина ряда для прогноза
	MinObservations = 5
	// DefaultSteps горизонт прогноза
	DefaultSteps = 3
)

var (
	// ErrInsufficientHistory слишком короткий ряд, прогноз не строится
	ErrInsufficientHistory = errors.New("insufficient history for forecast")
	// ErrDegenerateSeries сглаживание дало нечисловой результат
	ErrDegenerateSeries = errors.New("degenerate series")
)

// Forecast простое экспоненциальное сглаживание:
// s1 = x1, s_t = a*x_t + (1-a)*s_{t-1}.
// Прогноз плоский: все steps значений равны s_n, округленному до 2 знаков.
func Forecast(values []float64, steps int) ([]float64, error) {
	if len(values) < MinObservations {
		return nil, ErrInsufficientHistory
	}
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrDegenerateSeries, steps)
	}

	level := values[0]
	for _, x := range values[1:] {
		level = SmoothingLevel*x + (1-SmoothingLevel)*level
	}
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return nil, fmt.Errorf("%w: smoothed level %v", ErrDegenerateSeries, level)
	}

	point := roundTo(level, 2)
	if math.IsNaN(point) || math.IsInf(point, 0) {
		return nil, fmt.Errorf("%w: rounded level %v", ErrDegenerateSeries, point)
	}
	result := make([]float64, steps)
	for i := range result {
		result[i] = point
	}
	return result, nil
}

// ForecastMetric строит прогноз метрики по показаниям.
// Ошибки сюда не пробрасываются: при любой проблеме возвращается пустой ряд
// и причина в err (nil для короткой истории).
func ForecastMetric(readings []models.Reading, metric string, steps int) ([]float64, error) {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		v, ok := r.SensorData.Value(metric)
		if !ok {
			return []float64{}, fmt.Errorf("unknown metric %q", metric)
		}
		values = append(values, v)
	}

	result, err := Forecast(values, steps)
	if errors.Is(err, ErrInsufficientHistory) {
		return []float64{}, nil
	}
	if err != nil {
		return []float64{}, fmt.Errorf("forecast %s: %w", metric, err)
	}
	return result, nil
}

// roundTo округляет до places знаков. У очень больших чисел дробной части
// нет, и v*p переполнился бы до Inf, поэтому они возвращаются как есть.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	scaled := v * p
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / p
}
