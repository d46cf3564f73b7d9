package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sensor-monitor/internal/analytics"
	"sensor-monitor/internal/history"
	"sensor-monitor/internal/metrics"
	"sensor-monitor/internal/models"
	"sensor-monitor/internal/storage"
	"sensor-monitor/internal/stream"
)

// RecentLimit сколько показаний отдает /api/data
const RecentLimit = 15

// AppendLog долговременный журнал показаний
type AppendLog interface {
	Append(rec models.LogRecord) error
	Open() (*storage.Snapshot, error)
}

// Mirror внешнее зеркало показаний (Redis)
type Mirror interface {
	StoreReading(ctx context.Context, at time.Time, r models.Reading) error
	IncrementThreat(ctx context.Context, threat string) error
}

// Publisher живая лента
type Publisher interface {
	Publish(msgType string, payload interface{})
}

// Service владеет историей и журналом. Прием показаний сериализован,
// запросы работают со снимками и ничего не изменяют.
type Service struct {
	ingestMu sync.Mutex
	history  *history.Buffer
	log      AppendLog

	mirror        Mirror
	publisher     Publisher
	mirrorTimeout time.Duration
	now           func() time.Time

	wg sync.WaitGroup
}

// Option настройка сервиса
type Option func(*Service)

// WithMirror включает зеркалирование показаний
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithPublisher включает рассылку в живую ленту
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создает сервис мониторинга
func NewService(buf *history.Buffer, appendLog AppendLog, opts ...Option) *Service {
	s := &Service{
		history:       buf,
		log:           appendLog,
		mirrorTimeout: 2 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestResult итог приема показания. PersistErr не равен nil, если
// показание попало в историю, но не записалось в журнал.
type IngestResult struct {
	Record     models.Reading
	Threats    []models.Threat
	PersistErr error
}

// Persisted записано ли показание в журнал
func (r IngestResult) Persisted() bool {
	return r.PersistErr == nil
}

// Ingest принимает показание: метка времени, история, журнал.
// Ошибка журнала не откатывает вставку в историю.
func (s *Service) Ingest(ctx context.Context, data models.SensorData) (IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return IngestResult{}, fmt.Errorf("ingest aborted: %w", err)
	}

	at, record, threats, persistErr, err := s.commit(data)
	if err != nil {
		log.Printf("Ingest failed: %v", err)
		return IngestResult{}, err
	}

	if persistErr != nil {
		metrics.LogWriteFailures.Inc()
		log.Printf("Append log write failed: %v", persistErr)
	}
	s.observe(record, threats)
	s.mirrorReading(at, record, threats)

	return IngestResult{Record: record, Threats: threats, PersistErr: persistErr}, nil
}

// commit критическая секция приема. Паника внутри нее превращается в
// ошибку, блокировка освобождается в любом случае.
func (s *Service) commit(data models.SensorData) (at time.Time, record models.Reading, threats []models.Threat, persistErr, err error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingest failed: %v", r)
		}
	}()

	at = s.now()
	record = models.NewReading(at, data)
	s.history.Append(record)
	persistErr = s.log.Append(models.LogRecord{Reading: record, Protocol: models.ProtocolHTTP})
	threats = analytics.Classify(record.SensorData)
	s.publish(record, threats)
	return at, record, threats, persistErr, nil
}

// Публикация внутри критической секции, чтобы лента шла в порядке приема
func (s *Service) publish(record models.Reading, threats []models.Threat) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(stream.TypeData, record)
	for _, alert := range models.NewAlerts(record, threats) {
		s.publisher.Publish(stream.TypeAlert, alert)
	}
}

func (s *Service) observe(record models.Reading, threats []models.Threat) {
	metrics.ReadingsIngested.Inc()
	metrics.HistorySize.Set(float64(s.history.Len()))
	for _, m := range models.Metrics {
		v, _ := record.SensorData.Value(m)
		metrics.LatestValue.WithLabelValues(m).Set(v)
	}
	for _, t := range threats {
		metrics.ThreatsDetected.WithLabelValues(t.Text).Inc()
	}
}

// Запись в зеркало асинхронная, ответ не ждет Redis
func (s *Service) mirrorReading(at time.Time, record models.Reading, threats []models.Threat) {
	if s.mirror == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
		defer cancel()

		if err := s.mirror.StoreReading(ctx, at, record); err == nil {
			metrics.RedisOperations.WithLabelValues("store_reading", "success").Inc()
		} else {
			metrics.RedisOperations.WithLabelValues("store_reading", "error").Inc()
			log.Printf("Mirror store failed: %v", err)
		}

		for _, t := range threats {
			if err := s.mirror.IncrementThreat(ctx, t.Text); err == nil {
				metrics.RedisOperations.WithLabelValues("increment_threat", "success").Inc()
			} else {
				metrics.RedisOperations.WithLabelValues("increment_threat", "error").Inc()
			}
		}
	}()
}

// Wait дожидается фоновых записей в зеркало
func (s *Service) Wait() {
	s.wg.Wait()
}

// RecentView ответ на запрос последних данных
type RecentView struct {
	Data     []models.Reading
	Forecast models.ForecastSet
}

// Recent последние limit показаний и прогноз по всей истории.
// И данные, и прогноз берутся из одного снимка.
func (s *Service) Recent(limit int) RecentView {
	snapshot := s.history.Snapshot(0)

	data := snapshot
	if limit > 0 && len(data) > limit {
		data = data[len(data)-limit:]
	}

	return RecentView{
		Data:     data,
		Forecast: s.forecast(snapshot),
	}
}

func (s *Service) forecast(snapshot []models.Reading) models.ForecastSet {
	set := make(models.ForecastSet, len(models.Metrics))
	for _, m := range models.Metrics {
		values, err := analytics.ForecastMetric(snapshot, m, analytics.DefaultSteps)
		if err != nil {
			metrics.ForecastFailures.WithLabelValues(m).Inc()
			log.Printf("Forecast failed: %v", err)
		}
		set[m] = values
	}
	return set
}

// Alerts угрозы по самому свежему показанию
func (s *Service) Alerts() []models.Alert {
	latest, ok := s.history.Latest()
	if !ok {
		return []models.Alert{}
	}
	return models.NewAlerts(latest, analytics.Classify(latest.SensorData))
}

// ExportLog снимок журнала для скачивания. Вызывающий закрывает снимок.
func (s *Service) ExportLog() (*storage.Snapshot, error) {
	return s.log.Open()
}

// GetStats статистика сервиса
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"history_size":     s.history.Len(),
		"history_capacity": s.history.Cap(),
		"mirror_enabled":   s.mirror != nil,
		"live_feed":        s.publisher != nil,
	}
	if p, ok := s.log.(interface{ Path() string }); ok {
		stats["log_path"] = p.Path()
	}
	return stats
}

// Len количество показаний в истории
func (s *Service) Len() int {
	return s.history.Len()
}
