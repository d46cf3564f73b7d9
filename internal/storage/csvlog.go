package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sensor-monitor/internal/models"
)

// Header колонки журнала
var Header = []string{"timestamp", "gas", "temperature", "humidity", "magnitude", "protocol"}

// ErrLogNotFound журнал еще ни разу не создавался
var ErrLogNotFound = errors.New("append log not found")

// PersistenceError ошибка записи или чтения журнала
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("append log %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CSVLog журнал показаний в CSV файле. Строки только дописываются.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog открывает журнал по пути path, создавая файл с заголовком,
// если его еще нет.
func NewCSVLog(path string) (*CSVLog, error) {
	l := &CSVLog{path: path}
	if err := l.ensureHeader(); err != nil {
		return l, err
	}
	return l, nil
}

// Path путь к файлу журнала
func (l *CSVLog) Path() string {
	return l.path
}

func (l *CSVLog) ensureHeader() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &PersistenceError{Op: "stat", Path: l.path, Err: err}
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return &PersistenceError{Op: "create", Path: l.path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return &PersistenceError{Op: "write header", Path: l.path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Op: "write header", Path: l.path, Err: err}
	}
	return nil
}

// Append дописывает одну строку. Каждый вызов открывает и закрывает файл.
func (l *CSVLog) Append(rec models.LogRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Файл могли удалить снаружи, заголовок восстанавливается
	if err := l.ensureHeader(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &PersistenceError{Op: "open", Path: l.path, Err: err}
	}

	w := csv.NewWriter(f)
	werr := w.Write(encodeRecord(rec))
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	cerr := f.Close()

	if werr != nil {
		return &PersistenceError{Op: "append", Path: l.path, Err: werr}
	}
	if cerr != nil {
		return &PersistenceError{Op: "close", Path: l.path, Err: cerr}
	}
	return nil
}

// Snapshot содержимое журнала на момент открытия. Строки, дописанные
// позже, в снимок не попадают.
type Snapshot struct {
	*io.SectionReader
	file    *os.File
	ModTime time.Time
}

// Close закрывает файл снимка
func (s *Snapshot) Close() error {
	return s.file.Close()
}

// Open открывает журнал для чтения. Блокировка держится только на время
// открытия и stat, само чтение не мешает приему показаний.
func (l *CSVLog) Open() (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLogNotFound
		}
		return nil, &PersistenceError{Op: "open", Path: l.path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &PersistenceError{Op: "stat", Path: l.path, Err: err}
	}

	return &Snapshot{
		SectionReader: io.NewSectionReader(f, 0, info.Size()),
		file:          f,
		ModTime:       info.ModTime(),
	}, nil
}

// Export возвращает текущее содержимое журнала целиком
func (l *CSVLog) Export() ([]byte, error) {
	snap, err := l.Open()
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	content, err := io.ReadAll(snap)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: l.path, Err: err}
	}
	return content, nil
}

// Rows читает журнал обратно в записи (без заголовка)
func (l *CSVLog) Rows() ([]models.LogRecord, error) {
	content, err := l.Export()
	if err != nil {
		return nil, err
	}

	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		return nil, &PersistenceError{Op: "parse", Path: l.path, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]models.LogRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, &PersistenceError{Op: "parse", Path: l.path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

func encodeRecord(rec models.LogRecord) []string {
	d := rec.SensorData
	return []string{
		rec.Timestamp,
		formatFloat(d.Gas),
		formatFloat(d.Temperature),
		formatFloat(d.Humidity),
		formatFloat(d.Magnitude),
		rec.Protocol,
	}
}

func decodeRecord(row []string) (models.LogRecord, error) {
	if len(row) != len(Header) {
		return models.LogRecord{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}

	values := make([]float64, 4)
	for i := range values {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return models.LogRecord{}, fmt.Errorf("column %s: %w", Header[i+1], err)
		}
		values[i] = v
	}

	return models.LogRecord{
		Reading: models.Reading{
			Timestamp: row[0],
			SensorData: models.SensorData{
				Gas:         values[0],
				Temperature: values[1],
				Humidity:    values[2],
				Magnitude:   values[3],
			},
		},
		Protocol: row[5],
	}, nil
}

// formatFloat пишет число в кратчайшей форме, целые значения с ".0"
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
