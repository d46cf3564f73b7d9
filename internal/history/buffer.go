package history

import (
	"sync"

	"sensor-monitor/internal/models"
)

// DefaultCapacity размер окна истории по умолчанию
const DefaultCapacity = 500

// Buffer кольцевой буфер последних показаний. При переполнении
// вытесняется самое старое показание.
type Buffer struct {
	mu    sync.RWMutex
	items []models.Reading
	head  int // индекс самого старого элемента
	size  int
}

// NewBuffer создает буфер заданной емкости
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		items: make([]models.Reading, capacity),
	}
}

// Append добавляет показание в конец
func (b *Buffer) Append(r models.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.size == capacity {
		b.items[b.head] = r
		b.head = (b.head + 1) % capacity
		return
	}
	b.items[(b.head+b.size)%capacity] = r
	b.size++
}

// Snapshot возвращает копию последних k показаний в порядке поступления.
// При k <= 0 или k больше длины возвращается вся история.
func (b *Buffer) Snapshot(k int) []models.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if k <= 0 || k > b.size {
		k = b.size
	}

	result := make([]models.Reading, k)
	start := b.head + b.size - k
	for i := 0; i < k; i++ {
		result[i] = b.items[(start+i)%len(b.items)]
	}
	return result
}

// Latest возвращает последнее показание
func (b *Buffer) Latest() (models.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return models.Reading{}, false
	}
	return b.items[(b.head+b.size-1)%len(b.items)], true
}

// Len текущее количество показаний
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap емкость буфера
func (b *Buffer) Cap() int {
	return len(b.items)
}
