package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"sensor-monitor/internal/metrics"
)

// Типы сообщений живой ленты
const (
	TypeData  = "data"
	TypeAlert = "alert"
)

// Subscriber клиент живой ленты
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Message конверт сообщения: {"type": "...", "payload": ...}
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub рассылает сообщения всем подписчикам
type Hub struct {
	mu        sync.RWMutex
	clients   map[Subscriber]struct{}
	register  chan Subscriber
	unreg     chan Subscriber
	broadcast chan []byte
	done      chan struct{}
}

// NewHub создает хаб. Рассылка начинается после запуска Run.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[Subscriber]struct{}),
		register:  make(chan Subscriber),
		unreg:     make(chan Subscriber),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
}

// Run обслуживает подписки до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.WebsocketClients.Set(0)
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.Send(payload); err != nil {
					log.Printf("Dropping live feed client: %v", err)
					c.Close()
					delete(h.clients, c)
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
		}
	}
}

// Register добавляет подписчика. После остановки хаба клиент сразу закрывается.
func (h *Hub) Register(c Subscriber) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister удаляет подписчика
func (h *Hub) Unregister(c Subscriber) {
	select {
	case h.unreg <- c:
	case <-h.done:
	}
}

// Count количество подписчиков
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish ставит сообщение в очередь рассылки. Не блокирует: если очередь
// полна, сообщение отбрасывается.
func (h *Hub) Publish(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("Error marshalling %s message for broadcast: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Live feed queue full, dropping %s message", msgType)
	}
}
