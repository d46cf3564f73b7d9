package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client websocket соединение подписчика
type Client struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
}

// Upgrade переводит HTTP запрос в websocket
func Upgrade(w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Send пишет текстовое сообщение
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close закрывает соединение
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// ReadUntilClosed читает входящие кадры (ping/close) до разрыва соединения.
// Содержимое сообщений от клиента игнорируется.
func (c *Client) ReadUntilClosed() {
	// дедлайн чтения http.Server остается на соединении после hijack
	_ = c.conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
