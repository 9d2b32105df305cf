package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second

	// Клиент обязан ответить pong за это время
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10

	// Клиент сюда ничего полезного не пишет
	readLimit = 4 * 1024

	sendQueueSize = 16
)

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendQueueSize),
		Hub:    hub,
	}
}

// ReadPump держит чтение открытым ради pong и close-фреймов.
// Входящие сообщения игнорируются.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	extend := func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
	}
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.Hub.logger.Warn("websocket read failed", zap.Stringer("client_id", c.ID), zap.Error(err))
		}
		return
	}
}

// WritePump единственный писатель в соединение: события из Send и ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	write := func(kind int, payload []byte) error {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.Conn.WriteMessage(kind, payload)
	}

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				// hub закрыл очередь
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
