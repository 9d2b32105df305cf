package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventType определяет типы сообщений, которые сервер шлёт клиенту
type EventType string

const (
	TypePing EventType = "ping"

	// Сессионные события: logged_out, token_refreshed, password_changed
	TypeSession EventType = "session"
)

type Event struct {
	Type      EventType `json:"type"`
	Event     string    `json:"event,omitempty"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

// Hub держит открытые соединения и раздаёт события сессий
// всем соединениям пользователя.
type Hub struct {
	// Один пользователь может держать несколько соединений (вкладки, устройства)
	sessions map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions:   make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run обслуживает регистрацию клиентов до вызова Stop
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ticker.C:
			h.broadcastPing()
		}
	}
}

// Stop гасит Run и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.sessions {
		for c := range set {
			close(c.Send)
			_ = c.Conn.Close()
		}
	}
	h.sessions = make(map[uuid.UUID]map[*Client]struct{})
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = c.Conn.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.UserID] = set
	}
	set[c] = struct{}{}

	h.logger.Debug("client registered", zap.Stringer("client_id", c.ID), zap.Stringer("user_id", c.UserID))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.sessions[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.sessions, c.UserID)
	}
	close(c.Send)

	h.logger.Debug("client unregistered", zap.Stringer("client_id", c.ID), zap.Stringer("user_id", c.UserID))
}

// NotifyUser шлёт событие сессии во все соединения пользователя.
// Не блокируется: у переполненного клиента событие теряется.
func (h *Hub) NotifyUser(userID uuid.UUID, event string) {
	payload, err := json.Marshal(Event{
		Type:      TypeSession,
		Event:     event,
		UserID:    userID,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	h.SendToUser(userID, payload)
}

func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.sessions[userID] {
		h.offer(c, payload)
	}
}

// ClientCount возвращает число открытых соединений пользователя
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) broadcastPing() {
	payload, err := json.Marshal(Event{Type: TypePing, Timestamp: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.sessions {
		for c := range set {
			h.offer(c, payload)
		}
	}
}

// offer кладёт сообщение в очередь клиента, не дожидаясь WritePump.
// Вызывать под h.mu.
func (h *Hub) offer(c *Client, payload []byte) {
	select {
	case c.Send <- payload:
	default:
		h.logger.Warn("client send queue full, dropping message", zap.Stringer("client_id", c.ID))
	}
}
