package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// client is one live WebSocket connection
type client struct {
	id           string
	conn         *websocket.Conn
	send         chan Event
	subscription *SubscriptionRequest
	ip           string
}

// Hub maintains the set of connected clients and broadcasts pipeline
// events to them
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	config     config.EventsConfig
	logger     *logger.Logger

	mu    sync.RWMutex
	stats HubStats
}

// HubStats tracks hub counters
type HubStats struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	TotalBroadcasts   int64 `json:"total_broadcasts"`
	TotalMessages     int64 `json:"total_messages"`
}

// NewHub creates an event hub from configuration
func NewHub(cfg config.EventsConfig, log *logger.Logger) *Hub {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		config: cfg,
		logger: log,
	}
}

// Run handles registration, unregistration, and broadcasting. Call it
// in its own goroutine.
func (h *Hub) Run() {
	h.logger.Info("Starting event hub")

	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	h.stats.TotalConnections++
	h.stats.ActiveConnections++

	h.logger.Info("Client connected",
		zap.String("client_id", c.id),
		zap.String("client_ip", c.ip),
		zap.Int64("active_connections", h.stats.ActiveConnections),
	)

	event := Event{
		Type:      EventTypeConnection,
		Timestamp: time.Now(),
		Data: ConnectionEvent{
			Action:   "connected",
			ClientID: c.id,
			ClientIP: c.ip,
			Message:  fmt.Sprintf("Client %s connected", c.id),
		},
	}
	go h.BroadcastEvent(event)
}

func (h *Hub) unregisterClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.stats.ActiveConnections--

	h.logger.Info("Client disconnected",
		zap.String("client_id", c.id),
		zap.Int64("active_connections", h.stats.ActiveConnections),
	)

	event := Event{
		Type:      EventTypeConnection,
		Timestamp: time.Now(),
		Data: ConnectionEvent{
			Action:   "disconnected",
			ClientID: c.id,
			ClientIP: c.ip,
		},
	}
	go h.BroadcastEvent(event)
}

func (h *Hub) broadcastEvent(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.TotalBroadcasts++

	for c := range h.clients {
		if !h.shouldSendToClient(c, event) {
			continue
		}
		select {
		case c.send <- event:
			h.stats.TotalMessages++
		default:
			// Client cannot keep up, drop it
			h.logger.Warn("Client send channel full, closing connection",
				zap.String("client_id", c.id),
			)
			delete(h.clients, c)
			close(c.send)
			h.stats.ActiveConnections--
		}
	}
}

func (h *Hub) shouldSendToClient(c *client, event Event) bool {
	if c.subscription == nil {
		return true
	}
	for _, eventType := range c.subscription.Events {
		if eventType == event.Type {
			return true
		}
	}
	return false
}

// BroadcastEvent queues an event for all clients, honoring the
// configured broadcast toggles. A full queue drops the event rather
// than blocking the pipeline.
func (h *Hub) BroadcastEvent(event Event) {
	if !h.shouldBroadcastEvent(event.Type) {
		return
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

func (h *Hub) shouldBroadcastEvent(eventType EventType) bool {
	switch eventType {
	case EventTypeRedaction:
		return h.config.Broadcast.Redactions
	case EventTypeRequestLog:
		return h.config.Broadcast.Requests
	case EventTypeConnection:
		return h.config.Broadcast.Connections
	case EventTypeSystemStatus:
		return true
	default:
		return false
	}
}

// HandleWebSocket upgrades an HTTP request into a hub client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	active := h.stats.ActiveConnections
	h.mu.RUnlock()
	if h.config.MaxConnections > 0 && active >= int64(h.config.MaxConnections) {
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	c := &client{
		id:   generateClientID(),
		conn: conn,
		send: make(chan Event, 256),
		ip:   clientIP(r),
	}

	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to write WebSocket message",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
			}
			break
		}
		h.handleClientMessage(c, msg)
	}
}

func (h *Hub) handleClientMessage(c *client, msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		if data, ok := msg.Data.(map[string]interface{}); ok {
			jsonData, _ := json.Marshal(data)
			var subscription SubscriptionRequest
			if err := json.Unmarshal(jsonData, &subscription); err == nil {
				c.subscription = &subscription
				h.logger.Info("Client subscription updated",
					zap.String("client_id", c.id),
					zap.Any("subscription", subscription),
				)
			}
		}
	case "ping":
		pong := Event{
			Type:      "pong",
			Timestamp: time.Now(),
			Data:      map[string]string{"message": "pong"},
		}
		select {
		case c.send <- pong:
		default:
		}
	}
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := h.stats
	stats.ActiveConnections = int64(len(h.clients))
	return stats
}

func generateClientID() string {
	return fmt.Sprintf("client_%d", time.Now().UnixNano())
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
