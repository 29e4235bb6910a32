// Package notify pushes "you have a new message" signals to connected
// browsers. It never carries message content; clients re-fetch over HTTP.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

// Hub keeps at most one connection per user. A new connection replaces the
// old one.
type Hub struct {
	mu         sync.RWMutex
	clients    map[userdomain.ID]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   gorillaWS.Upgrader
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[userdomain.ID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.WebSocketReadBufferSize,
			WriteBufferSize: constants.WebSocketWriteBufferSize,
		},
		log: log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Serve upgrades the request and attaches the connection to user.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, user userdomain.User) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn, user.ID, h.log)
	if !h.Register(client) {
		_ = conn.Close()
		return nil
	}
	client.start()
	return nil
}

// Notify never blocks. A slow client loses the signal rather than stalling
// the sender's request.
func (h *Hub) Notify(userID userdomain.ID, n domain.Notification) bool {
	payload, err := json.Marshal(n)
	if err != nil {
		h.log.WithFields(context.Background(), logger.Fields{
			"user_id": userID,
			"action":  "ws_notify_marshal",
		}).Errorf("websocket failed to marshal notification: %v", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userID]
	if !ok {
		metrics.WebSocketNotificationsTotal.WithLabelValues("offline").Inc()
		return false
	}

	select {
	case client.send <- payload:
		metrics.WebSocketNotificationsTotal.WithLabelValues("delivered").Inc()
		return true
	default:
		metrics.WebSocketNotificationsTotal.WithLabelValues("dropped").Inc()
		h.log.WithFields(context.Background(), logger.Fields{
			"user_id": userID,
			"action":  "ws_notify_dropped",
		}).Warn("websocket send buffer full")
		return false
	}
}

func (h *Hub) IsOnline(userID userdomain.ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	existing, replaced := h.clients[client.userID]
	if replaced {
		close(existing.send)
	}
	h.clients[client.userID] = client
	total := len(h.clients)
	h.mu.Unlock()

	if replaced {
		metrics.WebSocketDisconnections.WithLabelValues("replaced").Inc()
	} else {
		metrics.WebSocketConnectionsActive.Inc()
	}

	h.log.WithFields(context.Background(), logger.Fields{
		"user_id":  client.userID,
		"replaced": replaced,
		"total":    total,
		"action":   "ws_register",
	}).Info("websocket client registered")
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.userID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.userID)
	close(client.send)
	h.mu.Unlock()

	metrics.WebSocketConnectionsActive.Dec()
	metrics.WebSocketDisconnections.WithLabelValues("closed").Inc()

	h.log.WithFields(context.Background(), logger.Fields{
		"user_id": client.userID,
		"action":  "ws_unregister",
	}).Debug("websocket client unregistered")
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	metrics.WebSocketConnectionsActive.Sub(float64(n))
	metrics.WebSocketDisconnections.WithLabelValues("shutdown").Add(float64(n))

	h.log.WithFields(context.Background(), logger.Fields{
		"clients": n,
		"action":  "ws_hub_shutdown",
	}).Info("websocket hub shutdown completed")
}
